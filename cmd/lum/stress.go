package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	stressCmd.Flags().BoolVar(&stressJson, "json", false, "Print the report as JSON")
	rootCmd.AddCommand(stressCmd)
}

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Churn shared handles and managers from concurrent workers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runStress(cmd.Context(), cfg)
	},
}
var stressJson bool

func runStress(ctx context.Context, cfg *Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := newBackend(cfg)
	if err != nil {
		return err
	}
	defer b.close()
	if err := churn(ctx, cfg, b); err != nil {
		return errors.Wrap(err, "churn failed")
	}

	r := b.report()
	if stressJson {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return errors.Wrap(err, "error encoding report")
		}
		_, err = fmt.Fprintln(os.Stdout, string(data))
		return err
	}

	log := pfxlog.Logger()
	log.Infof("allocator: %s", r.Allocator)
	if r.Tracking != nil {
		log.Infof("allocs: %d, frees: %d, peak bytes: %d, leaks: %d", r.Tracking.Allocs, r.Tracking.Frees, r.Tracking.PeakBytes, r.Leaks)
	}
	if r.Pool != nil {
		log.Infof("pool hits: %d, misses: %d", r.Pool.Hits, r.Pool.Misses)
	}
	if r.Arena != nil {
		log.Infof("arena chunks: %d, capacity: %d", r.Arena.NumChunks, r.Arena.Capacity)
	}
	if r.Leaks > 0 {
		return errors.Errorf("%d allocations leaked", r.Leaks)
	}
	return nil
}
