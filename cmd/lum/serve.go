package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/michaelquigley/pfxlog"
	"github.com/pavanmanishd/lum/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Churn continuously and expose allocator metrics on /metrics",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	},
}

func runServe(ctx context.Context, cfg *Config) error {
	cfg.Track = true
	b, err := newBackend(cfg)
	if err != nil {
		return err
	}
	defer b.close()

	reg := prometheus.NewRegistry()
	if err := reg.Register(metrics.NewCollector("lum", b.tracking, b.pool)); err != nil {
		return errors.Wrap(err, "error registering collector")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.Listen, Handler: mux}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	listenErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
			cancel()
		}
	}()
	pfxlog.Logger().Infof("serving metrics on http://%s/metrics", cfg.Listen)

	for ctx.Err() == nil {
		if err := b.round(ctx, cfg); err != nil && ctx.Err() == nil {
			_ = srv.Close()
			return errors.Wrap(err, "churn failed")
		}
	}
	select {
	case err := <-listenErr:
		return errors.Wrapf(err, "metrics listener failed [%s]", cfg.Listen)
	default:
	}
	return srv.Shutdown(context.Background())
}
