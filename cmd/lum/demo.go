package main

import (
	"github.com/michaelquigley/pfxlog"
	"github.com/pavanmanishd/lum"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(demoCmd)
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk through ownership handles, a buffer and a manager",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		runDemo(lum.Global())
	},
}

// bye logs its own teardown so the demo shows when each value dies.
type bye struct {
	A, B int32
}

func (b *bye) Destroy() {
	pfxlog.Logger().Infof("bye (%d, %d)", b.A, b.B)
}

func runDemo(h lum.Handle) {
	log := pfxlog.Logger()

	owned := lum.Make(h, func(b *bye) { b.A, b.B = 1, 2 })
	byebye := lum.Share(&owned)
	log.Infof("shared bye (%d, %d) with %d reference(s)", byebye.Raw().A, byebye.Raw().B, byebye.Refs())

	many := lum.MakeArray[bye](h, 13)
	manyByes := lum.Share(&many)
	log.Infof("shared %d byes", manyByes.Capacity())

	ints := lum.NewBuffer[int32](h, 5)
	for i := 0; i < 42; i++ {
		ints.Set(i, int32(i))
	}
	log.Infof("buffer holds %d ints in room for %d", ints.Len(), ints.Cap())
	ints.Release()

	m := lum.NewManager[bye](h)
	a := createBye(m, 77, 88)
	b := createBye(m, 77, 88)
	c := createBye(m, 77, 88)
	m.Destroy(b)
	d := createBye(m, 77, 88)
	log.Infof("recreated %v as %v", b, d)
	m.Destroy(d)
	m.Destroy(a)
	m.Destroy(c)
	for _, uid := range []lum.Uid{a, b, c, d} {
		if _, ok := m.Fetch(uid); ok {
			log.Errorf("%v still resolves", uid)
		}
	}
	m.Release()

	manyByes.Release()
	byebye.Release()
}

func createBye(m *lum.Manager[bye], a, b int32) lum.Uid {
	uid, p := m.Create()
	p.A, p.B = a, b
	pfxlog.Logger().Infof("created %v", uid)
	return uid
}
