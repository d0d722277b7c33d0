package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/ripple/graph"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const (
	itersKey   = "iters"
	profileKey = "profile"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Benchmark ripple graphs",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Iterations per configuration",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to this file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "propagate",
				Usage:  "Measure write-to-listener latency over computed chains",
				Action: runPropagate,
			},
			{
				Name:   "collections",
				Usage:  "Measure collection splices and derived views, with stream checksums",
				Action: runCollections,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func startProfile(cmd *cli.Command) func() {
	path := cmd.String(profileKey)
	if path == "" {
		return func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		log.Fatal(err)
	}
	pprof.StartCPUProfile(f)
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}
}

var (
	ww = []int{1, 10, 100}
	hh = []int{1, 10, 100}
)

func runPropagate(ctx context.Context, cmd *cli.Command) error {
	stop := startProfile(cmd)
	defer stop()

	iters := int(cmd.Uint(itersKey))
	log.Printf("propagate: %d iterations per shape", iters)

	tbl := table.NewWriter()
	tbl.SetTitle("Ripple Propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	addOne := func(inputs []any) (any, error) {
		n, _ := inputs[0].(int)
		return n + 1, nil
	}

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			g := graph.New()
			src := graph.NewSource(g, 1)
			observed := 0
			for i := 0; i < w; i++ {
				var last graph.Node = src
				for j := 0; j < h; j++ {
					last = graph.NewComputed(g, addOne, last)
				}
				last.OnChange(func(graph.Change) {
					observed++
				})
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				cur, _ := src.Value()
				src.Set(cur.(int) + 1)
				tach.AddTime(time.Since(start))
			}
			if observed != w*iters {
				return fmt.Errorf("propagate %dx%d: saw %d changes, want %d", w, h, observed, w*iters)
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	tbl.Render()
	return nil
}

// streamHasher folds every observed change into one checksum so two runs can
// be compared for identical event streams, not just identical timings.
type streamHasher struct {
	h      *xxhash.Digest
	events int64
}

func newStreamHasher() *streamHasher {
	return &streamHasher{h: xxhash.New()}
}

func (s *streamHasher) observe(ch graph.Change) {
	s.events++
	var buf [8]byte
	switch ch := ch.(type) {
	case graph.ValueChange:
		s.h.WriteString("v")
		s.h.WriteString(fmt.Sprint(ch.Old))
		s.h.WriteString(fmt.Sprint(ch.New))
	case graph.SpliceChange:
		s.h.WriteString("s")
		binary.LittleEndian.PutUint64(buf[:], uint64(ch.Start))
		s.h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(ch.Inserted))
		s.h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(ch.Deleted))
		s.h.Write(buf[:])
	case graph.PropertyChange:
		s.h.WriteString("p")
		for _, k := range ch.Path {
			s.h.WriteString(fmt.Sprint(k))
		}
		s.observe(ch.Base)
	}
}

func (s *streamHasher) sum() string {
	return fmt.Sprintf("%016x", s.h.Sum64())
}

type collectionsConfig struct {
	name   string
	size   int
	pinned bool
	derive string
}

func runCollections(ctx context.Context, cmd *cli.Command) error {
	stop := startProfile(cmd)
	defer stop()

	iters := int(cmd.Uint(itersKey))
	log.Print("collections: starting, please wait...")
	defer log.Print("collections: finished")

	cfgs := []collectionsConfig{
		{name: "pinned splices", size: 1_000, pinned: true, derive: "none"},
		{name: "unpinned splices", size: 1_000, pinned: false, derive: "none"},
		{name: "transform view", size: 1_000, pinned: false, derive: "transform"},
		{name: "filter view", size: 1_000, pinned: false, derive: "filter"},
		{name: "sort view", size: 1_000, pinned: false, derive: "sort"},
	}

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{"test", "size", "pinned", "iters", "time", "events", "events/ms", "checksum"})

	for _, cfg := range cfgs {
		g := graph.New()
		items := make([]any, cfg.size)
		for i := range items {
			items[i] = i
		}
		col := graph.NewCollection(g, items, cfg.pinned)

		hasher := newStreamHasher()
		switch cfg.derive {
		case "transform":
			v := graph.NewTransformView(g, col, func(x any) any {
				n, _ := x.(int)
				return n * 2
			})
			v.OnChange(hasher.observe)
		case "filter":
			v := graph.NewFilterView(g, col, func(x any) bool {
				n, _ := x.(int)
				return n%2 == 0
			})
			v.OnChange(hasher.observe)
		case "sort":
			v := graph.NewSortView(g, col, func(a, b any) bool {
				return a.(int) < b.(int)
			})
			v.OnChange(hasher.observe)
		default:
			col.OnChange(hasher.observe)
		}

		start := time.Now()
		for i := 0; i < iters; i++ {
			at := i % cfg.size
			if err := col.InsertRange(at, []any{i}); err != nil {
				return err
			}
			if err := col.Set(at, i*3); err != nil {
				return err
			}
			if err := col.RemoveRange(at, at+1); err != nil {
				return err
			}
		}
		elapsed := time.Since(start)

		rate := float64(hasher.events) / (float64(elapsed) / float64(time.Millisecond))
		tbl.Append([]string{
			cfg.name,
			humanize.Comma(int64(cfg.size)),
			fmt.Sprint(cfg.pinned),
			humanize.Comma(int64(iters)),
			fmt.Sprint(elapsed),
			humanize.Comma(hasher.events),
			humanize.Comma(int64(rate)),
			hasher.sum(),
		})
	}

	tbl.Render()
	return nil
}
