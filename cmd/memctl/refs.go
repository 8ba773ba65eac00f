package main

import (
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/ptr"
)

var refsClones int

func init() {
	cmd := newRefsCmd()
	cmd.Flags().IntVar(&refsClones, "clones", 3, "Extra shared handles to take")
	rootCmd.AddCommand(cmd)
}

func newRefsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refs",
		Short: "Walk shared, strong and weak handles through their lifecycle",
		Long: `The refs command creates a shared handle and a strong/weak pair in a
double-free tracking fixed-block allocator, releases them, and reports the
reference counts and the moment each payload is destroyed.

Example:
  memctl refs
  memctl refs --clones 10 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefs()
		},
	}
}

// destroyed collects payload ids in teardown order.
var destroyed []int64

type payload struct {
	id    int64
	value float64
}

func (p *payload) Destroy() { destroyed = append(destroyed, p.id) }

type refEvent struct {
	Step      string
	Strong    uint
	Weak      uint
	Destroyed int
	Live      int
}

func runRefs() error {
	if refsClones < 0 {
		return fmt.Errorf("clones must not be negative, got %d", refsClones)
	}
	destroyed = nil

	fb, err := alloc.NewFixedBlock(&alloc.DoubleFreeTracking{}, 64)
	if err != nil {
		return fmt.Errorf("create allocator: %w", err)
	}
	defer fb.Close()

	var events []refEvent
	note := func(step string, strong, weak uint) {
		events = append(events, refEvent{
			Step:      step,
			Strong:    strong,
			Weak:      weak,
			Destroyed: len(destroyed),
			Live:      fb.Stats().LiveBlocks,
		})
	}

	sp, err := ptr.MakeShared(fb, payload{id: 1, value: 1.5})
	if err != nil {
		return fmt.Errorf("make shared: %w", err)
	}
	note("shared: make", sp.UseCount(), 0)
	clones := make([]ptr.SharedPtr[payload], refsClones)
	for i := range clones {
		clones[i] = sp.Clone()
	}
	note("shared: clone", sp.UseCount(), 0)
	for i := range clones {
		clones[i].Release()
	}
	note("shared: release clones", sp.UseCount(), 0)
	sp.Release()
	note("shared: release last", 0, 0)

	st, err := ptr.MakeStrong(fb, payload{id: 2, value: 2.5})
	if err != nil {
		return fmt.Errorf("make strong: %w", err)
	}
	wk := st.Weak()
	note("strong: make + weak", st.UseCount(), st.WeakCount())
	locked := wk.Lock()
	note("weak: lock", locked.UseCount(), st.WeakCount())
	locked.Release()
	st.Release()
	note("strong: release all", wk.UseCount(), 1)
	wk.Release()
	note("weak: release", 0, 0)

	stats := fb.Stats()
	if jsonOut {
		return printJSON(func(w *jwriter.Writer) {
			obj := w.Object()
			defer obj.End()
			arr := obj.Name("Events").Array()
			for _, e := range events {
				o := arr.Object()
				o.Name("Step").String(e.Step)
				o.Name("Strong").Int(int(e.Strong))
				o.Name("Weak").Int(int(e.Weak))
				o.Name("Destroyed").Int(e.Destroyed)
				o.Name("Live").Int(e.Live)
				o.End()
			}
			arr.End()
			stats.PrintDetailedMap(obj.Name("Allocator"))
		})
	}

	printInfo("%s\n", label("reference lifecycle:"))
	for _, e := range events {
		printInfo("  %-24s strong=%d weak=%d destroyed=%d live=%d\n",
			e.Step, e.Strong, e.Weak, e.Destroyed, e.Live)
	}
	printInfo("%s %v\n", label("destroy order:"), destroyed)
	printVerbose("  double deletes: %d\n", stats.DoubleDeleteCount)
	return nil
}
