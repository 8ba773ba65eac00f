package main

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/mem/alloc"
)

var (
	fbaBlockSize   int
	fbaPages       int
	fbaGranularity int
	fbaTracking    string
)

func init() {
	cmd := newFBACmd()
	cmd.Flags().IntVar(&fbaBlockSize, "block-size", 64, "Block size in bytes")
	cmd.Flags().IntVar(&fbaPages, "pages", 4, "Pages to reserve")
	cmd.Flags().IntVar(&fbaGranularity, "granularity", 1, "Pages committed per growth step")
	cmd.Flags().StringVar(&fbaTracking, "tracking", "count", "Tracking policy: none, count, double-free")
	rootCmd.AddCommand(cmd)
}

func newFBACmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fba",
		Short: "Fill and drain a fixed-block allocator",
		Long: `The fba command allocates blocks from a fresh fixed-block allocator
until its reservation is exhausted, then frees them in reverse order. Each time
the number of committed pages changes, a line is printed.

Example:
  memctl fba
  memctl fba --block-size 128 --pages 8 --granularity 2
  memctl fba --tracking double-free --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFBA()
		},
	}
}

// commitStep records the committed page count after an operation.
type commitStep struct {
	Op        string
	Live      int
	Committed int
}

type fbaResult struct {
	Steps    []commitStep
	Filled   alloc.Stats
	Drained  alloc.Stats
	Reserved int
}

func runFBA() error {
	if fbaBlockSize <= 0 {
		return fmt.Errorf("block size must be positive, got %d", fbaBlockSize)
	}
	opts := []alloc.Option{alloc.WithPages(fbaPages), alloc.WithGranularity(fbaGranularity)}
	bs := uintptr(fbaBlockSize)

	var (
		res fbaResult
		err error
	)
	switch fbaTracking {
	case "none":
		res, err = fillAndDrain(&alloc.NoTracking{}, bs, opts)
	case "count":
		res, err = fillAndDrain(&alloc.CountTracking{}, bs, opts)
	case "double-free":
		res, err = fillAndDrain(&alloc.DoubleFreeTracking{}, bs, opts)
	default:
		return fmt.Errorf("unknown tracking policy %q", fbaTracking)
	}
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(func(w *jwriter.Writer) { res.writeJSON(w) })
	}
	printFBA(res)
	return nil
}

func fillAndDrain[T alloc.Tracker](tracker T, blockSize uintptr, opts []alloc.Option) (fbaResult, error) {
	fb, err := alloc.NewFixedBlock(tracker, blockSize, opts...)
	if err != nil {
		return fbaResult{}, fmt.Errorf("create allocator: %w", err)
	}
	defer fb.Close()

	res := fbaResult{Reserved: fb.Stats().ReservedPages}
	committed := fb.Stats().CommittedPages
	res.Steps = append(res.Steps, commitStep{Op: "start", Committed: committed})

	record := func(op string, live int) {
		if c := fb.Stats().CommittedPages; c != committed {
			committed = c
			res.Steps = append(res.Steps, commitStep{Op: op, Live: live, Committed: c})
		}
	}

	var blocks []unsafe.Pointer
	for {
		p, err := fb.Alloc()
		if errors.Is(err, alloc.ErrNoSpace) {
			break
		}
		if err != nil {
			return fbaResult{}, fmt.Errorf("alloc block %d: %w", len(blocks), err)
		}
		blocks = append(blocks, p)
		record("alloc", len(blocks))
	}
	res.Filled = fb.Stats()

	for i := len(blocks) - 1; i >= 0; i-- {
		if err := fb.Free(blocks[i]); err != nil {
			return fbaResult{}, fmt.Errorf("free block %d: %w", i, err)
		}
		record("free", i)
	}
	res.Drained = fb.Stats()
	return res, nil
}

func printFBA(res fbaResult) {
	printInfo("%s %s blocks of %s (stride %s), %s pages reserved\n",
		label("fixed-block:"),
		formatCount(res.Filled.LiveBlocks),
		formatBytes(int(res.Filled.BlockSize)),
		formatBytes(int(res.Filled.Stride)),
		formatCount(res.Reserved))
	for _, s := range res.Steps {
		printInfo("  %-5s live=%-6s %s %d/%d\n",
			s.Op, formatCount(s.Live), pageBar(s.Committed, res.Reserved), s.Committed, res.Reserved)
	}
	printInfo("%s committed %d -> %d pages\n", label("drained:"), res.Filled.CommittedPages, res.Drained.CommittedPages)
	switch res.Drained.Tracking {
	case "count":
		printInfo("  allocation difference: %d\n", res.Drained.AllocationDifference)
	case "double-free":
		printInfo("  double deletes: %d, multiple deletes: %d\n",
			res.Drained.DoubleDeleteCount, res.Drained.MultipleDeleteCount)
	}
	printVerbose("  cursor %s, peak live %s\n",
		formatCount(int(res.Drained.Cursor)), formatCount(res.Filled.LiveBlocks))
}

func (r fbaResult) writeJSON(w *jwriter.Writer) {
	obj := w.Object()
	defer obj.End()

	arr := obj.Name("Steps").Array()
	for _, s := range r.Steps {
		step := arr.Object()
		step.Name("Op").String(s.Op)
		step.Name("Live").Int(s.Live)
		step.Name("Committed").Int(s.Committed)
		step.End()
	}
	arr.End()

	r.Filled.PrintDetailedMap(obj.Name("Filled"))
	r.Drained.PrintDetailedMap(obj.Name("Drained"))
}
