package main

import (
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/handles"
)

var handlesCount int

func init() {
	cmd := newHandlesCmd()
	cmd.Flags().IntVar(&handlesCount, "count", 8, "Handles to pack into the buffer")
	rootCmd.AddCommand(cmd)
}

func newHandlesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "handles",
		Short: "Pack mixed handles into one buffer and tear them down",
		Long: `The handles command alternates shared and strong handles of two
payload types in a single handle buffer, adds a weak handle for every strong
one, then resets the buffer and prints the order payloads were destroyed in.

Example:
  memctl handles
  memctl handles --count 100 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHandles()
		},
	}
}

// metric is a second payload type so the buffer holds more than one kind.
type metric struct {
	id  int64
	sum float64
}

func (m *metric) Destroy() { destroyed = append(destroyed, m.id) }

func runHandles() error {
	if handlesCount < 0 {
		return fmt.Errorf("count must not be negative, got %d", handlesCount)
	}
	destroyed = nil

	fb, err := alloc.NewFixedBlock(&alloc.CountTracking{}, 64, alloc.WithMaxElements(handlesCount+1))
	if err != nil {
		return fmt.Errorf("create allocator: %w", err)
	}
	defer fb.Close()

	h, err := handles.New(handles.WithMaxSlots(2 * max(handlesCount, 1)))
	if err != nil {
		return fmt.Errorf("create handle buffer: %w", err)
	}
	defer h.Close()

	for i := range handlesCount {
		id := int64(i)
		if i%2 == 0 {
			if _, err := handles.Shared(h, fb, payload{id: id}); err != nil {
				return fmt.Errorf("shared %d: %w", i, err)
			}
			continue
		}
		st, err := handles.Strong(h, fb, metric{id: id})
		if err != nil {
			return fmt.Errorf("strong %d: %w", i, err)
		}
		if _, err := handles.Weak(h, st); err != nil {
			return fmt.Errorf("weak %d: %w", i, err)
		}
	}
	slots := h.Len()
	before := fb.Tracker().AllocationDifference()

	h.Reset()
	after := fb.Stats()

	if jsonOut {
		return printJSON(func(w *jwriter.Writer) {
			obj := w.Object()
			defer obj.End()
			obj.Name("Slots").Int(slots)
			obj.Name("BlocksBefore").Int(int(before))
			arr := obj.Name("DestroyOrder").Array()
			for _, id := range destroyed {
				arr.Int(int(id))
			}
			arr.End()
			after.PrintDetailedMap(obj.Name("Allocator"))
		})
	}

	printInfo("%s %s slots, %s control blocks\n", label("handles:"), formatCount(slots), formatCount(int(before)))
	printInfo("%s %v\n", label("destroy order:"), destroyed)
	printInfo("%s allocation difference %d, committed %s\n",
		label("after reset:"), after.AllocationDifference, formatCount(after.CommittedPages))
	return nil
}
