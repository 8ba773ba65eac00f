package main

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/internal/vmem"
)

func init() {
	rootCmd.AddCommand(newPageSizeCmd())
}

func newPageSizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pagesize",
		Short: "Print the virtual memory page size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPageSize()
		},
	}
}

func runPageSize() error {
	ps := int(vmem.PageSize())
	if jsonOut {
		return printJSON(func(w *jwriter.Writer) {
			obj := w.Object()
			obj.Name("PageSize").Int(ps)
			obj.End()
		})
	}
	printInfo("%s %s\n", label("page size:"), formatBytes(ps))
	printVerbose("  %s bytes\n", formatCount(ps))
	return nil
}
