package main

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/spf13/cobra"
)

// Set at link time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func init() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate("memctl {{.Version}}\n")
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion()
		},
	}
}

func runVersion() error {
	if jsonOut {
		return printJSON(func(w *jwriter.Writer) {
			obj := w.Object()
			obj.Name("Version").String(version)
			obj.Name("Commit").String(commit)
			obj.Name("Built").String(date)
			obj.End()
		})
	}
	printInfo("%s %s (commit %s, built %s)\n", label("memctl"), version, commit, date)
	return nil
}
