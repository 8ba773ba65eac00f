package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/internal/logger"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "memctl",
	Short: "Exercise and inspect memkit allocators",
	Long: `memctl drives the memkit allocators and ownership handles through
small scenarios and reports what happened to the underlying pages: how many
were committed as blocks were handed out, how many were returned as they came
back, and when payloads were destroyed.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log allocator activity to stderr")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging routes the library's debug logs to stderr when --verbose is set.
func setupLogging() {
	logger.Init(logger.Options{
		Enabled: verbose && !quiet,
		Output:  os.Stderr,
		JSON:    jsonOut,
		Level:   slog.LevelDebug,
	})
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON runs fn against a fresh JSON writer and prints the result.
func printJSON(fn func(w *jwriter.Writer)) error {
	w := jwriter.NewWriter()
	fn(&w)
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err := fmt.Fprintln(os.Stdout, string(w.Bytes()))
	return err
}
