package main

import (
	"github.com/spf13/cobra"
)

// Global flag values.
var (
	verbose bool
	quiet   bool
	noColor bool
)

// rootCmd is the base command for kpidash.
var rootCmd = &cobra.Command{
	Use:   "kpidash",
	Short: "Single-page KPI dashboard",
	Long: `kpidash serves a single-page KPI dashboard over a small compiled-in
data set: a bar chart, a category filter, metric cards and a monthly sales
trend. The same page can be printed to the terminal as text, JSON or YAML.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(versionCmd)
}

// logLevel resolves the effective level. The flags win over LOG_LEVEL.
func logLevel(configured string) string {
	switch {
	case verbose:
		return "debug"
	case quiet:
		return "error"
	default:
		return configured
	}
}
