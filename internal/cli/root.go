package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Execute runs the oascompare CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oascompare",
		Short: "Compare OpenAPI documents side by side",
		Long: "oascompare loads several OpenAPI JSON documents, normalizes them, and lines up their " +
			"endpoints, schemas and security schemes so differences are easy to spot.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Cobra flag errors (like unknown flags) become usage errors carrying the help text.
	cmd.SetFlagErrorFunc(flagError)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error); defaults to info")
	cmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")

	for _, sub := range []*cobra.Command{
		newCompareCmd(),
		newWatchCmd(),
		newExportCmd(),
		newInitCmd(),
	} {
		sub.SetFlagErrorFunc(flagError)
		cmd.AddCommand(sub)
	}

	return cmd
}

func flagError(c *cobra.Command, err error) error {
	return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
}
