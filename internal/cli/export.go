package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/oascompare/internal/logger"
	"github.com/spf13/cobra"
)

var exportRunner = runExport

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [files...]",
		Short: "Write a JSON summary of OpenAPI documents",
		Long: "Load the given OpenAPI JSON documents and write openapi-comparison-<timestamp>.json " +
			"with the name, info block, endpoint count and schema count of each.",
		Example: strings.TrimSpace(`  oascompare export --export-dir ./reports a.json b.json
  oascompare export --dry-run a.json`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveCompareConfig(cmd, args)
			if err != nil {
				return err
			}
			if cfg.ExportDir == "" {
				cfg.ExportDir = "."
			}
			ctx := logger.ContextWithLogger(cmd.Context(), newLogger(cfg, cmd.ErrOrStderr()))
			return exportRunner(ctx, cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.String("export-dir", "", "Directory to write the summary into (defaults to the working directory)")
	flags.Int("concurrency", 0, "How many files to read in parallel (defaults to the number of CPUs)")
	flags.Int("max-size-mb", 0, "Per-file size cap in MiB (defaults to 10)")
	flags.Bool("dry-run", false, "Print the target path without writing it")
	flags.Bool("force", false, "Overwrite an existing export file")

	return cmd
}

func runExport(ctx context.Context, cfg *CompareConfig, out io.Writer) error {
	docs, err := loadDocuments(ctx, cfg)
	if err != nil {
		return err
	}
	res, err := writeExport(ctx, cfg, docs)
	if err != nil {
		return err
	}
	if cfg.DryRun {
		fmt.Fprintf(out, "Would write %s (%d bytes)\n", res.Path, res.Size)
		return nil
	}
	fmt.Fprintf(out, "Exported %d file(s) to %s\n", len(docs), res.Path)
	return nil
}
