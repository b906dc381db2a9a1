package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mark3labs/oascompare/internal/compare"
	"github.com/mark3labs/oascompare/internal/export"
	"github.com/mark3labs/oascompare/internal/logger"
	"github.com/mark3labs/oascompare/internal/notify"
	"github.com/mark3labs/oascompare/internal/render"
	"github.com/mark3labs/oascompare/internal/session"
	"github.com/mark3labs/oascompare/internal/spec"
	"github.com/spf13/cobra"
)

var (
	compareRunner = runCompare
	// now is swapped in tests to pin export file names.
	now = time.Now
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [files...]",
		Short: "Compare OpenAPI documents side by side",
		Long: "Load the given OpenAPI JSON documents and print a side-by-side comparison. " +
			"Files that fail to load are reported and skipped; the rest are still compared.",
		Example: strings.TrimSpace(`  oascompare compare petstore-v1.json petstore-v2.json
  oascompare compare --expand endpoints,schemas a.json b.json
  oascompare --config oascompare.yaml compare --format json --fail-on-diff`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveCompareConfig(cmd, args)
			if err != nil {
				return err
			}
			ctx := logger.ContextWithLogger(cmd.Context(), newLogger(cfg, cmd.ErrOrStderr()))
			return compareRunner(ctx, cfg, cmd.OutOrStdout())
		},
	}
	addCompareFlags(cmd.Flags())
	return cmd
}

func newLogger(cfg *CompareConfig, out io.Writer) logger.Logger {
	return logger.New(&logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Output: out,
		JSON:   cfg.LogJSON,
	})
}

func newSession(ctx context.Context, cfg *CompareConfig, opts ...session.Option) *session.Session {
	log := logger.FromContext(ctx)
	loader := spec.NewLoader(spec.WithMaxFileSize(cfg.MaxFileSize()))
	base := []session.Option{
		session.WithLogger(log),
		session.WithNotifier(notify.NewLogNotifier(log)),
		session.WithConcurrency(cfg.Concurrency),
	}
	return session.New(loader, append(base, opts...)...)
}

// loadDocuments ingests cfg.Inputs and returns the loaded documents in the
// order the files were given.
func loadDocuments(ctx context.Context, cfg *CompareConfig) ([]*spec.Document, error) {
	if len(cfg.Inputs) == 0 {
		return nil, newUsageError("no input files: pass paths as arguments or set inputs in the config file")
	}
	log := logger.FromContext(ctx)
	results := newSession(ctx, cfg).Ingest(ctx, cfg.Inputs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs := make([]*spec.Document, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		docs = append(docs, r.Document)
	}
	log.Debug("files settled", "submitted", len(results), "loaded", len(docs), "failed", failed)
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w (%d of %d files failed)", ErrNoDocuments, failed, len(results))
	}
	return docs, nil
}

func runCompare(ctx context.Context, cfg *CompareConfig, out io.Writer) error {
	docs, err := loadDocuments(ctx, cfg)
	if err != nil {
		return err
	}

	res := compare.Align(docs)
	if err := renderResult(out, cfg, res); err != nil {
		return err
	}

	if cfg.ExportDir != "" {
		if _, err := writeExport(ctx, cfg, docs); err != nil {
			return err
		}
	}

	if cfg.FailOnDiff && res.Summary.Differs() {
		return fmt.Errorf("%w: endpoints %d/%d, schemas %d/%d, security schemes %d/%d consistent",
			ErrDifferences,
			res.Summary.Endpoints.Consistent, res.Summary.Endpoints.Rows,
			res.Summary.Schemas.Consistent, res.Summary.Schemas.Rows,
			res.Summary.SecuritySchemes.Consistent, res.Summary.SecuritySchemes.Rows)
	}
	return nil
}

func renderResult(out io.Writer, cfg *CompareConfig, res compare.Result) error {
	if cfg.Format == "json" {
		return render.JSON(out, res)
	}
	g := render.NewGrid(out)
	g.Expanded = cfg.Sections()
	g.Width = cfg.Width
	return g.Render(res)
}

func writeExport(ctx context.Context, cfg *CompareConfig, docs []*spec.Document) (*export.Result, error) {
	log := logger.FromContext(ctx)
	ts := now()
	res, err := export.Write(export.Build(docs, ts), export.Options{
		Dir:    cfg.ExportDir,
		Now:    ts,
		Force:  cfg.Force,
		DryRun: cfg.DryRun,
	})
	if err != nil {
		return nil, err
	}
	if res.Written {
		log.Info("Comparison exported successfully", "path", res.Path, "files", len(docs), "bytes", res.Size)
	} else {
		log.Info("dry run: export not written", "path", res.Path, "bytes", res.Size)
	}
	return res, nil
}
