package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/mark3labs/oascompare/internal/compare"
	"github.com/mark3labs/oascompare/internal/logger"
	"github.com/mark3labs/oascompare/internal/session"
	"github.com/mark3labs/oascompare/internal/spec"
	"github.com/mark3labs/oascompare/internal/watch"
	"github.com/spf13/cobra"
)

var watchRunner = runWatch

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [files...]",
		Short: "Compare OpenAPI documents and re-render when they change",
		Long: "Compare the given OpenAPI JSON documents, then keep watching them. A file that is " +
			"rewritten is reloaded in place; a file that is deleted or no longer parses leaves the comparison.",
		Example: strings.TrimSpace(`  oascompare watch --expand all api-v1.json api-v2.json`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveCompareConfig(cmd, args)
			if err != nil {
				return err
			}
			ctx := logger.ContextWithLogger(cmd.Context(), newLogger(cfg, cmd.ErrOrStderr()))
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchRunner(ctx, cfg, cmd.OutOrStdout())
		},
	}
	addCompareFlags(cmd.Flags())
	return cmd
}

func runWatch(ctx context.Context, cfg *CompareConfig, out io.Writer) error {
	if len(cfg.Inputs) == 0 {
		return newUsageError("no input files: pass paths as arguments or set inputs in the config file")
	}
	log := logger.FromContext(ctx)

	// Watch events carry absolute paths, so the working set is keyed the same way.
	paths := make([]string, 0, len(cfg.Inputs))
	for _, p := range cfg.Inputs {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("watch: resolve %q: %w", p, err)
		}
		paths = append(paths, abs)
	}

	w, err := watch.New(paths, watch.WithLogger(log))
	if err != nil {
		return err
	}
	defer w.Close()

	redraw := func(res compare.Result) {
		if err := renderResult(out, cfg, res); err != nil {
			log.Error("render failed", "error", err)
		}
	}

	sess := newSession(ctx, cfg)
	sess.Ingest(ctx, paths)
	redraw(compare.Align(documentsInInputOrder(sess.Entries(), paths)))
	log.Info("watching for changes", "files", len(paths))

	err = w.Run(ctx, func(batch []watch.Change) {
		for _, c := range batch {
			switch c.Op {
			case watch.Reload:
				sess.Replace(ctx, c.Path)
			case watch.Drop:
				if sess.RemovePath(c.Path) > 0 {
					log.Info("File removed", "file", filepath.Base(c.Path))
				}
			}
		}
		redraw(compare.Align(documentsInInputOrder(sess.Entries(), paths)))
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// documentsInInputOrder returns the documents of entries ordered by the
// position of their path in inputs, so columns stay put across reloads.
func documentsInInputOrder(entries []session.Entry, inputs []string) []*spec.Document {
	pos := make(map[string]int, len(inputs))
	for i, p := range inputs {
		if _, seen := pos[p]; !seen {
			pos[p] = i
		}
	}
	sorted := make([]session.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, ok := pos[sorted[i].Path]
		if !ok {
			pi = len(inputs)
		}
		pj, ok := pos[sorted[j].Path]
		if !ok {
			pj = len(inputs)
		}
		return pi < pj
	})
	docs := make([]*spec.Document, len(sorted))
	for i, e := range sorted {
		docs[i] = e.Document
	}
	return docs
}
