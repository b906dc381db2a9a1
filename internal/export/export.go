// Package export writes a one-shot JSON summary of the compared documents.
package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/oascompare/internal/spec"
	"github.com/spf13/afero"
)

// FileSummary describes one document of the export.
type FileSummary struct {
	Name          string    `json:"name"`
	Info          spec.Info `json:"info"`
	EndpointCount int       `json:"endpointCount"`
	SchemaCount   int       `json:"schemaCount"`
}

// Summary is the exported artifact.
type Summary struct {
	Files     []FileSummary `json:"files"`
	Timestamp string        `json:"timestamp"`
}

// Build summarizes docs as of now.
func Build(docs []*spec.Document, now time.Time) Summary {
	s := Summary{
		Files:     make([]FileSummary, 0, len(docs)),
		Timestamp: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	for _, d := range docs {
		if d == nil {
			continue
		}
		s.Files = append(s.Files, FileSummary{
			Name:          d.Name,
			Info:          d.Info,
			EndpointCount: len(d.Endpoints),
			SchemaCount:   len(d.Schemas),
		})
	}
	return s
}

// FileName returns openapi-comparison-<unix millis>.json.
func FileName(now time.Time) string {
	return "openapi-comparison-" + strconv.FormatInt(now.UnixMilli(), 10) + ".json"
}

// Options controls how Write places the artifact.
type Options struct {
	Fs     afero.Fs // defaults to the OS filesystem
	Dir    string   // defaults to the working directory
	Now    time.Time
	Force  bool // overwrite an existing file
	DryRun bool // don't write, only plan
}

// Result reports the planned or written artifact.
type Result struct {
	Path    string
	Size    int
	Written bool
}

// Write serializes summary with two-space indentation and writes it atomically.
func Write(summary Summary, opts Options) (*Result, error) {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		dir = "."
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: marshal summary: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, FileName(now))
	res := &Result{Path: path, Size: len(data)}
	if opts.DryRun {
		return res, nil
	}

	if _, err := fs.Stat(path); err == nil && !opts.Force {
		return nil, fmt.Errorf("export: %q already exists (use --force to overwrite)", path)
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: output directory: %w", err)
	}
	// atomic write via temp file + rename
	tmp := path + ".tmp-" + now.Format("20060102150405")
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("export: write temp file: %w", err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return nil, fmt.Errorf("export: rename %s: %w", filepath.Base(path), err)
	}
	res.Written = true
	return res, nil
}
