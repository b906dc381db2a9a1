package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petsJSON = `{
  "openapi": "3.0.3",
  "info": {"title": "Pets", "version": "1.0.0"},
  "paths": {
    "/pets": {"get": {"summary": "List pets"}},
    "/zoo": {"post": {}}
  },
  "components": {"schemas": {"Pet": {"type": "object", "required": ["id"]}}}
}`

const zooJSON = `{
  "openapi": "3.0.3",
  "info": {"title": "Zoo", "version": "2.0.0"},
  "paths": {
    "/apple": {"get": {"operationId": "getApple"}},
    "/zoo": {"post": {"summary": "Create zoo"}}
  }
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func captureCompareConfig(t *testing.T) **CompareConfig {
	t.Helper()
	var captured *CompareConfig
	compareRunner = func(ctx context.Context, cfg *CompareConfig, out io.Writer) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { compareRunner = runCompare })
	return &captured
}

func pinNow(t *testing.T, ts time.Time) {
	t.Helper()
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = time.Now })
}

func TestCompareConfigFromFlags(t *testing.T) {
	captured := captureCompareConfig(t)

	_, _, err := execute(t,
		"--verbose",
		"compare",
		"--format", "JSON",
		"--expand", "endpoints,schemas",
		"--export-dir", "./reports",
		"--fail-on-diff",
		"--concurrency", "3",
		"--max-size-mb", "2",
		"--width", "120",
		"--dry-run",
		"--force",
		"a.json", "b.json",
	)
	require.NoError(t, err)
	cfg := *captured
	require.NotNil(t, cfg)

	assert.Equal(t, []string{"a.json", "b.json"}, cfg.Inputs)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, []string{"endpoints", "schemas"}, cfg.Expand)
	assert.Equal(t, "./reports", cfg.ExportDir)
	assert.True(t, cfg.FailOnDiff)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, int64(2*1024*1024), cfg.MaxFileSize())
	assert.Equal(t, 120, cfg.Width)
	assert.True(t, cfg.DryRun)
	assert.True(t, cfg.Force)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestCompareConfig_FileThenFlags(t *testing.T) {
	captured := captureCompareConfig(t)
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "oascompare.yaml", `
inputs: [one.json, two.json]
format: json
expand: servers
fail-on-diff: true
max_size_mb: 5
log-level: warn
`)

	_, _, err := execute(t, "--config", cfgPath, "compare", "--format", "table")
	require.NoError(t, err)
	cfg := *captured
	require.NotNil(t, cfg)

	assert.Equal(t, []string{"one.json", "two.json"}, cfg.Inputs)
	assert.Equal(t, "table", cfg.Format, "flags override the config file")
	assert.Equal(t, []string{"servers"}, cfg.Expand)
	assert.True(t, cfg.FailOnDiff)
	assert.Equal(t, 5, cfg.MaxSizeMB)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, cfgPath, cfg.ConfigPath)

	_, _, err = execute(t, "--config", cfgPath, "compare", "x.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"x.json"}, (*captured).Inputs, "arguments replace configured inputs")
}

func TestCompareConfig_Rejections(t *testing.T) {
	captureCompareConfig(t)
	dir := t.TempDir()
	unknown := writeFile(t, dir, "bad.yaml", "lang: go\n")

	cases := map[string][]string{
		"unknown config key": {"--config", unknown, "compare", "a.json"},
		"missing config":     {"--config", filepath.Join(dir, "missing.yaml"), "compare"},
		"bad format":         {"compare", "--format", "xml", "a.json"},
		"bad section":        {"compare", "--expand", "paths,bogus", "a.json"},
		"bad log level":      {"--log-level", "loud", "compare", "a.json"},
		"negative workers":   {"compare", "--concurrency", "-1", "a.json"},
	}
	for name, args := range cases {
		_, _, err := execute(t, args...)
		assert.ErrorIs(t, err, ErrUsage, name)
		assert.Equal(t, 2, ExitCode(err), name)
	}
}

func TestCompare_EndToEnd(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 123_000_000, time.UTC)
	pinNow(t, ts)
	dir := t.TempDir()
	reports := filepath.Join(dir, "reports")
	pets := writeFile(t, dir, "pets.json", petsJSON)
	zoo := writeFile(t, dir, "zoo.json", zooJSON)
	yml := writeFile(t, dir, "spec.yaml", "openapi: 3.0.0\n")
	txt := writeFile(t, dir, "notes.txt", "{}")
	broken := writeFile(t, dir, "broken.json", `{"openapi": `)

	stdout, stderr, err := execute(t, "compare", "--expand-all", "--export-dir", reports,
		pets, yml, zoo, txt, broken)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Uploaded Files (2)")
	assert.Contains(t, stdout, "Side-by-Side Comparison")
	apple := strings.Index(stdout, "GET /apple")
	petsRow := strings.Index(stdout, "GET /pets")
	zooRow := strings.Index(stdout, "POST /zoo")
	require.True(t, apple > 0 && petsRow > 0 && zooRow > 0, stdout)
	assert.Less(t, apple, petsRow)
	assert.Less(t, petsRow, zooRow)
	assert.Contains(t, stdout, "endpoints 1/3 consistent")

	assert.Contains(t, stderr, "Successfully parsed pets.json")
	assert.Contains(t, stderr, "YAML parsing is not supported for spec.yaml. Please use JSON files.")
	assert.Contains(t, stderr, "notes.txt is not a valid OpenAPI file. Please upload JSON or YAML files.")
	assert.Contains(t, stderr, "Failed to parse broken.json")

	data, err := os.ReadFile(filepath.Join(reports, "openapi-comparison-1714979289123.json"))
	require.NoError(t, err)
	var summary struct {
		Files []struct {
			Name          string         `json:"name"`
			Info          map[string]any `json:"info"`
			EndpointCount int            `json:"endpointCount"`
			SchemaCount   int            `json:"schemaCount"`
		} `json:"files"`
		Timestamp string `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(data, &summary))
	require.Len(t, summary.Files, 2)
	assert.Equal(t, "pets.json", summary.Files[0].Name)
	assert.Equal(t, "Pets", summary.Files[0].Info["title"])
	assert.Equal(t, 2, summary.Files[0].EndpointCount)
	assert.Equal(t, 1, summary.Files[0].SchemaCount)
	assert.Equal(t, "zoo.json", summary.Files[1].Name)
	assert.Equal(t, "2024-05-06T07:08:09.123Z", summary.Timestamp)
}

func TestCompare_JSONFormat(t *testing.T) {
	dir := t.TempDir()
	pets := writeFile(t, dir, "pets.json", petsJSON)
	zoo := writeFile(t, dir, "zoo.json", zooJSON)

	stdout, _, err := execute(t, "compare", "--format", "json", pets, zoo)
	require.NoError(t, err)

	var got struct {
		Documents []struct {
			Name string `json:"name"`
		} `json:"documents"`
		Endpoints []struct {
			Key        string `json:"key"`
			AllPresent bool   `json:"allPresent"`
		} `json:"endpoints"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got), stdout)
	require.Len(t, got.Documents, 2)
	assert.Equal(t, "pets.json", got.Documents[0].Name)
	require.Len(t, got.Endpoints, 3)
	assert.Equal(t, "GET /apple", got.Endpoints[0].Key)
	assert.Equal(t, "GET /pets", got.Endpoints[1].Key)
	assert.Equal(t, "POST /zoo", got.Endpoints[2].Key)
	assert.True(t, got.Endpoints[2].AllPresent)
}

func TestCompare_FailOnDiff(t *testing.T) {
	dir := t.TempDir()
	pets := writeFile(t, dir, "pets.json", petsJSON)
	zoo := writeFile(t, dir, "zoo.json", zooJSON)

	_, _, err := execute(t, "compare", "--fail-on-diff", pets, zoo)
	require.ErrorIs(t, err, ErrDifferences)
	assert.Equal(t, 1, ExitCode(err))

	_, _, err = execute(t, "compare", "--fail-on-diff", pets, pets)
	assert.NoError(t, err, "identical documents do not differ")
}

func TestCompare_NothingLoaded(t *testing.T) {
	dir := t.TempDir()
	yml := writeFile(t, dir, "spec.yml", "openapi: 3.0.0\n")

	_, stderr, err := execute(t, "compare", yml)
	require.ErrorIs(t, err, ErrNoDocuments)
	assert.Contains(t, stderr, "YAML parsing is not supported for spec.yml")

	_, _, err = execute(t, "compare")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestCompare_FileTooLarge(t *testing.T) {
	dir := t.TempDir()
	big := writeFile(t, dir, "big.json", `{"openapi": "3.0.0", "pad": "`+strings.Repeat("x", 1024*1024)+`"}`)
	small := writeFile(t, dir, "pets.json", petsJSON)

	stdout, stderr, err := execute(t, "compare", "--max-size-mb", "1", big, small)
	require.NoError(t, err)
	assert.Contains(t, stderr, "big.json is too large")
	assert.Contains(t, stdout, "Uploaded Files (1)")
	assert.Contains(t, stdout, "Upload another OpenAPI file to start comparing")
}

func TestExport_WritesSummary(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 123_000_000, time.UTC)
	pinNow(t, ts)
	dir := t.TempDir()
	pets := writeFile(t, dir, "pets.json", petsJSON)
	out := filepath.Join(dir, "out")
	target := filepath.Join(out, "openapi-comparison-1714979289123.json")

	stdout, _, err := execute(t, "export", "--export-dir", out, "--dry-run", pets)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Would write "+target)
	assert.NoFileExists(t, target)

	stdout, _, err = execute(t, "export", "--export-dir", out, pets)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Exported 1 file(s) to "+target)
	assert.FileExists(t, target)

	_, _, err = execute(t, "export", "--export-dir", out, pets)
	assert.ErrorContains(t, err, "already exists")

	_, _, err = execute(t, "export", "--export-dir", out, "--force", pets)
	assert.NoError(t, err)
}
