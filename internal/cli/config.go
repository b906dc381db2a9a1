package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mark3labs/oascompare/internal/logger"
	"github.com/mark3labs/oascompare/internal/render"
	"github.com/mark3labs/oascompare/internal/spec"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// CompareConfig captures all inputs that influence the compare, watch and
// export commands after merging defaults, config file values, and CLI overrides.
type CompareConfig struct {
	Inputs      []string
	Format      string
	Expand      []string
	ExpandAll   bool
	ExportDir   string
	FailOnDiff  bool
	Concurrency int
	MaxSizeMB   int
	Width       int
	ConfigPath  string
	DryRun      bool
	Force       bool
	Verbose     bool
	LogLevel    string
	LogJSON     bool
}

func defaultCompareConfig() CompareConfig {
	return CompareConfig{
		Format:    "table",
		MaxSizeMB: int(spec.DefaultMaxFileSize / (1024 * 1024)),
		LogLevel:  string(logger.InfoLevel),
	}
}

// addCompareFlags registers the flags shared by compare, watch and export.
func addCompareFlags(flags *pflag.FlagSet) {
	flags.String("format", "", "Output format (table|json); defaults to table")
	flags.StringSlice("expand", nil, "Sections to expand (info,servers,security,endpoints,schemas,all,none)")
	flags.Bool("expand-all", false, "Expand every section of the comparison grid")
	flags.String("export-dir", "", "Also write an openapi-comparison-<timestamp>.json summary into this directory")
	flags.Bool("fail-on-diff", false, "Exit with status 1 when an endpoint, schema or security scheme is missing from some document")
	flags.Int("concurrency", 0, "How many files to read in parallel (defaults to the number of CPUs)")
	flags.Int("max-size-mb", 0, "Per-file size cap in MiB (defaults to 10)")
	flags.Int("width", 0, "Maximum table width in columns (0 = fit content)")
	flags.Bool("dry-run", false, "Preview the export path without writing it")
	flags.Bool("force", false, "Overwrite an existing export file")
}

func resolveCompareConfig(cmd *cobra.Command, args []string) (*CompareConfig, error) {
	cfg := defaultCompareConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyCompareConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyCompareFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}
	if len(args) > 0 {
		cfg.Inputs = args
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyCompareFlagOverrides(flags *pflag.FlagSet, cfg *CompareConfig) error {
	if flags.Changed("format") {
		value, err := flags.GetString("format")
		if err != nil {
			return err
		}
		cfg.Format = value
	}
	if flags.Changed("expand") {
		value, err := flags.GetStringSlice("expand")
		if err != nil {
			return err
		}
		cfg.Expand = value
	}
	if flags.Changed("expand-all") {
		value, err := flags.GetBool("expand-all")
		if err != nil {
			return err
		}
		cfg.ExpandAll = value
	}
	if flags.Changed("export-dir") {
		value, err := flags.GetString("export-dir")
		if err != nil {
			return err
		}
		cfg.ExportDir = value
	}
	if flags.Changed("fail-on-diff") {
		value, err := flags.GetBool("fail-on-diff")
		if err != nil {
			return err
		}
		cfg.FailOnDiff = value
	}
	if flags.Changed("concurrency") {
		value, err := flags.GetInt("concurrency")
		if err != nil {
			return err
		}
		cfg.Concurrency = value
	}
	if flags.Changed("max-size-mb") {
		value, err := flags.GetInt("max-size-mb")
		if err != nil {
			return err
		}
		cfg.MaxSizeMB = value
	}
	if flags.Changed("width") {
		value, err := flags.GetInt("width")
		if err != nil {
			return err
		}
		cfg.Width = value
	}
	if flags.Changed("dry-run") {
		value, err := flags.GetBool("dry-run")
		if err != nil {
			return err
		}
		cfg.DryRun = value
	}
	if flags.Changed("force") {
		value, err := flags.GetBool("force")
		if err != nil {
			return err
		}
		cfg.Force = value
	}
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = value
	}
	if flags.Changed("log-level") {
		value, err := flags.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.LogLevel = value
	}
	if flags.Changed("log-json") {
		value, err := flags.GetBool("log-json")
		if err != nil {
			return err
		}
		cfg.LogJSON = value
	}
	return nil
}

func (c *CompareConfig) normalize() {
	c.Inputs = sanitizeList(c.Inputs)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.Expand = sanitizeList(c.Expand)
	c.ExportDir = strings.TrimSpace(c.ExportDir)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.Verbose {
		c.LogLevel = string(logger.DebugLevel)
	}
}

func (c *CompareConfig) validate() error {
	switch c.Format {
	case "", "table", "json":
		if c.Format == "" {
			c.Format = "table"
		}
	default:
		return newUsageError(fmt.Sprintf("unsupported --format %q (allowed: table, json)", c.Format))
	}
	switch logger.LogLevel(c.LogLevel) {
	case logger.DebugLevel, logger.InfoLevel, logger.WarnLevel, logger.ErrorLevel:
	case "":
		c.LogLevel = string(logger.InfoLevel)
	default:
		return newUsageError(fmt.Sprintf("unsupported --log-level %q (allowed: debug, info, warn, error)", c.LogLevel))
	}
	if _, err := render.ParseSections(c.Expand); err != nil {
		return newUsageError(fmt.Sprintf("--expand: %v", err))
	}
	if c.Concurrency < 0 {
		return newUsageError("--concurrency must not be negative")
	}
	if c.MaxSizeMB < 0 {
		return newUsageError("--max-size-mb must not be negative")
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = int(spec.DefaultMaxFileSize / (1024 * 1024))
	}
	if c.Width < 0 {
		return newUsageError("--width must not be negative")
	}
	return nil
}

// Sections returns the expand state selected by the config.
func (c *CompareConfig) Sections() render.Sections {
	if c.ExpandAll {
		return render.ExpandAll()
	}
	if len(c.Expand) == 0 {
		return render.DefaultSections()
	}
	s, err := render.ParseSections(c.Expand)
	if err != nil {
		return render.DefaultSections()
	}
	return s
}

// MaxFileSize returns the per-file cap in bytes.
func (c *CompareConfig) MaxFileSize() int64 {
	return int64(c.MaxSizeMB) * 1024 * 1024
}

func sanitizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func applyCompareConfigFromFile(cfg *CompareConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	for key, value := range raw {
		var err error
		switch normalizeKey(key) {
		case "inputs", "input", "files":
			cfg.Inputs, err = valueAsStringSlice(value)
		case "format":
			cfg.Format, err = valueAsString(value)
		case "expand":
			cfg.Expand, err = valueAsStringSlice(value)
		case "expandall":
			cfg.ExpandAll, err = valueAsBool(value)
		case "exportdir":
			cfg.ExportDir, err = valueAsString(value)
		case "failondiff":
			cfg.FailOnDiff, err = valueAsBool(value)
		case "concurrency":
			cfg.Concurrency, err = valueAsInt(value)
		case "maxsizemb":
			cfg.MaxSizeMB, err = valueAsInt(value)
		case "width":
			cfg.Width, err = valueAsInt(value)
		case "dryrun":
			cfg.DryRun, err = valueAsBool(value)
		case "force":
			cfg.Force, err = valueAsBool(value)
		case "verbose":
			cfg.Verbose, err = valueAsBool(value)
		case "loglevel":
			cfg.LogLevel, err = valueAsString(value)
		case "logjson":
			cfg.LogJSON, err = valueAsBool(value)
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
		if err != nil {
			return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n", "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func valueAsInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("invalid integer value %q", val)
		}
		return n, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
