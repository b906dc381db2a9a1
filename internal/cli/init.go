package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const defaultConfigName = "oascompare.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample oascompare configuration file",
		Long:  "Scaffold a commented oascompare configuration file that documents available options.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			return initRunner(cmd.Context(), &InitConfig{OutputPath: out, Force: force}, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("out", defaultConfigName, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(_ context.Context, cfg *InitConfig, stdout io.Writer) error {
	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigName
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force && st.Mode().IsRegular() {
		return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"

	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	fmt.Fprintf(stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML documents every key accepted by --config.
const sampleConfigYAML = `# oascompare configuration (YAML or JSON)
# All fields are optional. Command-line flags override config values;
# file arguments replace inputs.

# OpenAPI documents to compare (.json; .yaml/.yml files are reported as unsupported).
# inputs: [./api-v1.json, ./api-v2.json]

# Output format (table|json).
# format: table

# Grid sections to expand (info, servers, security, endpoints, schemas, all, none).
# expand: [info]

# Expand every section.
# expandAll: false

# Also write openapi-comparison-<timestamp>.json into this directory.
# exportDir: ./reports

# Exit with status 1 when an endpoint, schema or security scheme is missing from some document.
# failOnDiff: false

# Files read in parallel; 0 uses the number of CPUs.
# concurrency: 0

# Per-file size cap in MiB.
# maxSizeMB: 10

# Maximum table width; 0 fits content.
# width: 0

# Plan the export without writing it.
# dryRun: false

# Overwrite an existing export file.
# force: false

# Logging.
# verbose: false
# logLevel: info
# logJSON: false
`
