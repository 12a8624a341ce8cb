package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphaelgruber/adviser/internal/session"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the question history to a file",
	Long: `Export the local question history for backup or review.

The format defaults to the file extension (.yaml/.yml or .json).

Examples:
  adviser export history.json
  adviser export history.yaml
  adviser export backup.txt --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "output format: json or yaml")
}

func runExport(cmd *cobra.Command, args []string) error {
	path := args[0]

	format, err := resolveFormat(exportFormat, path)
	if err != nil {
		return err
	}

	entries := sess.History.Load(cmd.Context())
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No entries to export.")
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if err := writeEntries(f, entries, format); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", len(entries), path)
	return nil
}

// resolveFormat picks the export format from the flag or the file extension.
func resolveFormat(flag, path string) (string, error) {
	if flag == "" {
		return formatFromPath(path), nil
	}
	switch f := strings.ToLower(flag); f {
	case "json", "yaml":
		return f, nil
	case "yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("unknown format %q (want json or yaml)", flag)
	}
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// writeEntries encodes entries as json or yaml.
func writeEntries(w io.Writer, entries []session.Entry, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
	return nil
}
