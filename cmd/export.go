package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iksnae/ollama-chat/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <session>",
	Short: "Export a session",
	Long: `Export a session as Markdown (default), JSON, JSONL or YAML.

The output file defaults to <session>.<ext> in the current directory; use
--output - to write to stdout.`,
	Example: `  ollama-chat export demo
  ollama-chat export demo --format yaml --output notes/demo.yaml
  ollama-chat export demo -f jsonl -o -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(exportFormat)
		if err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.loadSession(args[0]); err != nil {
			return err
		}
		session := a.manager.Snapshot()

		if exportOutput == "-" {
			return exporter.Export(session, cmd.OutOrStdout())
		}

		path := exportOutput
		if path == "" {
			path = fmt.Sprintf("%s.%s", session.ID, exporter.Extension())
		}
		if err := writeExport(path, func(w io.Writer) error {
			return exporter.Export(session, w)
		}); err != nil {
			return err
		}
		a.console.Success("Exported to %s", path)
		return nil
	},
}

func writeExport(path string, fn func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fn(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to export: %w", err)
	}
	return file.Close()
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "md", "Export format: md, json, jsonl, yaml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default <session>.<ext>, - for stdout)")
}
