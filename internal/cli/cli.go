// Package cli implements the toon command-line interface.
//
// The commands move documents between TOON and JSON, YAML or XML, generate
// type declarations from a sample document, and compare how large the same
// data is in every format. The CLI is built using cobra and logs through
// charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - convert: Convert between any two supported formats
//   - encode: Write TOON from JSON, YAML or XML
//   - decode: Read TOON and write JSON
//   - types: Generate type declarations for a target language
//   - stats: Compare a document's size across formats
//   - config: Print the effective configuration
//
// # Configuration
//
// Settings are read from ~/.config/toon/config.toml (or the file named by
// --config) and can be overridden per call with --delimiter, --indent and
// --strict.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context. Recoverable decode problems, such as a
// list shorter than its declared length, are logged as warnings.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toon-lang/go-toon/convert"
)

// stdinPath names standard input on the command line.
const stdinPath = "-"

// readInput reads the file named by args, or standard input when no file
// (or "-") is given.
func readInput(cmd *cobra.Command, args []string) ([]byte, string, error) {
	if len(args) == 0 || args[0] == stdinPath {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return data, "", nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, "", err
	}
	return data, args[0], nil
}

// writeOutput writes data to path, or to the command's output when path is
// empty. A trailing newline is added when missing.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// resolveFormat picks the input format from the flag, then the file
// extension, then fallback.
func resolveFormat(flag, path string, fallback convert.Format) (convert.Format, error) {
	if flag != "" {
		return convert.ParseFormat(flag)
	}
	if f, ok := convert.FormatFromPath(path); ok {
		return f, nil
	}
	return fallback, nil
}

// formatNames lists the supported formats for flag help.
func formatNames() string {
	names := make([]string, 0, len(convert.Formats()))
	for _, f := range convert.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}
