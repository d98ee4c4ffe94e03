package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toon-lang/go-toon"
	"github.com/toon-lang/go-toon/convert"
)

// convertOpts holds the command-line flags for the convert family of
// commands.
type convertOpts struct {
	from   string // input format (guessed from the file name if empty)
	to     string // output format (guessed from the output name if empty)
	output string // output file path (stdout if empty)
}

func newConvertCmd() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a document between formats",
		Long: fmt.Sprintf(`Convert a document between formats (%s).

Formats are taken from --from and --to, or guessed from the file extensions.
Without a file, the document is read from stdin.

Examples:
  toon convert data.json                  # JSON to TOON on stdout
  toon convert data.toon -o data.yaml     # TOON to YAML
  cat data.xml | toon convert --from xml --to json`, formatNames()),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, opts, convert.FormatJSON, convert.FormatTOON)
		},
	}

	cmd.Flags().StringVarP(&opts.from, "from", "f", "", "input format")
	cmd.Flags().StringVarP(&opts.to, "to", "t", "", "output format")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")

	return cmd
}

func newEncodeCmd() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode JSON, YAML or XML as TOON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.to = string(convert.FormatTOON)
			return runConvert(cmd, args, opts, convert.FormatJSON, convert.FormatTOON)
		},
	}

	cmd.Flags().StringVarP(&opts.from, "from", "f", "", "input format (default json)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")

	return cmd
}

func newDecodeCmd() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode TOON into JSON, YAML or XML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.from = string(convert.FormatTOON)
			return runConvert(cmd, args, opts, convert.FormatTOON, convert.FormatJSON)
		},
	}

	cmd.Flags().StringVarP(&opts.to, "to", "t", "", "output format (default json)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")

	return cmd
}

func runConvert(cmd *cobra.Command, args []string, opts convertOpts, defaultFrom, defaultTo convert.Format) error {
	data, path, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	from, err := resolveFormat(opts.from, path, defaultFrom)
	if err != nil {
		return err
	}
	to, err := resolveFormat(opts.to, opts.output, defaultTo)
	if err != nil {
		return err
	}

	out, err := transcode(cmd.Context(), from, to, data)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd, opts.output, out); err != nil {
		return err
	}
	if opts.output != "" {
		printSuccess(cmd.ErrOrStderr(), "Converted %s to %s", from, to)
		printFile(cmd.ErrOrStderr(), opts.output)
	}
	return nil
}

// transcode parses data as from and renders it as to, logging any decode
// warnings.
func transcode(ctx context.Context, from, to convert.Format, data []byte) ([]byte, error) {
	v, err := parseDocument(ctx, from, data)
	if err != nil {
		return nil, err
	}
	return convert.Render(to, v, convertOptions(ctx))
}

// parseDocument reads data as format f using the configured options.
func parseDocument(ctx context.Context, f convert.Format, data []byte) (toon.Value, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	v, warnings, err := convert.Parse(f, data, convertOptions(ctx))
	if err != nil {
		return toon.Value{}, err
	}
	logWarnings(logger, warnings)
	prog.done(fmt.Sprintf("Parsed %d bytes of %s", len(data), f))
	return v, nil
}

func convertOptions(ctx context.Context) convert.Options {
	cfg := configFromContext(ctx)
	return convert.Options{
		Encode: cfg.EncodeOptions(),
		Decode: cfg.DecodeOptions(),
	}
}
