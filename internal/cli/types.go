package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toon-lang/go-toon/codegen"
	"github.com/toon-lang/go-toon/convert"
)

// typesOpts holds the command-line flags for the types command.
type typesOpts struct {
	from   string // input format (guessed from the file name if empty)
	lang   string // target language (config target if empty)
	root   string // name of the top-level type (config root_name if empty)
	output string // output file path (stdout if empty)
}

func newTypesCmd() *cobra.Command {
	var opts typesOpts

	cmd := &cobra.Command{
		Use:   "types [file]",
		Short: "Generate type declarations from a sample document",
		Long: fmt.Sprintf(`Generate type declarations from a sample document.

Records with the same set of keys share one declaration. Supported languages:
%s.

Examples:
  toon types users.toon --lang go --root Response
  toon types api.json --lang python`, targetNames()),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.from, "from", "f", "", "input format (default toon)")
	cmd.Flags().StringVarP(&opts.lang, "lang", "l", "", "target language")
	cmd.Flags().StringVarP(&opts.root, "root", "r", "", "name of the top-level type")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")

	return cmd
}

func runTypes(cmd *cobra.Command, args []string, opts typesOpts) error {
	ctx := cmd.Context()
	cfg := configFromContext(ctx)
	if opts.lang != "" {
		cfg.Target = opts.lang
	}
	if opts.root != "" {
		cfg.RootName = opts.root
	}
	target, err := cfg.CodegenTarget()
	if err != nil {
		return err
	}

	data, path, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	from, err := resolveFormat(opts.from, path, convert.FormatTOON)
	if err != nil {
		return err
	}
	v, err := parseDocument(ctx, from, data)
	if err != nil {
		return err
	}

	out, err := codegen.Generate(v, cfg.RootName, target)
	if err != nil {
		return err
	}
	loggerFromContext(ctx).Debug("generated types", "target", target, "root", cfg.RootName)
	return writeOutput(cmd, opts.output, []byte(out))
}

func targetNames() string {
	names := make([]string, 0, len(codegen.Targets()))
	for _, t := range codegen.Targets() {
		names = append(names, t.String())
	}
	return strings.Join(names, ", ")
}
