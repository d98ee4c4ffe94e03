package cli

import (
	"context"
	"fmt"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/toon-lang/go-toon/internal/config"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version.
// This is typically called by the main package with values injected via
// ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// globalOpts holds the flags shared by every command.
type globalOpts struct {
	verbose    bool
	configPath string
	delimiter  string
	indent     string
	strict     bool
}

// Execute runs the toon CLI and returns an error if any command fails.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var opts globalOpts

	root := &cobra.Command{
		Use:          "toon",
		Short:        "toon converts data to and from the TOON format",
		Long:         `toon converts JSON, YAML and XML documents to TOON, a compact indentation-based format with table and list shorthands, and back again.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if opts.verbose {
				level = charmlog.DebugLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), level)

			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			logger.Debug("configuration", "delimiter", cfg.Delimiter, "detect", cfg.DetectDelimiter, "indent", fmt.Sprintf("%q", cfg.Indent), "strict", cfg.Strict)

			ctx := withLogger(cmd.Context(), logger)
			ctx = withConfig(ctx, cfg)
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("toon %s\ncommit: %s\nbuilt: %s\n", version, commit, date))

	flags := root.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/toon/config.toml)")
	flags.StringVarP(&opts.delimiter, "delimiter", "d", "", "field delimiter: colon, comma, tab, semicolon or pipe (input is detected unless set)")
	flags.StringVar(&opts.indent, "indent", "", `indent unit, e.g. "    " or tab`)
	flags.BoolVar(&opts.strict, "strict", false, "treat decode warnings as errors")

	root.AddCommand(newConvertCmd())
	root.AddCommand(newEncodeCmd())
	root.AddCommand(newDecodeCmd())
	root.AddCommand(newTypesCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// load reads the config file and applies flags that were set explicitly.
func (o *globalOpts) load(cmd *cobra.Command) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("delimiter") {
		cfg.Delimiter = o.delimiter
		cfg.DetectDelimiter = false
	}
	if flags.Changed("indent") {
		cfg.Indent = o.indent
	}
	if flags.Changed("strict") {
		cfg.Strict = o.strict
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func withConfig(ctx context.Context, cfg config.Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// configFromContext returns the resolved configuration, or the defaults
// when none is attached.
func configFromContext(ctx context.Context) config.Config {
	if cfg, ok := ctx.Value(configKey).(config.Config); ok {
		return cfg
	}
	return config.Default()
}
