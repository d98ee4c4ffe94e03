package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toon-lang/go-toon/internal/config"
)

func newConfigCmd() *cobra.Command {
	var showPath bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Long: `Print the configuration every command runs with, after the config file
and any --delimiter, --indent or --strict flags are applied. The output is a
valid config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showPath {
				path, err := config.DefaultPath()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}
			return configFromContext(cmd.Context()).Write(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&showPath, "path", false, "print the default config file location")

	return cmd
}
