package cli

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/toon-lang/go-toon"
	"github.com/toon-lang/go-toon/convert"
)

// formatStats is the size of one document rendered in one format.
type formatStats struct {
	format convert.Format
	bytes  int
	lines  int
}

func newStatsCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Compare a document's size in every format",
		Long: `Render a document in every supported format and compare the sizes.

Sizes are relative to two-space indented JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, path, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			f, err := resolveFormat(from, path, convert.FormatJSON)
			if err != nil {
				return err
			}
			v, err := parseDocument(cmd.Context(), f, data)
			if err != nil {
				return err
			}

			stats, err := measure(cmd.Context(), v)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), StyleTitle.Render("Size by format"))
			fmt.Fprintln(cmd.OutOrStdout(), renderStats(stats))
			return nil
		},
	}

	cmd.Flags().StringVarP(&from, "from", "f", "", "input format")

	return cmd
}

// measure renders v in every format concurrently.
func measure(ctx context.Context, v toon.Value) ([]formatStats, error) {
	formats := convert.Formats()
	stats := make([]formatStats, len(formats))
	opts := convertOptions(ctx)

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range formats {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := convert.Render(f, v, opts)
			if err != nil {
				return fmt.Errorf("render %s: %w", f, err)
			}
			stats[i] = formatStats{
				format: f,
				bytes:  len(out),
				lines:  bytes.Count(out, []byte("\n")) + 1,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func renderStats(stats []formatStats) string {
	base := 0
	for _, s := range stats {
		if s.format == convert.FormatJSON {
			base = s.bytes
		}
	}

	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rel := "-"
		if base > 0 {
			rel = fmt.Sprintf("%.0f%%", 100*float64(s.bytes)/float64(base))
		}
		rows = append(rows, []string{string(s.format), strconv.Itoa(s.bytes), strconv.Itoa(s.lines), rel})
	}
	return renderTable([]string{"Format", "Bytes", "Lines", "vs JSON"}, rows)
}
