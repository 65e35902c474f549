package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pavanmanishd/emplace/internal/scenario"
)

func newBenchCmd(c *cli) *cobra.Command {
	var (
		configPath string
		format     string
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run placement scenarios",
		Long: `bench places header+tail composites with each scenario's allocator and
worker count, reads every value back, and reports throughput and arena
statistics. Without --config a built-in set of scenarios is run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := checkFormat(format)
			if err != nil {
				return err
			}
			cfg := scenario.Default()
			if configPath != "" {
				if cfg, err = scenario.Load(configPath); err != nil {
					return err
				}
			}
			results, err := scenario.NewRunner(c.log).RunAll(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if f == formatText {
				printResults(cmd.OutOrStdout(), results)
				return nil
			}
			return encode(cmd.OutOrStdout(), f, results)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "scenario file (TOML)")
	cmd.Flags().StringVar(&format, "format", formatText, "output format (text|json|msgpack)")
	return cmd
}

func printResults(w io.Writer, results []scenario.Result) {
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		labelColor.Fprintf(w, "%s\n", r.Name)
		field(w, "allocator", "%s x%d", r.Allocator, r.Workers)
		field(w, "placements", "%d (%d bytes)", r.Placements, r.Bytes)
		field(w, "duration", "%s", r.Duration)
		if r.Fallbacks > 0 {
			warnColor.Fprintf(w, "%-12s%d placements fell back to the heap\n", "fallbacks", r.Fallbacks)
		}
		if m := r.Arena; m != nil {
			field(w, "arena", "%d/%d bytes in %d chunks (%.1f%%)",
				m.SizeInUse, m.Capacity, m.NumChunks, m.Utilization*100)
			field(w, "", "%d placed, %d refused, %d freed", m.Placements, m.Failures, m.Frees)
		}
	}
}
