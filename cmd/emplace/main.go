package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pavanmanishd/emplace"
)

// cli holds state shared by subcommands.
type cli struct {
	verbose bool
	log     *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{log: zap.NewNop()}
	root := &cobra.Command{
		Use:           "emplace",
		Short:         "Inspect layouts and benchmark in-place construction",
		Long:          `emplace prints header/tail layout chains and runs placement workloads against the heap and arena allocators`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !c.verbose {
				return nil
			}
			log, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			c.log = log
			emplace.SetLogger(log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.log.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log allocator activity to stderr")

	root.AddCommand(newLayoutCmd())
	root.AddCommand(newBenchCmd(c))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		root.PrintErrln("Error:", err)
		stop()
		os.Exit(1)
	}
}
