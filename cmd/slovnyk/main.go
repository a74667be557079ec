package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/slovnyk/internal/cli"
	"codeberg.org/snonux/slovnyk/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags, newRunner)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// newRunner builds the processor once flags and config are final
func newRunner(flags *cli.Flags) (cli.Runner, error) {
	logger, err := cli.NewLogger(flags.Verbose)
	if err != nil {
		return nil, err
	}

	return processor.NewProcessor(flags, logger)
}
