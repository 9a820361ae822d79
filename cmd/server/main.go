package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"self-screening-bot/internal/config"
	"self-screening-bot/internal/platform/log"
)

const serviceName = "self-screening"

var (
	cfg      *config.Config
	debug    bool
	flushLog = func() {}
)

var rootCmd = &cobra.Command{
	Use:          "server",
	Short:        "COVID-19 self-screening chatbot backend",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		var ctx context.Context
		ctx, flushLog = log.NewContextWithLogger(cmd.Context(), log.Options{
			Service: serviceName,
			Debug:   debug || cfg.Debug,
			Format:  cfg.LogFormat,
		})
		cmd.SetContext(ctx)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	flushLog()
	if err != nil {
		os.Exit(1)
	}
}
