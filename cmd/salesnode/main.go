package main

import (
	"os"

	"github.com/6529-Collections/salesnode/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Version = "dev" // Overridden by release build script

func init() {
	logger := zap.Must(zap.NewProduction())
	if config.Get().LogZapMode == "development" {
		logger = zap.Must(zap.NewDevelopment())
	}
	zap.ReplaceGlobals(logger)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		zap.L().Error("Command failed", zap.Error(err))
		_ = zap.L().Sync()
		os.Exit(1)
	}
	_ = zap.L().Sync()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "salesnode",
		Short:        "OpenSea Wyvern sales indexer",
		Version:      Version,
		SilenceUsage: true,
	}

	listenCmd := &cobra.Command{
		Use:   "listen",
		Short: "Follow new sales, persist them and serve the read API",
		RunE:  runListen,
	}
	listenCmd.Flags().Bool("backfill", false, "also replay history from the last checkpoint")
	root.AddCommand(listenCmd)

	backfillCmd := &cobra.Command{
		Use:   "backfill",
		Short: "Replay historical sales and exit",
		RunE:  runBackfill,
	}
	backfillCmd.Flags().Uint64("from", 0, "start block (inclusive), 0 resumes after the stored checkpoint or at SALES_BACKFILL_START_BLOCK")
	backfillCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	root.AddCommand(backfillCmd)

	return root
}
