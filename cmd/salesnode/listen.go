package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/6529-Collections/salesnode/internal/rpc"
	"github.com/6529-Collections/salesnode/pkg/sales"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runListen(cmd *cobra.Command, _ []string) error {
	withBackfill, _ := cmd.Flags().GetBool("backfill")

	zap.L().Info("Starting 6529-Collections/salesnode...",
		zap.String("Version", Version),
		zap.Bool("backfill", withBackfill))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.close()

	closeRpcServer := rpc.StartRPCServer(n.rpcPort(), n.sqlite, ctx)
	defer closeRpcServer()

	// First signal stops gracefully, a second one forces the exit.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}
		zap.L().Info("Received shutdown signal, initiating graceful shutdown...")
		cancel()

		<-sigCh
		zap.L().Error("Received second signal, forcing shutdown")
		os.Exit(1)
	}()

	err = sales.Run(ctx, n.listener, sales.RunOptions{
		Live:     true,
		Backfill: withBackfill,
	})
	if err != nil {
		return err
	}

	zap.L().Info("Shutdown complete")
	return nil
}
