package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/6529-Collections/salesnode/pkg/sales"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runBackfill(cmd *cobra.Command, _ []string) error {
	opts, err := backfillOptions(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.close()

	zap.L().Info("Starting backfill",
		zap.Uint64("from", opts.FromBlock),
		zap.Bool("resume", opts.FromBlock == 0),
		zap.Uint64("startBlock", sales.BackfillStartBlock(n.cfg)),
		zap.Any("to", opts.ToBlock))

	return sales.Run(ctx, n.listener, opts)
}

func backfillOptions(cmd *cobra.Command) (sales.RunOptions, error) {
	from, err := cmd.Flags().GetUint64("from")
	if err != nil {
		return sales.RunOptions{}, err
	}
	to, err := cmd.Flags().GetUint64("to")
	if err != nil {
		return sales.RunOptions{}, err
	}

	opts := sales.RunOptions{Backfill: true, FromBlock: from}
	if to > 0 {
		if from > to {
			return sales.RunOptions{}, fmt.Errorf("--from %d is after --to %d", from, to)
		}
		opts.ToBlock = &to
	}
	return opts, nil
}
