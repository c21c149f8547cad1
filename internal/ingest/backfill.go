package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/6529-Collections/salesnode/internal/eth"
	"go.uber.org/zap"
)

const backfillProgressLogInterval = 10 * time.Second

func (l *Listener) progressKey() string {
	return fmt.Sprintf("%d:%s", l.cfg.ChainID, l.cfg.Name)
}

// ResumeBlock is the first block a backfill requested from fromBlock actually
// needs to scan, given the stored checkpoint.
func (l *Listener) ResumeBlock(fromBlock uint64) (uint64, error) {
	checkpoint, ok, err := l.storedProgress()
	if err != nil {
		return 0, err
	}
	if ok && checkpoint+1 > fromBlock {
		return checkpoint + 1, nil
	}
	return fromBlock, nil
}

// Resume continues the historical scan after the stored checkpoint, or from
// the configured StartBlock when nothing has been recorded yet.
func (l *Listener) Resume(ctx context.Context, toBlock *uint64) error {
	start, err := l.ResumeBlock(l.cfg.StartBlock)
	if err != nil {
		return err
	}
	return l.Backfill(ctx, start, toBlock)
}

func (l *Listener) storedProgress() (uint64, bool, error) {
	if l.progress == nil {
		return 0, false, nil
	}
	checkpoint, ok, err := l.progress.GetProgress(l.progressKey())
	if err != nil {
		return 0, false, fmt.Errorf("failed to read backfill progress: %w", err)
	}
	return checkpoint, ok, nil
}

// extendsProgress reports whether a scan starting at fromBlock leaves no gap
// behind the stored checkpoint, so its last block may become the new one.
func (l *Listener) extendsProgress(fromBlock uint64) (bool, error) {
	checkpoint, ok, err := l.storedProgress()
	if err != nil {
		return false, err
	}
	if !ok {
		return fromBlock <= l.cfg.StartBlock, nil
	}
	return fromBlock <= checkpoint+1, nil
}

// Backfill replays match events from fromBlock through toBlock (nil for the
// current head) and emits their sales like live mode does. The range is
// scanned as requested; use Resume to continue from the checkpoint.
//
// Chunks are fetched one at a time and their events fanned out to a bounded
// worker pool; the next chunk is only requested once the pool's backlog is
// empty (or, with StrictChunkBarrier, once it is idle). Cancelling ctx stops
// requesting chunks, but work already submitted always drains before Backfill
// returns. A chunk that cannot be fetched is fatal and returned as an
// *eth.ChunkFetchError.
//
// Progress is only recorded when the range continues the stored checkpoint
// without a gap; an isolated range leaves it untouched.
func (l *Listener) Backfill(ctx context.Context, fromBlock uint64, toBlock *uint64) error {
	recordProgress, err := l.extendsProgress(fromBlock)
	if err != nil {
		return err
	}

	cache, err := eth.NewBlockCache(l.cfg.HistoricalBlockCacheSize, eth.HeaderBlockFetcher(l.client, l.cfg.Retry))
	if err != nil {
		return err
	}
	paginator := eth.NewLogPaginator(
		eth.FilterLogsFetcher(l.client, l.cfg.Contract, l.cfg.EventTopic),
		l.client.BlockNumber,
		l.cfg.PageSize,
		l.cfg.Retry,
	)

	drainCtx := context.WithoutCancel(ctx)
	queue := eth.NewDispatchQueue(drainCtx, l.cfg.Name+"-backfill", l.cfg.BackfillConcurrency)
	defer queue.Close()

	zap.L().Info("Starting sales backfill",
		zap.String("listener", l.cfg.Name),
		zap.Uint64("fromBlock", fromBlock),
		zap.Bool("recordProgress", recordProgress),
		zap.Bool("toLatest", toBlock == nil),
		zap.Bool("strictBarrier", l.cfg.StrictChunkBarrier),
	)

	var (
		submitted  uint64
		lastBlock  uint64
		anyChunk   bool
		runErr     error
		lastLogged = time.Now()
	)
	for chunk, err := range paginator.Chunks(ctx, fromBlock, toBlock) {
		if err != nil {
			runErr = err
			break
		}

		for _, lg := range chunk.Events {
			if lg.Removed {
				continue
			}
			if err := queue.Submit(func(ctx context.Context) error {
				return l.processMatch(ctx, cache, lg)
			}); err != nil {
				runErr = err
				break
			}
			submitted++
		}
		if runErr != nil {
			break
		}
		lastBlock, anyChunk = chunk.ToBlock, true

		// The default barrier only waits for the backlog to be dispatched, so
		// at most one pool's worth of the previous chunk is still running.
		if l.cfg.StrictChunkBarrier {
			if err := queue.OnIdle(ctx); err != nil {
				runErr = err
				break
			}
			if recordProgress {
				l.checkpoint(lastBlock)
			}
		} else if err := queue.OnEmpty(ctx); err != nil {
			runErr = err
			break
		}

		if time.Since(lastLogged) >= backfillProgressLogInterval {
			lastLogged = time.Now()
			zap.L().Info("Backfill progress",
				zap.String("listener", l.cfg.Name),
				zap.Uint64("block", chunk.ToBlock),
				zap.Uint64("events", submitted),
			)
		}
	}

	if err := queue.OnIdle(drainCtx); err != nil {
		return err
	}
	if anyChunk && recordProgress {
		l.checkpoint(lastBlock)
	}

	if runErr != nil {
		zap.L().Error("Sales backfill stopped",
			zap.String("listener", l.cfg.Name),
			zap.Uint64("lastCompletedBlock", lastBlock),
			zap.Error(runErr),
		)
		return runErr
	}

	zap.L().Info("Sales backfill complete",
		zap.String("listener", l.cfg.Name),
		zap.Uint64("events", submitted),
		zap.Uint64("lastBlock", lastBlock),
	)
	return nil
}

func (l *Listener) checkpoint(block uint64) {
	if l.progress == nil {
		return
	}
	if err := l.progress.SetProgress(l.progressKey(), block); err != nil {
		zap.L().Error("Failed to store backfill progress", zap.Uint64("block", block), zap.Error(err))
		return
	}
	backfillCheckpointBlock.WithLabelValues(l.cfg.Name).Set(float64(block))
}
