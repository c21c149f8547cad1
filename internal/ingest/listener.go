package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/6529-Collections/salesnode/internal/eth"
	"github.com/6529-Collections/salesnode/pkg/sales/models"
	"github.com/6529-Collections/salesnode/pkg/stringtools"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

const (
	DefaultLiveBlockCacheSize       = 64
	DefaultHistoricalBlockCacheSize = 2048
	DefaultLiveConcurrency          = 8
	DefaultBackfillConcurrency      = 16
	DefaultPageSize                 = 10000
	DefaultPollInterval             = 4 * time.Second
)

type ListenerConfig struct {
	// Name identifies the marketplace integration, e.g. "opensea".
	Name       string
	ChainID    uint64
	Contract   common.Address
	EventTopic common.Hash

	Retry                    eth.RetryPolicy
	LiveBlockCacheSize       int
	HistoricalBlockCacheSize int
	LiveConcurrency          int
	BackfillConcurrency      int
	PageSize                 uint64
	// StrictChunkBarrier waits for every task of a backfill chunk to finish
	// before the next chunk is fetched, and checkpoints after each chunk.
	StrictChunkBarrier bool
	PollInterval       time.Duration
	// StartBlock is where sale history begins. Resume starts here when no
	// checkpoint exists.
	StartBlock uint64
}

func (c ListenerConfig) withDefaults() ListenerConfig {
	if c.Retry.Attempts == 0 {
		c.Retry = eth.DefaultRetryPolicy
	}
	if c.LiveBlockCacheSize == 0 {
		c.LiveBlockCacheSize = DefaultLiveBlockCacheSize
	}
	if c.HistoricalBlockCacheSize == 0 {
		c.HistoricalBlockCacheSize = DefaultHistoricalBlockCacheSize
	}
	if c.LiveConcurrency == 0 {
		c.LiveConcurrency = DefaultLiveConcurrency
	}
	if c.BackfillConcurrency == 0 {
		c.BackfillConcurrency = DefaultBackfillConcurrency
	}
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}

const (
	stateStopped int32 = iota
	stateRunning
)

// Listener turns a marketplace contract's match events into sale
// notifications, either live as they are mined or by replaying history.
type Listener struct {
	Emitter

	cfg        ListenerConfig
	chainID    models.ChainID
	client     eth.EthClient
	decoder    *DecoderRegistry
	normalizer *Normalizer
	progress   eth.BackfillProgressDb
	liveCache  *eth.BlockCache

	state atomic.Int32

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	queue  *eth.DispatchQueue
}

// NewListener wires a listener. progress may be nil, in which case backfills
// always start from the requested block and are not checkpointed.
func NewListener(
	cfg ListenerConfig,
	client eth.EthClient,
	decoder *DecoderRegistry,
	normalizer *Normalizer,
	progress eth.BackfillProgressDb,
) (*Listener, error) {
	cfg = cfg.withDefaults()
	liveCache, err := eth.NewBlockCache(cfg.LiveBlockCacheSize, eth.HeaderBlockFetcher(client, cfg.Retry))
	if err != nil {
		return nil, err
	}
	return &Listener{
		cfg:        cfg,
		chainID:    models.ChainID(strconv.FormatUint(cfg.ChainID, 10)),
		client:     client,
		decoder:    decoder,
		normalizer: normalizer,
		progress:   progress,
		liveCache:  liveCache,
	}, nil
}

func (l *Listener) Running() bool {
	return l.state.Load() == stateRunning
}

// Start begins live monitoring. Calling it on a running listener is a no-op.
// Work runs under ctx; cancelling ctx aborts in-flight tasks while Stop does
// not.
func (l *Listener) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.state.CompareAndSwap(stateStopped, stateRunning) {
		return
	}

	watchCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	l.queue = eth.NewDispatchQueue(ctx, l.cfg.Name+"-live", l.cfg.LiveConcurrency)

	query := ethereum.FilterQuery{
		Addresses: []common.Address{l.cfg.Contract},
		Topics:    [][]common.Hash{{l.cfg.EventTopic}},
	}
	logs := make(chan types.Log, 128)
	sub, err := l.client.SubscribeFilterLogs(watchCtx, query, logs)

	zap.L().Info("Starting sale listener",
		zap.String("listener", l.cfg.Name),
		zap.Uint64("chainId", l.cfg.ChainID),
		zap.String("contract", l.cfg.Contract.Hex()),
		zap.Bool("subscribed", err == nil),
	)

	go func(queue *eth.DispatchQueue, done chan struct{}) {
		defer close(done)
		if err != nil {
			zap.L().Warn("Falling back to polling", zap.String("listener", l.cfg.Name), zap.Error(err))
			l.pollLogs(watchCtx, queue, 0)
			return
		}
		l.watchSubscription(watchCtx, queue, sub, logs)
	}(l.queue, l.done)
}

// Stop detaches from the chain. Events already received keep being processed
// to completion. Calling it on a stopped listener is a no-op.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.state.CompareAndSwap(stateRunning, stateStopped) {
		return
	}

	l.cancel()
	<-l.done
	l.queue.Close()
	zap.L().Info("Stopped sale listener", zap.String("listener", l.cfg.Name))
}

// WaitIdle blocks until every live event received so far has been processed.
func (l *Listener) WaitIdle(ctx context.Context) error {
	l.mu.Lock()
	queue := l.queue
	l.mu.Unlock()
	if queue == nil {
		return nil
	}
	return queue.OnIdle(ctx)
}

func (l *Listener) watchSubscription(ctx context.Context, queue *eth.DispatchQueue, sub ethereum.Subscription, logs <-chan types.Log) {
	defer sub.Unsubscribe()

	// Logs after the head at subscribe time arrive through the subscription;
	// a poller taking over after a drop continues from there.
	lastBlock, err := l.client.BlockNumber(ctx)
	if err != nil {
		zap.L().Warn("Could not get head block at subscribe time",
			zap.String("listener", l.cfg.Name),
			zap.Error(err),
		)
		lastBlock = 0
	}
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-sub.Err():
			zap.L().Warn("Subscription dropped, falling back to polling",
				zap.String("listener", l.cfg.Name),
				zap.Error(err),
			)
			from := uint64(0)
			if lastBlock > 0 {
				from = lastBlock + 1
			}
			l.pollLogs(ctx, queue, from)
			return
		case lg := <-logs:
			if lg.BlockNumber > lastBlock {
				lastBlock = lg.BlockNumber
			}
			l.submitLive(queue, lg)
		}
	}
}

// pollLogs queries new match events every poll interval. A zero fromBlock
// starts at the current head.
func (l *Listener) pollLogs(ctx context.Context, queue *eth.DispatchQueue, fromBlock uint64) {
	current := fromBlock
	for {
		if ctx.Err() != nil {
			return
		}
		tip, err := l.client.BlockNumber(ctx)
		if err != nil {
			zap.L().Error("Could not get latest block (polling)", zap.Error(err))
			if eth.SleepInterrupted(ctx, l.cfg.PollInterval) {
				return
			}
			continue
		}
		if current == 0 {
			current = tip
		}

		if current <= tip {
			end := tip
			if tip-current >= l.cfg.PageSize {
				end = current + l.cfg.PageSize - 1
			}
			logs, err := l.client.FilterLogs(ctx, eth.ContractEventQuery(l.cfg.Contract, l.cfg.EventTopic, current, end))
			if err != nil {
				zap.L().Error("Failed fetching logs (polling)",
					zap.Uint64("fromBlock", current),
					zap.Uint64("toBlock", end),
					zap.Error(err),
				)
				if eth.SleepInterrupted(ctx, l.cfg.PollInterval) {
					return
				}
				continue
			}
			for _, lg := range logs {
				l.submitLive(queue, lg)
			}
			current = end + 1
			continue
		}

		zap.L().Debug("No new block yet (polling)",
			zap.Uint64("current", current),
			zap.Uint64("tip", tip),
		)
		if eth.SleepInterrupted(ctx, l.cfg.PollInterval) {
			return
		}
	}
}

func (l *Listener) submitLive(queue *eth.DispatchQueue, lg types.Log) {
	if lg.Removed {
		zap.L().Debug("Ignoring removed log", zap.String("txHash", lg.TxHash.Hex()))
		return
	}
	err := queue.Submit(func(ctx context.Context) error {
		return l.processMatch(ctx, l.liveCache, lg)
	})
	if err != nil {
		zap.L().Warn("Dropping sale event", zap.String("txHash", lg.TxHash.Hex()), zap.Error(err))
	}
}

// processMatch runs the per-event pipeline: fetch the transaction and its
// block, decode, normalize and emit. Expected failures are logged and
// swallowed so one bad event never affects another.
func (l *Listener) processMatch(ctx context.Context, cache *eth.BlockCache, lg types.Log) error {
	txHash := stringtools.TrimLowerCase(lg.TxHash.Hex())

	tx, err := eth.Retry(ctx, l.cfg.Retry, "TransactionByHash", func(ctx context.Context) (*types.Transaction, error) {
		tx, _, err := l.client.TransactionByHash(ctx, lg.TxHash)
		if err != nil {
			return nil, err
		}
		if tx == nil {
			return nil, fmt.Errorf("transaction %s not found", txHash)
		}
		return tx, nil
	})
	if err != nil {
		zap.L().Warn("Dropping sale event, transaction unavailable", zap.String("txHash", txHash), zap.Error(err))
		matchesDroppedTotal.WithLabelValues(l.cfg.Name, dropTxUnavailable).Inc()
		return nil
	}

	block, err := cache.GetOrFetch(ctx, lg.BlockNumber)
	if err != nil {
		zap.L().Warn("Dropping sale event, block unavailable",
			zap.String("txHash", txHash),
			zap.Uint64("block", lg.BlockNumber),
			zap.Error(err),
		)
		matchesDroppedTotal.WithLabelValues(l.cfg.Name, dropBlockUnavailable).Inc()
		return nil
	}

	preParsed, err := l.decoder.Decode(tx.Data(), TxMeta{
		ChainID:      l.chainID,
		TxHash:       txHash,
		BlockNumber:  lg.BlockNumber,
		TimestampSec: block.Timestamp,
	})
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			zap.L().Warn("Failed to decode sale", zap.String("txHash", txHash), zap.Error(err))
			matchesDroppedTotal.WithLabelValues(l.cfg.Name, dropDecode).Inc()
			return nil
		}
		return fmt.Errorf("decoding %s: %w", txHash, err)
	}

	if len(preParsed) > 0 && !l.normalizer.Accepts(preParsed[0].PaymentToken) {
		zap.L().Debug("Skipping transaction without ETH/WETH sales", zap.String("txHash", txHash))
		matchesDroppedTotal.WithLabelValues(l.cfg.Name, dropPayment).Inc()
		return nil
	}
	event := l.normalizer.Normalize(preParsed)
	if len(event.Sales) == 0 {
		matchesDroppedTotal.WithLabelValues(l.cfg.Name, dropDecode).Inc()
		return nil
	}

	zap.L().Info("Fetched new sale",
		zap.String("listener", l.cfg.Name),
		zap.String("txHash", txHash),
		zap.Int("items", len(event.Sales)),
		zap.Float64("totalPrice", event.TotalPrice),
	)
	l.Emit(event)
	saleEventsTotal.WithLabelValues(l.cfg.Name).Inc()
	salesTotal.WithLabelValues(l.cfg.Name).Add(float64(len(event.Sales)))
	return nil
}
