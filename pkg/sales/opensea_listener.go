package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/6529-Collections/salesnode/internal/config"
	"github.com/6529-Collections/salesnode/internal/eth"
	"github.com/6529-Collections/salesnode/internal/eth/wyvern"
	"github.com/6529-Collections/salesnode/internal/ingest"
	"github.com/6529-Collections/salesnode/internal/ingest/salesdb"
	"github.com/6529-Collections/salesnode/pkg/sales/models"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const OpenSeaListenerName = "opensea"

// OpenSeaAddresses are the contracts an OpenSea Wyvern listener depends on.
type OpenSeaAddresses struct {
	Exchange        common.Address
	Atomicizer      common.Address
	MerkleValidator common.Address
	Weth            common.Address
	Null            common.Address
}

// OpenSeaAddressesFromConfig overrides the mainnet deployment with any
// addresses set in cfg.
func OpenSeaAddressesFromConfig(cfg config.Config) (OpenSeaAddresses, error) {
	addrs := OpenSeaAddresses{
		Exchange:        wyvern.MainnetExchangeAddress,
		Atomicizer:      wyvern.MainnetAtomicizerAddress,
		MerkleValidator: wyvern.MainnetMerkleValidatorAddress,
		Weth:            wyvern.MainnetWethAddress,
		Null:            wyvern.NullAddress,
	}
	overrides := []struct {
		key   string
		value string
		dst   *common.Address
	}{
		{"WYVERN_EXCHANGE_ADDRESS", cfg.WyvernExchangeAddress, &addrs.Exchange},
		{"WYVERN_ATOMICIZER_ADDRESS", cfg.WyvernAtomicizerAddress, &addrs.Atomicizer},
		{"MERKLE_VALIDATOR_ADDRESS", cfg.MerkleValidatorAddress, &addrs.MerkleValidator},
		{"WETH_ADDRESS", cfg.WethAddress, &addrs.Weth},
		{"NULL_ADDRESS", cfg.NullAddress, &addrs.Null},
	}
	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		if !common.IsHexAddress(o.value) {
			return OpenSeaAddresses{}, fmt.Errorf("%s is not an address: %q", o.key, o.value)
		}
		*o.dst = common.HexToAddress(o.value)
	}
	return addrs, nil
}

// OpenSeaListenerConfig maps the SALES_* settings onto a listener
// configuration. Zero values keep the listener defaults.
func OpenSeaListenerConfig(cfg config.Config, addrs OpenSeaAddresses) ingest.ListenerConfig {
	lc := ingest.ListenerConfig{
		Name:                     OpenSeaListenerName,
		ChainID:                  config.ChainIDMainnet,
		Contract:                 addrs.Exchange,
		EventTopic:               wyvern.OrdersMatchedTopic,
		LiveBlockCacheSize:       cfg.SalesLiveBlockCacheSize,
		HistoricalBlockCacheSize: cfg.SalesHistoricalBlockCacheSize,
		LiveConcurrency:          cfg.SalesLiveConcurrency,
		BackfillConcurrency:      cfg.SalesBackfillConcurrency,
		PageSize:                 cfg.SalesBackfillPageSize,
		StrictChunkBarrier:       cfg.SalesBackfillStrictBarrier,
		PollInterval:             time.Duration(cfg.SalesPollIntervalMs) * time.Millisecond,
		StartBlock:               BackfillStartBlock(cfg),
	}
	if cfg.SalesRetryAttempts > 0 {
		lc.Retry = eth.RetryPolicy{
			Attempts: cfg.SalesRetryAttempts,
			Delay:    time.Duration(cfg.SalesRetryDelayMs) * time.Millisecond,
		}
		if lc.Retry.Delay == 0 {
			lc.Retry.Delay = eth.DefaultRetryPolicy.Delay
		}
	}
	return lc
}

// NewOpenSeaListener builds a listener decoding Wyvern atomicMatch_ calls.
func NewOpenSeaListener(cfg config.Config, client eth.EthClient, progress eth.BackfillProgressDb) (*ingest.Listener, error) {
	addrs, err := OpenSeaAddressesFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return ingest.NewListener(
		OpenSeaListenerConfig(cfg, addrs),
		client,
		ingest.NewDecoderRegistry(wyvern.NewAtomicMatchDecoder(addrs.Atomicizer, addrs.MerkleValidator)),
		ingest.NewNormalizer(addrs.Weth, addrs.Null),
		progress,
	)
}

// BackfillStartBlock is the configured first block of a backfill, defaulting
// to the exchange's deployment.
func BackfillStartBlock(cfg config.Config) uint64 {
	if cfg.SalesBackfillStartBlock > 0 {
		return cfg.SalesBackfillStartBlock
	}
	return wyvern.MainnetStartBlock
}

// LogSale logs every sale of an event.
func LogSale(event models.SaleEvent) {
	for _, s := range event.Sales {
		zap.L().Info("Sale",
			zap.String("txHash", s.TxHash),
			zap.String("collection", s.CollectionAddress),
			zap.String("tokenId", s.TokenID),
			zap.Float64("price", s.Price),
			zap.String("paymentToken", s.PaymentToken),
			zap.Uint64("quantity", s.Quantity),
			zap.String("buyer", s.Buyer),
			zap.String("seller", s.Seller),
		)
	}
}

// AttachSubscribers registers the persistence and logging subscribers and
// returns a function removing both.
func AttachSubscribers(ctx context.Context, listener *ingest.Listener, sqlite *sql.DB) func() {
	unsubscribeStore := listener.Subscribe(salesdb.NewSalesHandler(ctx, sqlite).OnSale)
	unsubscribeLog := listener.Subscribe(LogSale)
	return func() {
		unsubscribeStore()
		unsubscribeLog()
	}
}

type RunOptions struct {
	Live     bool
	Backfill bool
	// FromBlock scans exactly from that block. Zero resumes after the stored
	// checkpoint instead.
	FromBlock uint64
	// ToBlock ends the backfill; nil follows the head at the time the backfill
	// starts.
	ToBlock *uint64
}

// Run drives the listener until ctx is cancelled (live) or the backfill has
// finished, whichever the options ask for. A failed backfill stops live
// monitoring too and is returned.
func Run(ctx context.Context, listener *ingest.Listener, opts RunOptions) error {
	if !opts.Live && !opts.Backfill {
		return errors.New("nothing to run: neither live nor backfill requested")
	}
	g, gctx := errgroup.WithContext(ctx)

	if opts.Live {
		listener.Start(gctx)
		g.Go(func() error {
			<-gctx.Done()
			listener.Stop()
			return nil
		})
	}

	if opts.Backfill {
		g.Go(func() error {
			started := time.Now()
			var err error
			if opts.FromBlock == 0 {
				err = listener.Resume(gctx, opts.ToBlock)
			} else {
				err = listener.Backfill(gctx, opts.FromBlock, opts.ToBlock)
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("backfill failed: %w", err)
			}
			zap.L().Info("Backfill finished",
				zap.Uint64("from", opts.FromBlock),
				zap.Duration("took", time.Since(started)),
				zap.Bool("interrupted", err != nil),
			)
			return nil
		})
	}

	return g.Wait()
}
