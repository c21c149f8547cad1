package eth

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/time/rate"
)

// RateLimitedClient spaces out provider calls so backfills with a wide worker
// pool stay under the node's request quota. Every call waits for a token;
// a cancelled ctx aborts the wait.
type RateLimitedClient struct {
	EthClient
	limiter *rate.Limiter
}

// NewRateLimitedClient wraps client with a limit of requestsPerSecond. A
// non-positive limit returns client unchanged.
func NewRateLimitedClient(client EthClient, requestsPerSecond float64, burst int) EthClient {
	if requestsPerSecond <= 0 {
		return client
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedClient{
		EthClient: client,
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (c *RateLimitedClient) BlockNumber(ctx context.Context) (uint64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return c.EthClient.BlockNumber(ctx)
}

func (c *RateLimitedClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.EthClient.HeaderByNumber(ctx, number)
}

func (c *RateLimitedClient) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}
	return c.EthClient.TransactionByHash(ctx, hash)
}

func (c *RateLimitedClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.EthClient.FilterLogs(ctx, q)
}

func (c *RateLimitedClient) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.EthClient.SubscribeFilterLogs(ctx, q, ch)
}
