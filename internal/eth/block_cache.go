package eth

import (
	"context"
	"fmt"
	"math/big"

	lru "github.com/hashicorp/golang-lru/v2"
)

type BlockMeta struct {
	Number    uint64
	Timestamp uint64 // seconds
}

type BlockFetcher func(ctx context.Context, number uint64) (BlockMeta, error)

// BlockCache is a bounded LRU of block metadata in front of an RPC fetch.
// Concurrent misses on the same block may both fetch; the result is identical
// so the second insert is harmless.
type BlockCache struct {
	cache *lru.Cache[uint64, BlockMeta]
	fetch BlockFetcher
}

func NewBlockCache(size int, fetch BlockFetcher) (*BlockCache, error) {
	cache, err := lru.New[uint64, BlockMeta](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create block cache: %w", err)
	}
	return &BlockCache{cache: cache, fetch: fetch}, nil
}

func (c *BlockCache) GetOrFetch(ctx context.Context, number uint64) (BlockMeta, error) {
	if meta, ok := c.cache.Get(number); ok {
		return meta, nil
	}
	meta, err := c.fetch(ctx, number)
	if err != nil {
		return BlockMeta{}, err
	}
	c.cache.Add(number, meta)
	return meta, nil
}

func (c *BlockCache) Len() int {
	return c.cache.Len()
}

// HeaderBlockFetcher fetches block metadata from block headers, retrying
// transient failures with policy.
func HeaderBlockFetcher(client EthClient, policy RetryPolicy) BlockFetcher {
	return func(ctx context.Context, number uint64) (BlockMeta, error) {
		return Retry(ctx, policy, "HeaderByNumber", func(ctx context.Context) (BlockMeta, error) {
			header, err := client.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
			if err != nil {
				return BlockMeta{}, err
			}
			if header == nil {
				return BlockMeta{}, fmt.Errorf("block %d not found", number)
			}
			return BlockMeta{Number: header.Number.Uint64(), Timestamp: header.Time}, nil
		})
	}
}
