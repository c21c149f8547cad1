package eth

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

var ErrInvalidPageSize = errors.New("page size must be greater than zero")

// LogChunk is an inclusive block sub-range together with the logs matched in it.
type LogChunk struct {
	FromBlock uint64
	ToBlock   uint64
	Events    []types.Log
}

// ChunkFetchError reports a block range whose logs could not be fetched after
// all retries. The range is never skipped silently.
type ChunkFetchError struct {
	FromBlock uint64
	ToBlock   uint64
	Err       error
}

func (e *ChunkFetchError) Error() string {
	return fmt.Sprintf("failed fetching logs for blocks %d-%d: %v", e.FromBlock, e.ToBlock, e.Err)
}

func (e *ChunkFetchError) Unwrap() error {
	return e.Err
}

type FetchRangeFunc func(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error)

type HeadFunc func(ctx context.Context) (uint64, error)

type LogPaginator struct {
	fetch    FetchRangeFunc
	head     HeadFunc
	pageSize uint64
	retry    RetryPolicy
}

func NewLogPaginator(fetch FetchRangeFunc, head HeadFunc, pageSize uint64, retry RetryPolicy) *LogPaginator {
	return &LogPaginator{
		fetch:    fetch,
		head:     head,
		pageSize: pageSize,
		retry:    retry,
	}
}

// Chunks lazily yields contiguous chunks covering [fromBlock, toBlock], each
// spanning at most pageSize blocks. A nil toBlock means the chain head, which
// is resolved once when iteration starts so the sequence is finite. A fetch
// failure is yielded as the final element.
func (p *LogPaginator) Chunks(ctx context.Context, fromBlock uint64, toBlock *uint64) iter.Seq2[LogChunk, error] {
	return func(yield func(LogChunk, error) bool) {
		if p.pageSize == 0 {
			yield(LogChunk{}, ErrInvalidPageSize)
			return
		}

		var last uint64
		if toBlock != nil {
			last = *toBlock
		} else {
			head, err := Retry(ctx, p.retry, "BlockNumber", func(ctx context.Context) (uint64, error) {
				return p.head(ctx)
			})
			if err != nil {
				yield(LogChunk{}, fmt.Errorf("failed resolving latest block: %w", err))
				return
			}
			last = head
		}

		zap.L().Debug("Paginating logs",
			zap.Uint64("fromBlock", fromBlock),
			zap.Uint64("toBlock", last),
			zap.Uint64("pageSize", p.pageSize),
		)

		for start := fromBlock; start <= last; {
			end := last
			if last-start >= p.pageSize {
				end = start + p.pageSize - 1
			}

			events, err := Retry(ctx, p.retry, "FilterLogs", func(ctx context.Context) ([]types.Log, error) {
				return p.fetch(ctx, start, end)
			})
			if err != nil {
				yield(LogChunk{}, &ChunkFetchError{FromBlock: start, ToBlock: end, Err: err})
				return
			}

			if !yield(LogChunk{FromBlock: start, ToBlock: end, Events: events}, nil) {
				return
			}
			if end == last {
				return
			}
			start = end + 1
		}
	}
}

// FilterLogsFetcher queries the logs of one event emitted by contract.
func FilterLogsFetcher(client EthClient, contract common.Address, topic common.Hash) FetchRangeFunc {
	return func(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
		return client.FilterLogs(ctx, ContractEventQuery(contract, topic, fromBlock, toBlock))
	}
}

func ContractEventQuery(contract common.Address, topic common.Hash, fromBlock, toBlock uint64) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{contract},
		Topics:    [][]common.Hash{{topic}},
	}
}
