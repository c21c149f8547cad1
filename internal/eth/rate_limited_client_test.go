package eth

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/6529-Collections/salesnode/internal/eth/mocks"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimitedClient_DisabledReturnsClient(t *testing.T) {
	client := mocks.NewEthClient(t)
	assert.Same(t, client, NewRateLimitedClient(client, 0, 10))
}

func TestRateLimitedClient_SpacesCalls(t *testing.T) {
	client := mocks.NewEthClient(t)
	client.On("BlockNumber", mock.Anything).Return(uint64(7), nil).Times(3)

	limited := NewRateLimitedClient(client, 20, 1)
	start := time.Now()
	for i := 0; i < 3; i++ {
		n, err := limited.BlockNumber(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(7), n)
	}
	// One token up front, then one every 50ms.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestRateLimitedClient_CancelledWait(t *testing.T) {
	client := mocks.NewEthClient(t)
	client.On("HeaderByNumber", mock.Anything, mock.Anything).
		Return(&types.Header{Number: big.NewInt(1)}, nil).Once()

	limited := NewRateLimitedClient(client, 0.001, 1)
	_, err := limited.HeaderByNumber(context.Background(), big.NewInt(1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = limited.TransactionByHash(ctx, common.Hash{})
	assert.Error(t, err)
	client.AssertNotCalled(t, "TransactionByHash", mock.Anything, mock.Anything)
}

func TestRateLimitedClient_DelegatesClose(t *testing.T) {
	client := mocks.NewEthClient(t)
	client.On("Close").Return().Once()
	NewRateLimitedClient(client, 5, 5).Close()
}
