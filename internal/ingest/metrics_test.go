package ingest

import (
	"context"
	"testing"

	"github.com/6529-Collections/salesnode/internal/eth/mocks"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBackfill_RecordsMetrics(t *testing.T) {
	chain := &historicalChain{logs: []types.Log{matchLog(1, 3), matchLog(2, 4), matchLog(3, 12)}}
	client := mocks.NewEthClient(t)
	client.On("FilterLogs", mock.Anything, mock.Anything).Return(chain.filterLogs)
	client.On("TransactionByHash", mock.Anything, txHashFor(1)).Return(saleTx(1), false, nil)
	client.On("TransactionByHash", mock.Anything, txHashFor(2)).
		Return(types.NewTx(&types.LegacyTx{Data: testSelector[:]}), false, nil)
	client.On("TransactionByHash", mock.Anything, txHashFor(3)).Return(saleTx(3), false, nil)
	client.On("HeaderByNumber", mock.Anything, mock.Anything).Return(headers)

	cfg := testListenerConfig()
	cfg.Name = "metrics-test"
	l := newTestListener(t, cfg, client, nullAddr.Hex(), badgerProgress(t))

	require.NoError(t, l.Backfill(context.Background(), 0, u64(15)))

	assert.Equal(t, 2.0, testutil.ToFloat64(saleEventsTotal.WithLabelValues("metrics-test")))
	assert.Equal(t, 2.0, testutil.ToFloat64(salesTotal.WithLabelValues("metrics-test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(matchesDroppedTotal.WithLabelValues("metrics-test", dropDecode)))
	assert.Equal(t, 0.0, testutil.ToFloat64(matchesDroppedTotal.WithLabelValues("metrics-test", dropPayment)))
	assert.Equal(t, 15.0, testutil.ToFloat64(backfillCheckpointBlock.WithLabelValues("metrics-test")))
}
