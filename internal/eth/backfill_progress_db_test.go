package eth

import (
	"testing"

	"github.com/6529-Collections/salesnode/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProgressDb(t *testing.T) BackfillProgressDb {
	bdb, err := db.OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bdb.Close() })
	return NewBackfillProgressDb(bdb)
}

func TestBackfillProgressDb_MissingKey(t *testing.T) {
	progressDb := setupProgressDb(t)

	block, ok, err := progressDb.GetProgress("1:opensea")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, block)
}

func TestBackfillProgressDb_SetAndGet(t *testing.T) {
	progressDb := setupProgressDb(t)

	require.NoError(t, progressDb.SetProgress("1:opensea", 14120913))

	block, ok, err := progressDb.GetProgress("1:opensea")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(14120913), block)
}

func TestBackfillProgressDb_OnlyMovesForward(t *testing.T) {
	progressDb := setupProgressDb(t)

	require.NoError(t, progressDb.SetProgress("1:opensea", 200))
	require.NoError(t, progressDb.SetProgress("1:opensea", 150))

	block, _, err := progressDb.GetProgress("1:opensea")
	require.NoError(t, err)
	assert.Equal(t, uint64(200), block)

	require.NoError(t, progressDb.SetProgress("1:opensea", 300))
	block, _, err = progressDb.GetProgress("1:opensea")
	require.NoError(t, err)
	assert.Equal(t, uint64(300), block)
}

func TestBackfillProgressDb_KeysAreIndependent(t *testing.T) {
	progressDb := setupProgressDb(t)

	require.NoError(t, progressDb.SetProgress("1:opensea", 10))
	require.NoError(t, progressDb.SetProgress("137:opensea", 20))

	a, _, err := progressDb.GetProgress("1:opensea")
	require.NoError(t, err)
	b, _, err := progressDb.GetProgress("137:opensea")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), a)
	assert.Equal(t, uint64(20), b)
}
