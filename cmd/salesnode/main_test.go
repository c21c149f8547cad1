package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCmd()

	listen, _, err := root.Find([]string{"listen"})
	require.NoError(t, err)
	assert.Equal(t, "listen", listen.Name())
	assert.NotNil(t, listen.Flags().Lookup("backfill"))

	backfill, _, err := root.Find([]string{"backfill"})
	require.NoError(t, err)
	assert.NotNil(t, backfill.Flags().Lookup("from"))
	assert.NotNil(t, backfill.Flags().Lookup("to"))
}

func TestBackfillOptions(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantFrom uint64
		wantTo   *uint64
		wantErr  string
	}{
		{name: "defaults", args: nil, wantFrom: 0, wantTo: nil},
		{name: "latest", args: []string{"--from", "14120913", "--to", "0"}, wantFrom: 14120913, wantTo: nil},
		{name: "bounded", args: []string{"--from", "100", "--to", "200"}, wantFrom: 100, wantTo: ptrU64(200)},
		{name: "reversed", args: []string{"--from", "300", "--to", "200"}, wantErr: "is after"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backfill, _, err := newRootCmd().Find([]string{"backfill"})
			require.NoError(t, err)
			require.NoError(t, backfill.ParseFlags(tt.args))

			opts, err := backfillOptions(backfill)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, opts.Backfill)
			assert.False(t, opts.Live)
			assert.Equal(t, tt.wantFrom, opts.FromBlock)
			assert.Equal(t, tt.wantTo, opts.ToBlock)
		})
	}
}

func TestNode_RPCPortDefault(t *testing.T) {
	n := &node{}
	assert.Equal(t, defaultRPCPort, n.rpcPort())
	n.cfg.RPCPort = 9000
	assert.Equal(t, 9000, n.rpcPort())
}

func ptrU64(v uint64) *uint64 { return &v }
