package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/6529-Collections/salesnode/internal/config"
	"github.com/6529-Collections/salesnode/internal/db"
	"github.com/6529-Collections/salesnode/internal/eth"
	"github.com/6529-Collections/salesnode/internal/ingest"
	"github.com/6529-Collections/salesnode/pkg/sales"
	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

const (
	defaultSqlitePath = "./db/sqlite/sales"
	defaultBadgerPath = "./db/badger"
	defaultRPCPort    = 8080
)

// node holds the resources shared by every subcommand.
type node struct {
	cfg      config.Config
	sqlite   *sql.DB
	badger   *badger.DB
	client   eth.EthClient
	listener *ingest.Listener
	detach   func()
}

func openNode(ctx context.Context) (*node, error) {
	cfg := config.Get()
	n := &node{cfg: cfg}

	sqlitePath := cfg.SqlitePath
	if sqlitePath == "" {
		sqlitePath = defaultSqlitePath
	}
	sqlite, err := db.OpenSqlite(sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	n.sqlite = sqlite

	badgerPath := cfg.BadgerPath
	if badgerPath == "" {
		badgerPath = defaultBadgerPath
	}
	bdb, err := db.OpenBadger(badgerPath)
	if err != nil {
		n.close()
		return nil, fmt.Errorf("failed to open Badger: %w", err)
	}
	n.badger = bdb

	client, err := eth.CreateEthClient(ctx, config.ChainIDMainnet)
	if err != nil {
		n.close()
		return nil, err
	}
	n.client = eth.NewRateLimitedClient(client, cfg.EthRpcRequestsPerSecond, cfg.EthRpcBurst)

	listener, err := sales.NewOpenSeaListener(cfg, n.client, eth.NewBackfillProgressDb(bdb))
	if err != nil {
		n.close()
		return nil, err
	}
	n.listener = listener
	n.detach = sales.AttachSubscribers(ctx, listener, sqlite)

	return n, nil
}

func (n *node) close() {
	if n.detach != nil {
		n.detach()
	}
	if n.client != nil {
		n.client.Close()
	}
	if n.badger != nil {
		if err := n.badger.Close(); err != nil {
			zap.L().Warn("Error closing Badger", zap.Error(err))
		}
	}
	if n.sqlite != nil {
		if err := n.sqlite.Close(); err != nil {
			zap.L().Warn("Error closing SQLite", zap.Error(err))
		}
	}
}

func (n *node) rpcPort() int {
	if n.cfg.RPCPort > 0 {
		return n.cfg.RPCPort
	}
	return defaultRPCPort
}
