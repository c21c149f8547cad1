package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"reflect"
	"sync"

	"github.com/spf13/viper"
)

const (
	ChainIDMainnet uint64 = 1
	ChainIDGoerli  uint64 = 5
	ChainIDPolygon uint64 = 137
)

type Config struct {
	LogZapMode               string `mapstructure:"LOG_ZAP_MODE"`
	PrintConfigurationToLogs string `mapstructure:"PRINT_CONFIGURATION_TO_LOGS"`
	RPCPort                  int    `mapstructure:"RPC_PORT"`
	SqlitePath               string `mapstructure:"SQLITE_PATH"`
	BadgerPath               string `mapstructure:"BADGER_PATH"`

	EthereumNodeUrl string `mapstructure:"ETHEREUM_NODE_URL"`
	GoerliNodeUrl   string `mapstructure:"GOERLI_NODE_URL"`
	PolygonNodeUrl  string `mapstructure:"POLYGON_NODE_URL"`

	EthRpcRequestsPerSecond float64 `mapstructure:"ETH_RPC_REQUESTS_PER_SECOND"`
	EthRpcBurst             int     `mapstructure:"ETH_RPC_BURST"`

	WyvernExchangeAddress   string `mapstructure:"WYVERN_EXCHANGE_ADDRESS"`
	WyvernAtomicizerAddress string `mapstructure:"WYVERN_ATOMICIZER_ADDRESS"`
	MerkleValidatorAddress  string `mapstructure:"MERKLE_VALIDATOR_ADDRESS"`
	WethAddress             string `mapstructure:"WETH_ADDRESS"`
	NullAddress             string `mapstructure:"NULL_ADDRESS"`

	SalesBackfillStartBlock       uint64 `mapstructure:"SALES_BACKFILL_START_BLOCK"`
	SalesBackfillPageSize         uint64 `mapstructure:"SALES_BACKFILL_PAGE_SIZE"`
	SalesRetryAttempts            int    `mapstructure:"SALES_RETRY_ATTEMPTS"`
	SalesRetryDelayMs             int    `mapstructure:"SALES_RETRY_DELAY_MS"`
	SalesLiveBlockCacheSize       int    `mapstructure:"SALES_LIVE_BLOCK_CACHE_SIZE"`
	SalesHistoricalBlockCacheSize int    `mapstructure:"SALES_HISTORICAL_BLOCK_CACHE_SIZE"`
	SalesLiveConcurrency          int    `mapstructure:"SALES_LIVE_CONCURRENCY"`
	SalesBackfillConcurrency      int    `mapstructure:"SALES_BACKFILL_CONCURRENCY"`
	SalesBackfillStrictBarrier    bool   `mapstructure:"SALES_BACKFILL_STRICT_BARRIER"`
	SalesPollIntervalMs           int    `mapstructure:"SALES_POLL_INTERVAL_MS"`
}

// NodeURL returns the JSON-RPC endpoint configured for the given chain.
func (c Config) NodeURL(chainID uint64) (string, error) {
	var url string
	switch chainID {
	case ChainIDMainnet:
		url = c.EthereumNodeUrl
	case ChainIDGoerli:
		url = c.GoerliNodeUrl
	case ChainIDPolygon:
		url = c.PolygonNodeUrl
	default:
		return "", fmt.Errorf("unsupported chain id %d", chainID)
	}
	if url == "" {
		return "", fmt.Errorf("no node url configured for chain id %d", chainID)
	}
	return url, nil
}

var (
	mu     sync.Mutex
	loaded *Config
)

// Get returns the process-wide configuration, loading it on first use.
var Get = get

func get() Config {
	mu.Lock()
	defer mu.Unlock()
	if loaded == nil {
		cfg := loadConfig()
		loaded = &cfg
	}
	return *loaded
}

func loadConfig() Config {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("env")
	bindEnvKeys()

	cfg := readConfig()
	if cfg.PrintConfigurationToLogs == "true" {
		logConfig(cfg)
	}
	return cfg
}

// bindEnvKeys registers every mapstructure key so environment variables are
// picked up even when config.env does not mention them.
func bindEnvKeys() {
	viper.AutomaticEnv()
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("mapstructure")
		if err := viper.BindEnv(key); err != nil {
			panic(fmt.Sprintf("binding env key %q: %v", key, err))
		}
	}
}

func readConfig() Config {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Sprintf("reading config.env: %v", err))
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("decoding configuration: %v", err))
	}
	return cfg
}

// logConfig runs before the zap logger is configured, so it goes through
// the standard logger.
func logConfig(cfg Config) {
	b, err := json.Marshal(cfg)
	if err != nil {
		log.Printf("[APP CONFIGURATION]: unavailable: %v", err)
		return
	}
	log.Printf("[APP CONFIGURATION]: %s", b)
}
