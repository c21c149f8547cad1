package eth

import (
	"context"
	"testing"

	"github.com/6529-Collections/salesnode/internal/config"
	"github.com/stretchr/testify/assert"
)

func withConfig(t *testing.T, cfg config.Config) {
	t.Helper()
	originalConfig := config.Get
	config.Get = func() config.Config { return cfg }
	t.Cleanup(func() { config.Get = originalConfig })
}

func TestCreateEthClient_Success(t *testing.T) {
	withConfig(t, config.Config{EthereumNodeUrl: "http://localhost:8545"})

	client, err := createEthClient(context.Background(), config.ChainIDMainnet)
	assert.NoError(t, err)
	assert.NotNil(t, client)
	client.Close()
}

func TestCreateEthClient_PerChainURL(t *testing.T) {
	withConfig(t, config.Config{PolygonNodeUrl: "http://localhost:8546"})

	client, err := createEthClient(context.Background(), config.ChainIDPolygon)
	assert.NoError(t, err)
	assert.NotNil(t, client)
	client.Close()

	_, err = createEthClient(context.Background(), config.ChainIDMainnet)
	assert.ErrorContains(t, err, "no node url configured for chain id 1")
}

func TestCreateEthClient_UnsupportedChain(t *testing.T) {
	withConfig(t, config.Config{EthereumNodeUrl: "http://localhost:8545"})

	client, err := createEthClient(context.Background(), 56)
	assert.Nil(t, client)
	assert.ErrorContains(t, err, "unsupported chain id 56")
}

func TestCreateEthClient_InvalidURL(t *testing.T) {
	withConfig(t, config.Config{EthereumNodeUrl: "invalid://url"})

	client, err := createEthClient(context.Background(), config.ChainIDMainnet)
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "failed to configure Ethereum client")
}
