package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("OPERATOR_PASSWORD_HASH", "$2a$12$abcdefghijklmnopqrstuv")
	t.Setenv("SUPPORTED_COINS", "BTC, eth,ada,eth")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "idr", cfg.Trading.Bridge)
	assert.Equal(t, []string{"btc", "eth", "ada"}, cfg.Trading.SupportedCoins)
	assert.Equal(t, 0.003, cfg.Trading.TransactionFee)
	assert.Equal(t, 5.0, cfg.Trading.ScoutMultiplier)
	assert.Equal(t, 5*time.Second, cfg.Trading.ScoutInterval)
	assert.Equal(t, time.Minute, cfg.Trading.ValueInterval)
	assert.True(t, cfg.Trading.PaperTrading)
	assert.Equal(t, "bridgebot", cfg.Redis.Prefix)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
}

func TestLoad_TradingOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BRIDGE", "USDT")
	t.Setenv("SCOUT_TRANSACTION_FEE", "0.001")
	t.Setenv("SCOUT_MULTIPLIER", "1")
	t.Setenv("SCOUT_SLEEP_SECONDS", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "usdt", cfg.Trading.Bridge)
	assert.Equal(t, 0.001, cfg.Trading.TransactionFee)
	assert.Equal(t, 1.0, cfg.Trading.ScoutMultiplier)
	assert.Equal(t, 10*time.Second, cfg.Trading.ScoutInterval)
}

func TestLoad_MissingSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_BridgeInCoinList(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SUPPORTED_COINS", "btc,idr")

	_, err := Load()
	assert.ErrorContains(t, err, "bridge")
}

func TestLoad_InvalidFee(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCOUT_TRANSACTION_FEE", "1.5")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_LiveTradingNeedsCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PAPER_TRADING", "false")

	_, err := Load()
	assert.ErrorContains(t, err, "INDODAX_API_KEY")

	t.Setenv("INDODAX_API_KEY", "key")
	t.Setenv("INDODAX_API_SECRET", "secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Trading.PaperTrading)
}

func TestLoad_CoinListFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "coins.yaml")
	require.NoError(t, os.WriteFile(path, []byte("coins:\n  - XRP\n  - doge\n"), 0o600))
	t.Setenv("COIN_LIST_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"xrp", "doge"}, cfg.Trading.SupportedCoins)
}

func TestLoadCoinList_MissingFile(t *testing.T) {
	_, err := LoadCoinList(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
