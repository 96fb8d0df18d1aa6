package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridgebot/backend/internal/model"
	"bridgebot/backend/internal/repository"
	"bridgebot/backend/internal/util"
	"bridgebot/backend/pkg/indodax"
)

func newPaperClient(t *testing.T, idr float64) (*PaperTradeClient, *repository.BalanceRepository) {
	t.Helper()
	balances := repository.NewBalanceRepository(newTestRedis(t))
	created, err := balances.Initialize(context.Background(), "idr", idr)
	require.NoError(t, err)
	require.True(t, created)
	return NewPaperTradeClient(balances, "idr", 0.003), balances
}

func TestPaperTradeClient_MarketBuyAndSell(t *testing.T) {
	ctx := context.Background()
	client, balances := newPaperClient(t, 1000000)

	buy, err := client.Trade(ctx, indodax.TradeRequest{
		Pair:        "btc_idr",
		Type:        model.SideBuy,
		OrderType:   "market",
		Price:       100000000,
		QuoteAmount: 500000,
	})
	require.NoError(t, err)
	assert.Equal(t, 500000.0, buy.Spend["idr"])
	assert.InDelta(t, 0.005*0.997, buy.Receive["btc"], 1e-12)
	assert.Contains(t, buy.ClientOrderID, "paper-btcidr-buy-")

	stored, err := balances.GetPaperBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, 500000.0, stored["idr"])
	assert.InDelta(t, 0.004985, stored["btc"], 1e-12)

	sell, err := client.Trade(ctx, indodax.TradeRequest{
		Pair:       "btc_idr",
		Type:       model.SideSell,
		OrderType:  "market",
		Price:      100000000,
		BaseAmount: stored["btc"],
	})
	require.NoError(t, err)
	assert.InDelta(t, 498500*0.997, sell.Receive["idr"], 1e-6)

	info, err := client.GetInfo(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 500000+498500*0.997, info.Balance["idr"].Float64(), 1e-6)
	assert.InDelta(t, 0, info.Balance["btc"].Float64(), 1e-12)
}

func TestPaperTradeClient_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	client, balances := newPaperClient(t, 1000)

	_, err := client.Trade(ctx, indodax.TradeRequest{
		Pair:        "btc_idr",
		Type:        model.SideBuy,
		OrderType:   "market",
		Price:       100000000,
		QuoteAmount: 5000,
	})
	require.Error(t, err)
	assert.True(t, util.IsCriticalTradingError(err))

	_, err = client.Trade(ctx, indodax.TradeRequest{
		Pair:       "eth_idr",
		Type:       model.SideSell,
		OrderType:  "market",
		Price:      50000000,
		BaseAmount: 1,
	})
	assert.ErrorContains(t, err, "insufficient balance")

	stored, err := balances.GetPaperBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"idr": 1000}, stored)
}

func TestPaperTradeClient_RejectsBadRequests(t *testing.T) {
	ctx := context.Background()
	client, _ := newPaperClient(t, 1000)

	_, err := client.Trade(ctx, indodax.TradeRequest{Pair: "btcidr", Type: model.SideBuy, Price: 1, QuoteAmount: 1})
	assert.ErrorContains(t, err, "invalid pair")

	_, err = client.Trade(ctx, indodax.TradeRequest{Pair: "btc_idr", Type: model.SideBuy, OrderType: "market", QuoteAmount: 1})
	assert.ErrorContains(t, err, "reference price")

	_, err = client.Trade(ctx, indodax.TradeRequest{Pair: "btc_idr", Type: "hold", Price: 1})
	assert.ErrorContains(t, err, "unknown order type")
}

func TestPaperTradeClient_InitializeKeepsExistingAccount(t *testing.T) {
	ctx := context.Background()
	_, balances := newPaperClient(t, 1000)

	created, err := balances.Initialize(ctx, "idr", 999999)
	require.NoError(t, err)
	assert.False(t, created)

	stored, err := balances.GetPaperBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, stored["idr"])
}
