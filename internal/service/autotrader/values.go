package autotrader

import (
	"context"
	"fmt"
	"time"

	"bridgebot/backend/internal/metrics"
	"bridgebot/backend/internal/model"
)

const btc = "btc"

// UpdateValues records the bridge and BTC value of every coin with a
// non-zero balance. A missing quote is stored as zero. The BTC price comes
// from the coin's BTC market when listed, otherwise it is derived through
// the bridge.
func (t *AutoTrader) UpdateValues(ctx context.Context) ([]model.CoinValue, error) {
	snap, err := t.market.GetAllMarketTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch tickers: %w", err)
	}

	coins, err := t.store.GetCoins(ctx)
	if err != nil {
		return nil, fmt.Errorf("load coins: %w", err)
	}

	now := time.Now()
	values := make([]model.CoinValue, 0)
	for _, coin := range coins {
		balance, err := t.market.GetCurrencyBalance(ctx, coin.Symbol)
		if err != nil {
			t.log.Errorf("Failed to read %s balance: %v", coin.Symbol, err)
			continue
		}
		if balance == 0 {
			continue
		}

		bridgePrice, _ := snap.Price(t.symbol(coin.Symbol))
		btcPrice := t.btcPrice(coin.Symbol, bridgePrice, snap)

		cv := model.CoinValue{
			Coin:        coin.Symbol,
			Balance:     balance,
			BridgePrice: bridgePrice,
			BTCPrice:    btcPrice,
			BridgeValue: balance * bridgePrice,
			BTCValue:    balance * btcPrice,
			Bridge:      t.opts.Bridge,
			Datetime:    now,
		}
		if t.journal != nil {
			if err := t.journal.SaveCoinValue(ctx, cv); err != nil {
				t.log.Warnf("Failed to save value of %s: %v", coin.Symbol, err)
			}
		}
		metrics.HoldingValue.WithLabelValues(coin.Symbol).Set(cv.BridgeValue)
		values = append(values, cv)
	}

	if t.notifier != nil && len(values) > 0 {
		t.notifier.NotifyCoinValues(ctx, values)
	}
	return values, nil
}

func (t *AutoTrader) btcPrice(coin string, bridgePrice float64, snap *model.Snapshot) float64 {
	if coin == btc {
		return 1
	}
	if p, ok := snap.Price(coin + btc); ok {
		return p
	}
	if btcBridge, ok := snap.Price(t.symbol(btc)); ok && bridgePrice > 0 {
		return bridgePrice / btcBridge
	}
	return 0
}
