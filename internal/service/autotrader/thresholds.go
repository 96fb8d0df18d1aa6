package autotrader

import (
	"context"
	"fmt"

	"bridgebot/backend/internal/metrics"
	"bridgebot/backend/internal/model"
)

// InitializeTradeThresholds sets the ratio of every unset pair between two
// enabled coins to fromPrice/toPrice from one fresh snapshot. Pairs with a
// missing quote stay unset and are retried on the next call; pairs that
// already have a ratio are never touched.
func (t *AutoTrader) InitializeTradeThresholds(ctx context.Context) (int, error) {
	snap, err := t.market.GetAllMarketTickers(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch tickers: %w", err)
	}

	pairs, err := t.unsetPairs(ctx)
	if err != nil {
		return 0, err
	}

	initialized := 0
	for _, pair := range pairs {
		t.log.Infof("Initializing %s vs %s", pair.From, pair.To)

		fromPrice, ok := snap.Price(t.symbol(pair.From))
		if !ok {
			t.log.Infof("Skipping initializing %s, symbol not found", t.symbol(pair.From))
			continue
		}
		toPrice, ok := snap.Price(t.symbol(pair.To))
		if !ok {
			t.log.Infof("Skipping initializing %s, symbol not found", t.symbol(pair.To))
			continue
		}

		if err := t.store.SetRatio(ctx, pair.From, pair.To, fromPrice/toPrice); err != nil {
			t.log.Errorf("Failed to initialize ratio %s: %v", pair.Key(), err)
			continue
		}
		initialized++
	}

	metrics.RatioUpdates.WithLabelValues("initialize").Add(float64(initialized))
	return initialized, nil
}

// PendingThresholds counts the unset pairs between two enabled coins
func (t *AutoTrader) PendingThresholds(ctx context.Context) (int, error) {
	pairs, err := t.unsetPairs(ctx)
	if err != nil {
		return 0, err
	}
	return len(pairs), nil
}

func (t *AutoTrader) unsetPairs(ctx context.Context) ([]model.Pair, error) {
	coins, err := t.store.GetCoins(ctx)
	if err != nil {
		return nil, fmt.Errorf("load coins: %w", err)
	}
	enabled := make(map[string]bool, len(coins))
	for _, c := range coins {
		enabled[c.Symbol] = c.Enabled
	}

	pairs, err := t.store.PairsWithoutRatio(ctx)
	if err != nil {
		return nil, fmt.Errorf("load unset pairs: %w", err)
	}

	out := pairs[:0]
	for _, pair := range pairs {
		if enabled[pair.From] && enabled[pair.To] {
			out = append(out, pair)
		}
	}
	return out, nil
}
