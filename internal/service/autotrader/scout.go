package autotrader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bridgebot/backend/internal/metrics"
	"bridgebot/backend/internal/model"
)

// ScoutPass runs one full scouting cycle on a single snapshot: every held
// coin is checked for a profitable jump, then the idle bridge balance is
// checked once. A coin without a quote aborts the pass with ErrMissingPrice
// and the bridge check is skipped.
func (t *AutoTrader) ScoutPass(ctx context.Context) (*model.ScoutPassSummary, error) {
	start := time.Now()
	summary := &model.ScoutPassSummary{StartedAt: start, Jumps: []string{}}

	err := t.scoutPass(ctx, summary)

	summary.Duration = time.Since(start).String()
	metrics.ScoutPassDuration.Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		metrics.ScoutPasses.WithLabelValues("completed").Inc()
	case errors.Is(err, ErrMissingPrice):
		summary.Aborted = true
		summary.AbortReason = err.Error()
		metrics.ScoutPasses.WithLabelValues("aborted").Inc()
	default:
		metrics.ScoutPasses.WithLabelValues("error").Inc()
	}

	if t.notifier != nil {
		t.notifier.NotifyScoutPass(ctx, summary)
	}
	return summary, err
}

func (t *AutoTrader) scoutPass(ctx context.Context, summary *model.ScoutPassSummary) error {
	snap, err := t.market.GetAllMarketTickers(ctx)
	if err != nil {
		return fmt.Errorf("fetch tickers: %w", err)
	}

	coins, err := t.store.AllTrackedCoins(ctx)
	if err != nil {
		return fmt.Errorf("load coins: %w", err)
	}

	for _, coin := range coins {
		if err := ctx.Err(); err != nil {
			return err
		}

		balance, err := t.market.GetCurrencyBalance(ctx, coin)
		if err != nil {
			t.log.Errorf("Failed to read %s balance: %v", coin, err)
			continue
		}

		price, ok := snap.Price(t.symbol(coin))
		if !ok {
			t.log.Infof("Skipping scouting... current coin %s not found", t.symbol(coin))
			return fmt.Errorf("%w: %s", ErrMissingPrice, t.symbol(coin))
		}

		minNotional, err := t.market.GetMinNotional(ctx, coin, t.opts.Bridge)
		if err != nil {
			t.log.Errorf("Failed to read min notional of %s: %v", t.symbol(coin), err)
			continue
		}
		if price*balance < minNotional {
			continue
		}

		t.log.Infof("Scouting for best trades. Current ticker: %s", t.symbol(coin))
		summary.Evaluated++

		candidates, err := t.ComputeCandidates(ctx, coin, price, snap)
		if err != nil {
			t.log.Errorf("Failed to compute candidates for %s: %v", coin, err)
			continue
		}

		best, ok := BestCandidate(candidates)
		if !ok {
			continue
		}

		t.log.Infof("Will be jumping from %s to %s (score %.8f)", coin, best.Pair.To, best.Score)
		jump, err := t.Jump(ctx, best.Pair, snap)
		if jump != nil {
			summary.Jumps = append(summary.Jumps, jump.ID)
		}
		if err != nil {
			t.log.Warnf("Jump %s failed, going back to scouting mode: %v", best.Pair.Key(), err)
		}
	}

	bought, err := t.BridgeScout(ctx, coins, snap)
	if err != nil {
		t.log.Warnf("Bridge rebalance check failed: %v", err)
	}
	summary.Rebalanced = bought
	return nil
}

// BridgeScout deploys an idle bridge balance. Among the coins that have
// evaluable candidates but none of them positive, the one whose best score
// is lowest is bought with the whole bridge balance, provided the balance
// covers its minimum notional. It returns the coin bought, if any.
func (t *AutoTrader) BridgeScout(ctx context.Context, coins []string, snap *model.Snapshot) (string, error) {
	bridgeBalance, err := t.market.GetCurrencyBalance(ctx, t.opts.Bridge)
	if err != nil {
		return "", fmt.Errorf("read bridge balance: %w", err)
	}

	target := ""
	targetScore := 0.0
	for _, coin := range coins {
		price, ok := snap.Price(t.symbol(coin))
		if !ok {
			continue
		}

		candidates, err := t.ComputeCandidates(ctx, coin, price, snap)
		if err != nil {
			t.log.Errorf("Failed to compute candidates for %s: %v", coin, err)
			continue
		}
		if len(candidates) == 0 {
			continue
		}
		if _, positive := BestCandidate(candidates); positive {
			continue
		}

		best := candidates[0].Score
		for _, c := range candidates[1:] {
			if c.Score > best {
				best = c.Score
			}
		}
		if target == "" || best < targetScore {
			target, targetScore = coin, best
		}
	}

	if target == "" {
		return "", nil
	}

	minNotional, err := t.market.GetMinNotional(ctx, target, t.opts.Bridge)
	if err != nil {
		return "", fmt.Errorf("read min notional of %s: %w", t.symbol(target), err)
	}
	if bridgeBalance < minNotional {
		t.log.Debugf("Bridge balance %.8f below min notional %.8f of %s", bridgeBalance, minNotional, target)
		return "", nil
	}

	t.log.Infof("Will be purchasing %s using bridge coin", target)
	jump := t.newJump(t.opts.Bridge, target, model.JumpStateBuying)
	t.saveJump(ctx, jump)

	fill, err := t.market.BuyAlt(ctx, target, t.opts.Bridge, snap)
	if err != nil || fill == nil {
		t.finishJump(ctx, jump, model.JumpStateFailed, legError(err))
		return "", fmt.Errorf("%w: %s: %v", ErrBuyFailed, target, legError(err))
	}

	jump.BuyFill = fill
	t.finishJump(ctx, jump, model.JumpStateSettled, nil)
	metrics.BridgeRebalances.Inc()
	return target, nil
}
