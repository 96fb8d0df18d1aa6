package autotrader

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bridgebot/backend/internal/metrics"
	"bridgebot/backend/internal/model"
)

// Jump moves the whole pair.From holding into pair.To through the bridge.
//
// A failed sell leaves everything untouched and returns ErrSellFailed. A
// failed buy after a successful sell leaves the proceeds in the bridge
// currency (state rolled_back) and returns ErrBuyFailed; the bridge
// rebalance check redeploys that balance on a later pass. On success every
// ratio pointing at pair.To is recalibrated against the buy fill price.
func (t *AutoTrader) Jump(ctx context.Context, pair model.Pair, snap *model.Snapshot) (*model.Jump, error) {
	jump := t.newJump(pair.From, pair.To, model.JumpStateSelling)
	t.saveJump(ctx, jump)

	// 1. Sell leg
	sellFill, err := t.market.SellAlt(ctx, pair.From, t.opts.Bridge, snap)
	if err != nil || sellFill == nil {
		t.log.Info("Couldn't sell, going back to scouting mode...")
		t.finishJump(ctx, jump, model.JumpStateFailed, legError(err))
		return jump, fmt.Errorf("%w: %s: %v", ErrSellFailed, pair.From, legError(err))
	}
	jump.SellFill = sellFill
	jump.State = model.JumpStateBuying
	t.saveJump(ctx, jump)

	// 2. Buy leg
	buyFill, err := t.market.BuyAlt(ctx, pair.To, t.opts.Bridge, snap)
	if err != nil || buyFill == nil {
		t.log.Info("Couldn't buy, going back to scouting mode...")
		t.finishJump(ctx, jump, model.JumpStateRolledBack, legError(err))
		return jump, fmt.Errorf("%w: %s: %v", ErrBuyFailed, pair.To, legError(err))
	}
	jump.BuyFill = buyFill
	t.finishJump(ctx, jump, model.JumpStateSettled, nil)

	// 3. Recalibrate
	t.UpdateTradeThreshold(ctx, pair.To, buyFill.Price, snap)
	return jump, nil
}

// UpdateTradeThreshold resets the ratio of every pair ending at coin to
// fromPrice/fillPrice. Pairs whose source has no quote are skipped; each
// pair is written independently. It returns the number of ratios written.
func (t *AutoTrader) UpdateTradeThreshold(ctx context.Context, coin string, fillPrice float64, snap *model.Snapshot) int {
	if fillPrice <= 0 {
		t.log.Infof("Skipping update... current coin %s has no fill price", t.symbol(coin))
		return 0
	}

	pairs, err := t.store.PairsWhereTo(ctx, coin)
	if err != nil {
		t.log.Errorf("Failed to load pairs to %s: %v", coin, err)
		return 0
	}

	updated := 0
	for _, pair := range pairs {
		fromPrice, ok := snap.Price(t.symbol(pair.From))
		if !ok {
			t.log.Infof("Skipping update for coin %s not found", t.symbol(pair.From))
			continue
		}

		if err := t.store.SetRatio(ctx, pair.From, pair.To, fromPrice/fillPrice); err != nil {
			t.log.Errorf("Failed to update ratio %s: %v", pair.Key(), err)
			continue
		}
		updated++
	}

	metrics.RatioUpdates.WithLabelValues("recalibrate").Add(float64(updated))
	return updated
}

func (t *AutoTrader) newJump(from, to, state string) *model.Jump {
	return &model.Jump{
		ID:    uuid.New().String(),
		From:  from,
		To:    to,
		State: state,
	}
}

func (t *AutoTrader) finishJump(ctx context.Context, jump *model.Jump, state string, cause error) {
	jump.State = state
	if cause != nil {
		jump.Error = cause.Error()
	}
	t.saveJump(ctx, jump)
	metrics.Jumps.WithLabelValues(state).Inc()

	if t.notifier != nil {
		t.notifier.NotifyJump(ctx, jump)
	}
}

func (t *AutoTrader) saveJump(ctx context.Context, jump *model.Jump) {
	if t.journal == nil {
		return
	}
	if err := t.journal.SaveJump(ctx, jump); err != nil {
		t.log.Warnf("Failed to save jump %s: %v", jump.ID, err)
	}
}

func legError(err error) error {
	if err == nil {
		return errors.New("no fill returned")
	}
	return err
}
