package autotrader

import (
	"context"
	"time"

	"bridgebot/backend/internal/metrics"
	"bridgebot/backend/internal/model"
)

// Candidate is one scored jump option of a scout pass
type Candidate struct {
	Pair  model.Pair
	Score float64
}

// AdjustedScore is the fee-adjusted ratio of coinPrice/otherPrice minus the
// stored ratio. Positive means jumping now beats the stored fair value.
func AdjustedScore(coinPrice, otherPrice, storedRatio, fee, multiplier float64) float64 {
	raw := coinPrice / otherPrice
	net := raw - fee*multiplier*raw
	return net - storedRatio
}

// ComputeCandidates scores every pair leaving coin against the snapshot.
// Pairs whose counterpart has no price or whose ratio is unset are skipped.
// The result follows the store's pair order, so equal inputs give equal
// output. The ratio store is not modified.
func (t *AutoTrader) ComputeCandidates(ctx context.Context, coin string, coinPrice float64, snap *model.Snapshot) ([]Candidate, error) {
	pairs, err := t.store.PairsFrom(ctx, coin)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(pairs))
	for _, pair := range pairs {
		otherPrice, ok := snap.Price(t.symbol(pair.To))
		if !ok {
			t.log.Infof("Skipping scouting... optional coin %s not found", t.symbol(pair.To))
			metrics.PairsSkipped.WithLabelValues("missing_price").Inc()
			continue
		}

		if !pair.HasRatio() {
			t.log.Debugf("Skipping %s: ratio not initialized", pair.Key())
			metrics.PairsSkipped.WithLabelValues("unset_ratio").Inc()
			continue
		}
		ratio := *pair.Ratio

		t.logScout(ctx, pair, ratio, coinPrice, otherPrice, snap)

		candidates = append(candidates, Candidate{
			Pair:  pair,
			Score: AdjustedScore(coinPrice, otherPrice, ratio, t.opts.TransactionFee, t.opts.Multiplier),
		})
	}

	metrics.CandidatesEvaluated.Add(float64(len(candidates)))
	return candidates, nil
}

// BestCandidate returns the highest strictly positive candidate. The first
// one seen wins ties.
func BestCandidate(candidates []Candidate) (Candidate, bool) {
	var best Candidate
	found := false
	for _, c := range candidates {
		if c.Score <= 0 {
			continue
		}
		if !found || c.Score > best.Score {
			best = c
			found = true
		}
	}
	return best, found
}

func (t *AutoTrader) logScout(ctx context.Context, pair model.Pair, ratio, coinPrice, otherPrice float64, snap *model.Snapshot) {
	if t.journal == nil {
		return
	}
	at := snap.TakenAt
	if at.IsZero() {
		at = time.Now()
	}
	err := t.journal.LogScout(ctx, model.ScoutRecord{
		From:         pair.From,
		To:           pair.To,
		TargetRatio:  ratio,
		CurrentPrice: coinPrice,
		OtherPrice:   otherPrice,
		Datetime:     at,
	})
	if err != nil {
		t.log.Warnf("Failed to log scout record for %s: %v", pair.Key(), err)
	}
}
