package market

import (
	"strings"
	"time"

	"bridgebot/backend/internal/model"
	"bridgebot/backend/pkg/indodax"
)

// SnapshotFromSummaries converts /api/summaries into a price snapshot keyed
// by pair ID. Indodax summaries use btc_idr format, we use btcidr.
// Markets without a positive last price are left out.
func SnapshotFromSummaries(summaries *indodax.SummariesResponse, now time.Time) *model.Snapshot {
	snap := &model.Snapshot{
		Prices:  make(map[string]float64, len(summaries.Tickers)),
		TakenAt: now,
	}
	for tickerID, detail := range summaries.Tickers {
		last := detail.Last.Float64()
		if last <= 0 {
			continue
		}
		snap.Prices[strings.ReplaceAll(tickerID, "_", "")] = last
	}
	return snap
}
