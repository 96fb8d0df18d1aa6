package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ScoutPasses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bridgebot_scout_passes_total",
		Help: "Scout passes by outcome (completed, aborted, error)",
	}, []string{"outcome"})

	ScoutPassDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bridgebot_scout_pass_duration_seconds",
		Help:    "Wall time of one scout pass",
		Buckets: prometheus.DefBuckets,
	})

	CandidatesEvaluated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridgebot_candidates_evaluated_total",
		Help: "Pairs scored by the ratio engine",
	})

	PairsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bridgebot_pairs_skipped_total",
		Help: "Pairs skipped while scouting, by reason",
	}, []string{"reason"})

	Jumps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bridgebot_jumps_total",
		Help: "Jumps by final state",
	}, []string{"state"})

	RatioUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bridgebot_ratio_updates_total",
		Help: "Stored ratio writes by source (initialize, recalibrate)",
	}, []string{"source"})

	BridgeRebalances = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridgebot_bridge_rebalances_total",
		Help: "Single-leg buys made from an idle bridge balance",
	})

	ExchangeRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bridgebot_exchange_requests_total",
		Help: "Exchange API calls by method and result",
	}, []string{"method", "result"})

	HoldingValue = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bridgebot_holding_value",
		Help: "Latest bridge-denominated value of each held coin",
	}, []string{"coin"})
)

func init() {
	prometheus.MustRegister(
		ScoutPasses,
		ScoutPassDuration,
		CandidatesEvaluated,
		PairsSkipped,
		Jumps,
		RatioUpdates,
		BridgeRebalances,
		ExchangeRequests,
		HoldingValue,
	)
}
