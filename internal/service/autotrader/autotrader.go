// Package autotrader holds the ratio scouting engine: it scores every
// coin-to-coin jump against the stored fair ratios, executes the best one
// through the bridge currency and recalibrates ratios after each trade.
package autotrader

import (
	"context"
	"errors"

	"bridgebot/backend/internal/model"
	"bridgebot/backend/pkg/logger"
)

var (
	// ErrMissingPrice aborts a scout pass when a scouted coin has no quote
	ErrMissingPrice = errors.New("missing price data")
	ErrSellFailed   = errors.New("sell leg failed")
	ErrBuyFailed    = errors.New("buy leg failed")
)

// Market is the exchange the engine trades on
type Market interface {
	GetAllMarketTickers(ctx context.Context) (*model.Snapshot, error)
	GetCurrencyBalance(ctx context.Context, currency string) (float64, error)
	GetMinNotional(ctx context.Context, coin, bridge string) (float64, error)
	SellAlt(ctx context.Context, coin, bridge string, snapshot *model.Snapshot) (*model.Fill, error)
	BuyAlt(ctx context.Context, coin, bridge string, snapshot *model.Snapshot) (*model.Fill, error)
}

// RatioStore holds the coin universe and the fair ratio of every pair
type RatioStore interface {
	GetCoins(ctx context.Context) ([]model.Coin, error)
	AllTrackedCoins(ctx context.Context) ([]string, error)
	PairsFrom(ctx context.Context, from string) ([]model.Pair, error)
	PairsWhereTo(ctx context.Context, to string) ([]model.Pair, error)
	PairsWithoutRatio(ctx context.Context) ([]model.Pair, error)
	SetRatio(ctx context.Context, from, to string, ratio float64) error
}

// Journal receives observational records. Failures are logged and never
// change a trading decision.
type Journal interface {
	LogScout(ctx context.Context, rec model.ScoutRecord) error
	SaveJump(ctx context.Context, jump *model.Jump) error
	SaveCoinValue(ctx context.Context, cv model.CoinValue) error
}

// Notifier pushes engine events to operators
type Notifier interface {
	NotifyScoutPass(ctx context.Context, summary *model.ScoutPassSummary)
	NotifyJump(ctx context.Context, jump *model.Jump)
	NotifyCoinValues(ctx context.Context, values []model.CoinValue)
}

// Options are the scouting parameters
type Options struct {
	Bridge         string
	TransactionFee float64
	Multiplier     float64
}

// AutoTrader runs scout passes. It is not safe for concurrent passes; the
// scheduler serializes calls.
type AutoTrader struct {
	market   Market
	store    RatioStore
	journal  Journal
	notifier Notifier
	opts     Options
	log      *logger.Logger
}

// New creates an AutoTrader. notifier may be nil.
func New(market Market, store RatioStore, journal Journal, notifier Notifier, opts Options, log *logger.Logger) *AutoTrader {
	if log == nil {
		log = logger.GetLogger()
	}
	return &AutoTrader{
		market:   market,
		store:    store,
		journal:  journal,
		notifier: notifier,
		opts:     opts,
		log:      log.Component("autotrader"),
	}
}

// Bridge returns the bridge currency
func (t *AutoTrader) Bridge() string {
	return t.opts.Bridge
}

func (t *AutoTrader) symbol(coin string) string {
	return coin + t.opts.Bridge
}
