package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"bridgebot/backend/internal/metrics"
	"bridgebot/backend/internal/model"
	"bridgebot/backend/internal/service/market"
	"bridgebot/backend/internal/util"
	"bridgebot/backend/pkg/indodax"
	"bridgebot/backend/pkg/logger"
)

// TickerSource returns the latest ticker of every market
type TickerSource interface {
	GetSummaries(ctx context.Context) (*indodax.SummariesResponse, error)
}

// PairRules returns the trading rules of a market
type PairRules interface {
	Pair(ctx context.Context, pairID string) (indodax.Pair, error)
	MinNotional(ctx context.Context, coin, bridge string) (float64, error)
}

// ExchangeOptions tunes private API pacing and order retries
type ExchangeOptions struct {
	RatePerSecond float64
	OrderRetries  int
	RetryBackoff  time.Duration
}

// ExchangeManager is the engine's view of Indodax: snapshots, balances,
// minimum order sizes and whole-balance market orders through the bridge
type ExchangeManager struct {
	tickers TickerSource
	trader  TradeClient
	pairs   PairRules
	limiter *rate.Limiter
	opts    ExchangeOptions
	log     *logger.Logger
}

func NewExchangeManager(tickers TickerSource, trader TradeClient, pairs PairRules, opts ExchangeOptions) *ExchangeManager {
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 3
	}
	if opts.OrderRetries <= 0 {
		opts.OrderRetries = 1
	}
	return &ExchangeManager{
		tickers: tickers,
		trader:  trader,
		pairs:   pairs,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1),
		opts:    opts,
		log:     logger.GetLogger().Component("exchange"),
	}
}

// GetAllMarketTickers takes one price snapshot of every market
func (m *ExchangeManager) GetAllMarketTickers(ctx context.Context) (*model.Snapshot, error) {
	summaries, err := m.tickers.GetSummaries(ctx)
	if err != nil {
		metrics.ExchangeRequests.WithLabelValues("summaries", "error").Inc()
		return nil, err
	}
	metrics.ExchangeRequests.WithLabelValues("summaries", "ok").Inc()
	return market.SnapshotFromSummaries(summaries, time.Now()), nil
}

// GetCurrencyBalance returns the free balance of currency
func (m *ExchangeManager) GetCurrencyBalance(ctx context.Context, currency string) (float64, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	info, err := m.trader.GetInfo(ctx)
	if err != nil {
		metrics.ExchangeRequests.WithLabelValues("getInfo", "error").Inc()
		return 0, err
	}
	metrics.ExchangeRequests.WithLabelValues("getInfo", "ok").Inc()
	return info.Balance[currency].Float64(), nil
}

// GetMinNotional returns the minimum order value of coin/bridge
func (m *ExchangeManager) GetMinNotional(ctx context.Context, coin, bridge string) (float64, error) {
	return m.pairs.MinNotional(ctx, coin, bridge)
}

// SellAlt sells the whole free coin balance into the bridge
func (m *ExchangeManager) SellAlt(ctx context.Context, coin, bridge string, snap *model.Snapshot) (*model.Fill, error) {
	symbol := coin + bridge
	price, ok := snap.Price(symbol)
	if !ok {
		return nil, fmt.Errorf("no price for %s", symbol)
	}

	pair, err := m.pairs.Pair(ctx, symbol)
	if err != nil {
		return nil, err
	}

	balance, err := m.GetCurrencyBalance(ctx, coin)
	if err != nil {
		return nil, err
	}

	check := util.ValidateOrderAmount(balance, price, pair, m.log)
	if !check.Valid {
		return nil, fmt.Errorf("cannot sell %s: %s", symbol, check.Reason)
	}

	m.log.Infof("Selling %.8f %s at ~%.8f %s", check.Amount, coin, price, bridge)
	receipt, err := m.tradeWithRetry(ctx, indodax.TradeRequest{
		Pair:       coin + "_" + bridge,
		Type:       model.SideSell,
		OrderType:  "market",
		Price:      price,
		BaseAmount: check.Amount,
	})
	if err != nil {
		return nil, err
	}

	return fillFromReceipt(receipt, symbol, model.SideSell, coin, bridge, price, check.Amount), nil
}

// BuyAlt spends the whole bridge balance on coin
func (m *ExchangeManager) BuyAlt(ctx context.Context, coin, bridge string, snap *model.Snapshot) (*model.Fill, error) {
	symbol := coin + bridge
	price, ok := snap.Price(symbol)
	if !ok {
		return nil, fmt.Errorf("no price for %s", symbol)
	}

	pair, err := m.pairs.Pair(ctx, symbol)
	if err != nil {
		return nil, err
	}

	balance, err := m.GetCurrencyBalance(ctx, bridge)
	if err != nil {
		return nil, err
	}
	spend := util.FloorToPrecision(balance, util.GetQuotePrecision(bridge))

	check := util.ValidateOrderAmount(util.DivFloat(spend, price), price, pair, m.log)
	if !check.Valid {
		return nil, fmt.Errorf("cannot buy %s: %s", symbol, check.Reason)
	}

	m.log.Infof("Buying %s with %.8f %s at ~%.8f", coin, spend, bridge, price)
	receipt, err := m.tradeWithRetry(ctx, indodax.TradeRequest{
		Pair:        coin + "_" + bridge,
		Type:        model.SideBuy,
		OrderType:   "market",
		Price:       price,
		QuoteAmount: spend,
	})
	if err != nil {
		return nil, err
	}

	return fillFromReceipt(receipt, symbol, model.SideBuy, coin, bridge, price, check.Amount), nil
}

func (m *ExchangeManager) tradeWithRetry(ctx context.Context, req indodax.TradeRequest) (*indodax.TradeReturn, error) {
	// one id for every attempt so the venue can reject duplicates
	req.ClientOrderID = clientOrderID("", req)

	var lastErr error
	for attempt := 1; attempt <= m.opts.OrderRetries; attempt++ {
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		receipt, err := m.trader.Trade(ctx, req)
		if err == nil {
			metrics.ExchangeRequests.WithLabelValues("trade", "ok").Inc()
			return receipt, nil
		}
		metrics.ExchangeRequests.WithLabelValues("trade", "error").Inc()
		lastErr = err

		if util.IsCriticalTradingError(err) || attempt == m.opts.OrderRetries {
			break
		}
		m.log.Warnf("Order %s %s failed (attempt %d/%d): %v", req.Type, req.Pair, attempt, m.opts.OrderRetries, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.opts.RetryBackoff * time.Duration(attempt)):
		}
	}
	return nil, lastErr
}

func fillFromReceipt(receipt *indodax.TradeReturn, symbol, side, coin, bridge string, refPrice, refQty float64) *model.Fill {
	price, qty, ok := receipt.FillPrice(side, coin, bridge)
	if !ok {
		price = refPrice
		if qty <= 0 {
			qty = refQty
		}
	}

	total := receipt.Spend[bridge]
	if side == model.SideSell {
		total = receipt.Receive[bridge]
	}
	if total == 0 {
		total = util.MulFloat(qty, price)
	}

	return &model.Fill{
		OrderID:  fmt.Sprintf("%d", receipt.OrderID),
		Symbol:   symbol,
		Side:     side,
		Price:    price,
		Quantity: qty,
		Total:    total,
	}
}
