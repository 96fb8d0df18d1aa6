package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"bridgebot/backend/internal/model"
	"bridgebot/backend/internal/repository"
	"bridgebot/backend/internal/util"
	"bridgebot/backend/pkg/indodax"
	"bridgebot/backend/pkg/logger"
)

// LiveTradeClient implements TradeClient for real trading
type LiveTradeClient struct {
	client    *indodax.Client
	apiKey    string
	apiSecret string
}

func NewLiveTradeClient(client *indodax.Client, apiKey, apiSecret string) *LiveTradeClient {
	return &LiveTradeClient{
		client:    client,
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

func (c *LiveTradeClient) GetInfo(ctx context.Context) (*indodax.GetInfoReturn, error) {
	return c.client.GetInfo(ctx, c.apiKey, c.apiSecret)
}

func (c *LiveTradeClient) Trade(ctx context.Context, req indodax.TradeRequest) (*indodax.TradeReturn, error) {
	if req.ClientOrderID == "" {
		req.ClientOrderID = clientOrderID("", req)
	}
	return c.client.Trade(ctx, c.apiKey, c.apiSecret, req)
}

// PaperTradeClient implements TradeClient for simulated trading. Market
// orders fill instantly at the request's reference price, net of fee, and
// balances live in Redis.
type PaperTradeClient struct {
	balances *repository.BalanceRepository
	fee      float64
	bridge   string
	log      *logger.Logger
	mu       sync.Mutex
}

func NewPaperTradeClient(balances *repository.BalanceRepository, bridge string, fee float64) *PaperTradeClient {
	return &PaperTradeClient{
		balances: balances,
		fee:      fee,
		bridge:   bridge,
		log:      logger.GetLogger().Component("paper_trade"),
	}
}

func (c *PaperTradeClient) GetInfo(ctx context.Context) (*indodax.GetInfoReturn, error) {
	balances, err := c.balances.GetPaperBalances(ctx)
	if err != nil {
		return nil, err
	}
	balances = util.ValidateAndNormalizeBalances(balances, c.bridge, c.log)

	balance := make(map[string]indodax.Number, len(balances))
	for k, v := range balances {
		balance[k] = indodax.Number(v)
	}

	return &indodax.GetInfoReturn{
		ServerTime: time.Now().Unix(),
		Balance:    balance,
	}, nil
}

func (c *PaperTradeClient) Trade(ctx context.Context, req indodax.TradeRequest) (*indodax.TradeReturn, error) {
	base, quote, found := strings.Cut(req.Pair, "_")
	if !found {
		return nil, fmt.Errorf("invalid pair %q", req.Pair)
	}
	if req.Price <= 0 {
		return nil, fmt.Errorf("paper trade on %s needs a reference price", req.Pair)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	balances, err := c.balances.GetPaperBalances(ctx)
	if err != nil {
		return nil, err
	}

	result := &indodax.TradeReturn{
		OrderID:       time.Now().UnixNano(),
		ClientOrderID: req.ClientOrderID,
		Receive:       map[string]float64{},
		Spend:         map[string]float64{},
		Sold:          map[string]float64{},
		Remain:        map[string]float64{},
	}
	if result.ClientOrderID == "" {
		result.ClientOrderID = clientOrderID("paper-", req)
	}

	switch req.Type {
	case model.SideBuy:
		spend := req.QuoteAmount
		if req.OrderType != "market" {
			spend = util.MulFloat(req.BaseAmount, req.Price)
		}
		if spend <= 0 || spend > balances[quote] {
			return nil, fmt.Errorf("insufficient balance: need %.8f %s, have %.8f", spend, quote, balances[quote])
		}
		qty := util.DivFloat(spend, req.Price)
		fee := qty * c.fee
		received := qty - fee

		balances[quote] -= spend
		balances[base] += received
		result.Spend[quote] = spend
		result.Receive[base] = received
		result.Fee = fee * req.Price

	case model.SideSell:
		qty := req.BaseAmount
		if qty <= 0 || qty > balances[base] {
			return nil, fmt.Errorf("insufficient balance: need %.8f %s, have %.8f", qty, base, balances[base])
		}
		gross := util.MulFloat(qty, req.Price)
		fee := gross * c.fee

		balances[base] -= qty
		balances[quote] += gross - fee
		result.Sold[base] = qty
		result.Receive[quote] = gross - fee
		result.Fee = fee

	default:
		return nil, fmt.Errorf("unknown order type %q", req.Type)
	}

	balances = util.ValidateAndNormalizeBalances(balances, c.bridge, c.log)
	if err := c.balances.SavePaperBalances(ctx, map[string]float64{base: balances[base], quote: balances[quote]}); err != nil {
		return nil, err
	}
	result.Remain[base] = balances[base]
	result.Remain[quote] = balances[quote]

	return result, nil
}

// clientOrderID builds {prefix}{pair}-{side}-{timestamp}
func clientOrderID(prefix string, req indodax.TradeRequest) string {
	return fmt.Sprintf("%s%s-%s-%d", prefix, strings.ReplaceAll(req.Pair, "_", ""), req.Type, time.Now().UnixMilli())
}
