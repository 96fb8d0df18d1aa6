package autotrader

import (
	"context"
	"errors"
	"math"
	"sort"

	"bridgebot/backend/internal/model"
)

const testBridge = "idr"

type fakeMarket struct {
	prices      map[string]float64 // keyed by coin
	balances    map[string]float64
	minNotional float64
	buyPrice    map[string]float64
	sellErr     error
	buyErr      error

	sells []string
	buys  []string
}

func newFakeMarket(prices map[string]float64) *fakeMarket {
	return &fakeMarket{
		prices:      prices,
		balances:    map[string]float64{},
		minNotional: 1,
		buyPrice:    map[string]float64{},
	}
}

func (m *fakeMarket) GetAllMarketTickers(ctx context.Context) (*model.Snapshot, error) {
	snap := &model.Snapshot{Prices: map[string]float64{}}
	for coin, p := range m.prices {
		snap.Prices[coin+testBridge] = p
	}
	return snap, nil
}

func (m *fakeMarket) GetCurrencyBalance(ctx context.Context, currency string) (float64, error) {
	return m.balances[currency], nil
}

func (m *fakeMarket) GetMinNotional(ctx context.Context, coin, bridge string) (float64, error) {
	return m.minNotional, nil
}

func (m *fakeMarket) SellAlt(ctx context.Context, coin, bridge string, snap *model.Snapshot) (*model.Fill, error) {
	m.sells = append(m.sells, coin)
	if m.sellErr != nil {
		return nil, m.sellErr
	}
	price, _ := snap.Price(coin + bridge)
	qty := m.balances[coin]
	m.balances[coin] = 0
	m.balances[bridge] += qty * price
	return &model.Fill{Symbol: coin + bridge, Side: model.SideSell, Price: price, Quantity: qty, Total: qty * price}, nil
}

func (m *fakeMarket) BuyAlt(ctx context.Context, coin, bridge string, snap *model.Snapshot) (*model.Fill, error) {
	m.buys = append(m.buys, coin)
	if m.buyErr != nil {
		return nil, m.buyErr
	}
	price, ok := m.buyPrice[coin]
	if !ok {
		price, _ = snap.Price(coin + bridge)
	}
	total := m.balances[bridge]
	m.balances[bridge] = 0
	m.balances[coin] += total / price
	return &model.Fill{Symbol: coin + bridge, Side: model.SideBuy, Price: price, Quantity: total / price, Total: total}, nil
}

type fakeStore struct {
	coins    []model.Coin
	ratios   map[string]float64
	setCalls int
}

func newFakeStore(symbols ...string) *fakeStore {
	s := &fakeStore{ratios: map[string]float64{}}
	for _, sym := range symbols {
		s.coins = append(s.coins, model.Coin{Symbol: sym, Enabled: true})
	}
	return s
}

func (s *fakeStore) disable(symbol string) {
	for i := range s.coins {
		if s.coins[i].Symbol == symbol {
			s.coins[i].Enabled = false
		}
	}
}

func (s *fakeStore) ratio(from, to string) (float64, bool) {
	r, ok := s.ratios[from+":"+to]
	return r, ok
}

func (s *fakeStore) pair(from, to string) model.Pair {
	p := model.Pair{From: from, To: to}
	if r, ok := s.ratio(from, to); ok {
		p.Ratio = &r
	}
	return p
}

func (s *fakeStore) enabled(symbol string) bool {
	for _, c := range s.coins {
		if c.Symbol == symbol {
			return c.Enabled
		}
	}
	return false
}

func (s *fakeStore) symbols() []string {
	out := make([]string, 0, len(s.coins))
	for _, c := range s.coins {
		out = append(out, c.Symbol)
	}
	sort.Strings(out)
	return out
}

func (s *fakeStore) GetCoins(ctx context.Context) ([]model.Coin, error) {
	return append([]model.Coin(nil), s.coins...), nil
}

func (s *fakeStore) AllTrackedCoins(ctx context.Context) ([]string, error) {
	var out []string
	for _, c := range s.coins {
		if c.Enabled {
			out = append(out, c.Symbol)
		}
	}
	return out, nil
}

func (s *fakeStore) PairsFrom(ctx context.Context, from string) ([]model.Pair, error) {
	var out []model.Pair
	for _, to := range s.symbols() {
		if to != from && s.enabled(to) {
			out = append(out, s.pair(from, to))
		}
	}
	return out, nil
}

func (s *fakeStore) PairsWhereTo(ctx context.Context, to string) ([]model.Pair, error) {
	var out []model.Pair
	for _, from := range s.symbols() {
		if from != to {
			out = append(out, s.pair(from, to))
		}
	}
	return out, nil
}

func (s *fakeStore) PairsWithoutRatio(ctx context.Context) ([]model.Pair, error) {
	var out []model.Pair
	for _, from := range s.symbols() {
		for _, to := range s.symbols() {
			if from == to {
				continue
			}
			if _, ok := s.ratio(from, to); !ok {
				out = append(out, model.Pair{From: from, To: to})
			}
		}
	}
	return out, nil
}

func (s *fakeStore) SetRatio(ctx context.Context, from, to string, ratio float64) error {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return errors.New("invalid ratio")
	}
	s.setCalls++
	s.ratios[from+":"+to] = ratio
	return nil
}

func (s *fakeStore) snapshotRatios() map[string]float64 {
	out := make(map[string]float64, len(s.ratios))
	for k, v := range s.ratios {
		out[k] = v
	}
	return out
}

type fakeJournal struct {
	scouts []model.ScoutRecord
	jumps  map[string]model.Jump
	values []model.CoinValue
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{jumps: map[string]model.Jump{}}
}

func (j *fakeJournal) LogScout(ctx context.Context, rec model.ScoutRecord) error {
	j.scouts = append(j.scouts, rec)
	return nil
}

func (j *fakeJournal) SaveJump(ctx context.Context, jump *model.Jump) error {
	j.jumps[jump.ID] = *jump
	return nil
}

func (j *fakeJournal) SaveCoinValue(ctx context.Context, cv model.CoinValue) error {
	j.values = append(j.values, cv)
	return nil
}

type fakeNotifier struct {
	passes int
	jumps  []string
	values int
}

func (n *fakeNotifier) NotifyScoutPass(ctx context.Context, summary *model.ScoutPassSummary) {
	n.passes++
}

func (n *fakeNotifier) NotifyJump(ctx context.Context, jump *model.Jump) {
	n.jumps = append(n.jumps, jump.State)
}

func (n *fakeNotifier) NotifyCoinValues(ctx context.Context, values []model.CoinValue) {
	n.values += len(values)
}

func pairKeys(candidates []Candidate) []string {
	keys := make([]string, len(candidates))
	for i, c := range candidates {
		keys[i] = c.Pair.Key()
	}
	return keys
}
