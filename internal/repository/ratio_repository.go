// Package repository provides data access for the application and interacts with Redis.
package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"bridgebot/backend/internal/model"
	"bridgebot/backend/pkg/redis"
)

var (
	ErrCoinNotFound = errors.New("coin not found")
	ErrInvalidRatio = errors.New("ratio must be a finite positive number")
	ErrInvalidPair  = errors.New("invalid pair")
)

// RatioRepository is the Redis-backed ratio store: the coin universe, the
// ordered pairs between coins and the stored fair ratio of every pair
type RatioRepository struct {
	redis  *redis.Client
	bridge string
}

func NewRatioRepository(redisClient *redis.Client, bridge string) *RatioRepository {
	return &RatioRepository{
		redis:  redisClient,
		bridge: bridge,
	}
}

// UpsertCoin registers a coin, or updates its enabled flag if already known.
// Registration order is kept and drives scouting order.
func (r *RatioRepository) UpsertCoin(ctx context.Context, symbol string, enabled bool) error {
	if symbol == "" || symbol == r.bridge {
		return fmt.Errorf("%w: %q cannot be scouted", ErrInvalidPair, symbol)
	}

	n, err := r.redis.ZCard(ctx, redis.AllCoinsKey())
	if err != nil {
		return err
	}
	if err := r.redis.ZAddNX(ctx, redis.AllCoinsKey(), redis.Z{Score: float64(n), Member: symbol}); err != nil {
		return err
	}

	return r.redis.HSet(ctx, redis.CoinKey(symbol), "symbol", symbol, "enabled", boolString(enabled))
}

// SetCoinEnabled toggles an already registered coin
func (r *RatioRepository) SetCoinEnabled(ctx context.Context, symbol string, enabled bool) error {
	exists, err := r.redis.Exists(ctx, redis.CoinKey(symbol))
	if err != nil {
		return err
	}
	if !exists {
		return ErrCoinNotFound
	}
	return r.redis.HSet(ctx, redis.CoinKey(symbol), "enabled", boolString(enabled))
}

// GetCoins returns every registered coin in registration order
func (r *RatioRepository) GetCoins(ctx context.Context) ([]model.Coin, error) {
	symbols, err := r.redis.ZRange(ctx, redis.AllCoinsKey(), 0, -1)
	if err != nil {
		return nil, err
	}

	coins := make([]model.Coin, 0, len(symbols))
	for _, symbol := range symbols {
		enabled, err := r.redis.HGet(ctx, redis.CoinKey(symbol), "enabled")
		if err != nil && err != redis.Nil {
			return nil, err
		}
		coins = append(coins, model.Coin{Symbol: symbol, Enabled: enabled == "1"})
	}
	return coins, nil
}

// AllTrackedCoins returns the enabled coins in registration order
func (r *RatioRepository) AllTrackedCoins(ctx context.Context) ([]string, error) {
	coins, err := r.GetCoins(ctx)
	if err != nil {
		return nil, err
	}
	tracked := make([]string, 0, len(coins))
	for _, c := range coins {
		if c.Enabled {
			tracked = append(tracked, c.Symbol)
		}
	}
	return tracked, nil
}

// EnsurePair registers the ordered pair without touching an existing ratio
func (r *RatioRepository) EnsurePair(ctx context.Context, from, to string) error {
	if err := r.checkPair(from, to); err != nil {
		return err
	}

	pipe := r.redis.TxPipeline()
	pipe.SAdd(ctx, redis.PairsFromKey(from), to)
	pipe.SAdd(ctx, redis.PairsToKey(to), from)
	_, err := pipe.Exec(ctx)
	return err
}

// SeedResult counts the changes made by SeedUniverse
type SeedResult struct {
	Registered int `json:"registered"`
	Disabled   int `json:"disabled"`
	Pairs      int `json:"pairs"`
}

// SeedUniverse enables every listed coin, disables known coins missing from
// the list and registers every ordered pair between listed coins. Stored
// ratios are kept.
func (r *RatioRepository) SeedUniverse(ctx context.Context, coins []string) (SeedResult, error) {
	var res SeedResult

	listed := make(map[string]bool, len(coins))
	for _, c := range coins {
		if err := r.UpsertCoin(ctx, c, true); err != nil {
			return res, err
		}
		listed[c] = true
		res.Registered++
	}

	known, err := r.GetCoins(ctx)
	if err != nil {
		return res, err
	}
	for _, c := range known {
		if listed[c.Symbol] || !c.Enabled {
			continue
		}
		if err := r.SetCoinEnabled(ctx, c.Symbol, false); err != nil {
			return res, err
		}
		res.Disabled++
	}

	for _, from := range coins {
		for _, to := range coins {
			if from == to {
				continue
			}
			if err := r.EnsurePair(ctx, from, to); err != nil {
				return res, err
			}
			res.Pairs++
		}
	}
	return res, nil
}

// GetRatio returns the stored ratio of a pair; ok is false while unset
func (r *RatioRepository) GetRatio(ctx context.Context, from, to string) (float64, bool, error) {
	raw, err := r.redis.HGet(ctx, redis.RatiosKey(), redis.RatioField(from, to))
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt ratio for %s:%s: %w", from, to, err)
	}
	return ratio, true, nil
}

// SetRatio stores a ratio. Zero, negative and non-finite values are rejected
// so a stored ratio is always usable.
func (r *RatioRepository) SetRatio(ctx context.Context, from, to string, ratio float64) error {
	if err := r.checkPair(from, to); err != nil {
		return err
	}
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return fmt.Errorf("%w: %s:%s = %v", ErrInvalidRatio, from, to, ratio)
	}
	return r.redis.HSet(ctx, redis.RatiosKey(), redis.RatioField(from, to), strconv.FormatFloat(ratio, 'g', -1, 64))
}

// PairsFrom returns the pairs leaving from whose target coin is enabled,
// sorted by target symbol
func (r *RatioRepository) PairsFrom(ctx context.Context, from string) ([]model.Pair, error) {
	pairs, err := r.ListPairs(ctx, from)
	if err != nil {
		return nil, err
	}

	enabled, err := r.enabledSet(ctx)
	if err != nil {
		return nil, err
	}

	out := pairs[:0]
	for _, p := range pairs {
		if enabled[p.To] {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListPairs returns every pair leaving from regardless of coin state
func (r *RatioRepository) ListPairs(ctx context.Context, from string) ([]model.Pair, error) {
	targets, err := r.redis.SMembers(ctx, redis.PairsFromKey(from))
	if err != nil {
		return nil, err
	}
	sort.Strings(targets)

	pairs := make([]model.Pair, len(targets))
	for i, to := range targets {
		pairs[i] = model.Pair{From: from, To: to}
	}
	return pairs, r.loadRatios(ctx, pairs)
}

// PairsWhereTo returns every pair ending at to, sorted by source symbol
func (r *RatioRepository) PairsWhereTo(ctx context.Context, to string) ([]model.Pair, error) {
	sources, err := r.redis.SMembers(ctx, redis.PairsToKey(to))
	if err != nil {
		return nil, err
	}
	sort.Strings(sources)

	pairs := make([]model.Pair, len(sources))
	for i, from := range sources {
		pairs[i] = model.Pair{From: from, To: to}
	}
	return pairs, r.loadRatios(ctx, pairs)
}

// PairsWithoutRatio returns every registered pair whose ratio is unset
func (r *RatioRepository) PairsWithoutRatio(ctx context.Context) ([]model.Pair, error) {
	coins, err := r.GetCoins(ctx)
	if err != nil {
		return nil, err
	}

	var unset []model.Pair
	for _, c := range coins {
		pairs, err := r.ListPairs(ctx, c.Symbol)
		if err != nil {
			return nil, err
		}
		for _, p := range pairs {
			if p.Ratio == nil {
				unset = append(unset, p)
			}
		}
	}
	return unset, nil
}

func (r *RatioRepository) loadRatios(ctx context.Context, pairs []model.Pair) error {
	if len(pairs) == 0 {
		return nil
	}

	fields := make([]string, len(pairs))
	for i, p := range pairs {
		fields[i] = redis.RatioField(p.From, p.To)
	}

	values, err := r.redis.HMGet(ctx, redis.RatiosKey(), fields...)
	if err != nil {
		return err
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		ratio, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("corrupt ratio for %s: %w", fields[i], err)
		}
		pairs[i].Ratio = &ratio
	}
	return nil
}

func (r *RatioRepository) enabledSet(ctx context.Context) (map[string]bool, error) {
	coins, err := r.GetCoins(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(coins))
	for _, c := range coins {
		set[c.Symbol] = c.Enabled
	}
	return set, nil
}

func (r *RatioRepository) checkPair(from, to string) error {
	if from == "" || to == "" || from == to || from == r.bridge || to == r.bridge {
		return fmt.Errorf("%w: %s:%s", ErrInvalidPair, from, to)
	}
	return nil
}

func boolString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
