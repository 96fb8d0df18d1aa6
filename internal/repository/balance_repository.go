package repository

import (
	"context"
	"fmt"
	"strconv"

	"bridgebot/backend/pkg/redis"
)

// BalanceRepository persists the paper trading account as a currency -> amount hash
type BalanceRepository struct {
	redis *redis.Client
}

func NewBalanceRepository(redisClient *redis.Client) *BalanceRepository {
	return &BalanceRepository{
		redis: redisClient,
	}
}

// Initialize funds the paper account with the bridge currency unless an
// account already exists. It returns true when the account was created.
func (r *BalanceRepository) Initialize(ctx context.Context, bridge string, amount float64) (bool, error) {
	exists, err := r.redis.Exists(ctx, redis.PaperBalanceKey())
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	return r.redis.HSetNX(ctx, redis.PaperBalanceKey(), bridge, formatBalance(amount))
}

// GetPaperBalances returns every paper balance
func (r *BalanceRepository) GetPaperBalances(ctx context.Context) (map[string]float64, error) {
	raw, err := r.redis.HGetAll(ctx, redis.PaperBalanceKey())
	if err != nil {
		return nil, err
	}

	balances := make(map[string]float64, len(raw))
	for currency, v := range raw {
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt paper balance for %s: %w", currency, err)
		}
		balances[currency] = amount
	}
	return balances, nil
}

// SavePaperBalances writes the given balances, leaving other currencies untouched
func (r *BalanceRepository) SavePaperBalances(ctx context.Context, balances map[string]float64) error {
	if len(balances) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(balances)*2)
	for currency, amount := range balances {
		values = append(values, currency, formatBalance(amount))
	}
	return r.redis.HSet(ctx, redis.PaperBalanceKey(), values...)
}

func formatBalance(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
