package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridgebot/backend/internal/model"
	"bridgebot/backend/pkg/redis"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
}

func seedUniverse(t *testing.T, repo *RatioRepository, coins ...string) {
	t.Helper()
	ctx := context.Background()
	for _, c := range coins {
		require.NoError(t, repo.UpsertCoin(ctx, c, true))
	}
	for _, from := range coins {
		for _, to := range coins {
			if from != to {
				require.NoError(t, repo.EnsurePair(ctx, from, to))
			}
		}
	}
}

func TestRatioRepository_CoinsKeepRegistrationOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewRatioRepository(newTestRedis(t), "idr")

	seedUniverse(t, repo, "eth", "btc", "ada")
	require.NoError(t, repo.UpsertCoin(ctx, "eth", true))
	require.NoError(t, repo.SetCoinEnabled(ctx, "btc", false))

	coins, err := repo.GetCoins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Coin{
		{Symbol: "eth", Enabled: true},
		{Symbol: "btc", Enabled: false},
		{Symbol: "ada", Enabled: true},
	}, coins)

	tracked, err := repo.AllTrackedCoins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"eth", "ada"}, tracked)
}

func TestRatioRepository_RejectsBridgeCoin(t *testing.T) {
	repo := NewRatioRepository(newTestRedis(t), "idr")

	assert.ErrorIs(t, repo.UpsertCoin(context.Background(), "idr", true), ErrInvalidPair)
	assert.ErrorIs(t, repo.EnsurePair(context.Background(), "btc", "idr"), ErrInvalidPair)
	assert.ErrorIs(t, repo.EnsurePair(context.Background(), "btc", "btc"), ErrInvalidPair)
}

func TestRatioRepository_SetCoinEnabledUnknown(t *testing.T) {
	repo := NewRatioRepository(newTestRedis(t), "idr")

	err := repo.SetCoinEnabled(context.Background(), "doge", true)
	assert.ErrorIs(t, err, ErrCoinNotFound)
}

func TestRatioRepository_RatioLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewRatioRepository(newTestRedis(t), "idr")
	seedUniverse(t, repo, "btc", "eth")

	_, ok, err := repo.GetRatio(ctx, "btc", "eth")
	require.NoError(t, err)
	assert.False(t, ok, "fresh pair must be unset")

	require.NoError(t, repo.SetRatio(ctx, "btc", "eth", 15.25))

	ratio, ok, err := repo.GetRatio(ctx, "btc", "eth")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 15.25, ratio)

	// EnsurePair again must not reset the ratio
	require.NoError(t, repo.EnsurePair(ctx, "btc", "eth"))
	ratio, ok, err = repo.GetRatio(ctx, "btc", "eth")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 15.25, ratio)
}

func TestRatioRepository_SetRatioRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	repo := NewRatioRepository(newTestRedis(t), "idr")
	seedUniverse(t, repo, "btc", "eth")

	for _, v := range []float64{0, -1} {
		assert.ErrorIs(t, repo.SetRatio(ctx, "btc", "eth", v), ErrInvalidRatio)
	}

	_, ok, err := repo.GetRatio(ctx, "btc", "eth")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRatioRepository_PairQueries(t *testing.T) {
	ctx := context.Background()
	repo := NewRatioRepository(newTestRedis(t), "idr")
	seedUniverse(t, repo, "eth", "btc", "ada")
	require.NoError(t, repo.SetRatio(ctx, "btc", "eth", 2))
	require.NoError(t, repo.SetRatio(ctx, "ada", "eth", 0.001))

	from, err := repo.PairsFrom(ctx, "btc")
	require.NoError(t, err)
	require.Len(t, from, 2)
	assert.Equal(t, "ada", from[0].To)
	assert.Nil(t, from[0].Ratio)
	assert.Equal(t, "eth", from[1].To)
	require.NotNil(t, from[1].Ratio)
	assert.Equal(t, 2.0, *from[1].Ratio)

	to, err := repo.PairsWhereTo(ctx, "eth")
	require.NoError(t, err)
	require.Len(t, to, 2)
	assert.Equal(t, "ada", to[0].From)
	assert.Equal(t, "btc", to[1].From)
	assert.True(t, to[0].HasRatio())
	assert.True(t, to[1].HasRatio())

	unset, err := repo.PairsWithoutRatio(ctx)
	require.NoError(t, err)
	assert.Len(t, unset, 4)
}

func TestRatioRepository_PairsFromSkipsDisabledTargets(t *testing.T) {
	ctx := context.Background()
	repo := NewRatioRepository(newTestRedis(t), "idr")
	seedUniverse(t, repo, "btc", "eth", "ada")
	require.NoError(t, repo.SetCoinEnabled(ctx, "eth", false))

	pairs, err := repo.PairsFrom(ctx, "btc")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "ada", pairs[0].To)

	all, err := repo.ListPairs(ctx, "btc")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRatioRepository_SeedUniverse(t *testing.T) {
	ctx := context.Background()
	repo := NewRatioRepository(newTestRedis(t), "idr")

	res, err := repo.SeedUniverse(ctx, []string{"btc", "eth", "ada"})
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Registered: 3, Pairs: 6}, res)
	require.NoError(t, repo.SetRatio(ctx, "btc", "eth", 20))

	res, err = repo.SeedUniverse(ctx, []string{"btc", "eth"})
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Registered: 2, Disabled: 1, Pairs: 2}, res)

	tracked, err := repo.AllTrackedCoins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"btc", "eth"}, tracked)

	ratio, ok, err := repo.GetRatio(ctx, "btc", "eth")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 20.0, ratio)
}

func TestHistoryRepository_ScoutLogIsCapped(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository(newTestRedis(t), 3)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.LogScout(ctx, model.ScoutRecord{
			From:         "btc",
			To:           "eth",
			TargetRatio:  float64(i + 1),
			CurrentPrice: 100,
			OtherPrice:   50,
			Datetime:     base.Add(time.Duration(i) * time.Second),
		}))
	}

	records, total, err := repo.ListScoutHistory(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, records, 3)
	assert.Equal(t, 5.0, records[0].TargetRatio, "newest first")
	assert.Equal(t, 3.0, records[2].TargetRatio)
}

func TestHistoryRepository_ScoutLogKeepsIdenticalRecords(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository(newTestRedis(t), 100)

	rec := model.ScoutRecord{
		From:         "btc",
		To:           "eth",
		TargetRatio:  20,
		CurrentPrice: 100,
		OtherPrice:   5,
		Datetime:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.LogScout(ctx, rec))
	require.NoError(t, repo.LogScout(ctx, rec))

	records, total, err := repo.ListScoutHistory(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, records, 2)
	assert.NotEqual(t, records[0].ID, records[1].ID)
	assert.Equal(t, "eth", records[1].To)
}

func TestHistoryRepository_Jumps(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository(newTestRedis(t), 100)

	first := &model.Jump{ID: "a", From: "btc", To: "eth", State: model.JumpStateSelling,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	second := &model.Jump{ID: "b", From: "eth", To: "ada", State: model.JumpStateSettled,
		CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.SaveJump(ctx, first))
	require.NoError(t, repo.SaveJump(ctx, second))

	first.State = model.JumpStateFailed
	require.NoError(t, repo.SaveJump(ctx, first))

	got, err := repo.GetJump(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, model.JumpStateFailed, got.State)

	jumps, total, err := repo.ListJumps(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, jumps, 2)
	assert.Equal(t, "b", jumps[0].ID)
	assert.Equal(t, "a", jumps[1].ID)

	_, err = repo.GetJump(ctx, "missing")
	assert.ErrorIs(t, err, ErrJumpNotFound)
}

func TestHistoryRepository_CoinValues(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository(newTestRedis(t), 100)

	now := time.Now()
	require.NoError(t, repo.SaveCoinValue(ctx, model.CoinValue{Coin: "btc", Balance: 1, Datetime: now.Add(-time.Minute)}))
	require.NoError(t, repo.SaveCoinValue(ctx, model.CoinValue{Coin: "btc", Balance: 2, Datetime: now}))
	require.NoError(t, repo.SaveCoinValue(ctx, model.CoinValue{Coin: "eth", Balance: 9, Datetime: now}))

	values, err := repo.ListCoinValues(ctx, "btc", 1)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, 2.0, values[0].Balance)
}

func TestBalanceRepository_PaperAccount(t *testing.T) {
	ctx := context.Background()
	repo := NewBalanceRepository(newTestRedis(t))

	created, err := repo.Initialize(ctx, "idr", 1000000)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Initialize(ctx, "idr", 5)
	require.NoError(t, err)
	assert.False(t, created, "existing account is kept")

	require.NoError(t, repo.SavePaperBalances(ctx, map[string]float64{"btc": 0.5, "idr": 10}))

	balances, err := repo.GetPaperBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"idr": 10, "btc": 0.5}, balances)
}
