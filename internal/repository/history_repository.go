package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"bridgebot/backend/internal/model"
	"bridgebot/backend/pkg/redis"
)

// CoinValueMaxItems keeps a week of one-minute valuations per coin
const CoinValueMaxItems = 7 * 24 * 60

var ErrJumpNotFound = errors.New("jump not found")

// HistoryRepository stores the observational scout log, jump records and
// coin valuations
type HistoryRepository struct {
	redis           *redis.Client
	scoutHistoryMax int64
}

func NewHistoryRepository(redisClient *redis.Client, scoutHistoryMax int64) *HistoryRepository {
	return &HistoryRepository{
		redis:           redisClient,
		scoutHistoryMax: scoutHistoryMax,
	}
}

// LogScout appends one scout record, trimming the log to its newest entries.
// Each record gets its own id so identical evaluations are kept apart.
func (r *HistoryRepository) LogScout(ctx context.Context, rec model.ScoutRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Datetime.IsZero() {
		rec.Datetime = time.Now()
	}
	return r.redis.ZAddJSON(ctx, redis.ScoutHistoryKey(), rec.Datetime, rec, r.scoutHistoryMax)
}

// ListScoutHistory returns the newest scout records first
func (r *HistoryRepository) ListScoutHistory(ctx context.Context, limit int) ([]model.ScoutRecord, int64, error) {
	records := make([]model.ScoutRecord, 0, max(limit, 0))
	err := r.redis.ZRevRangeJSON(ctx, redis.ScoutHistoryKey(), limit, func(raw []byte) error {
		var rec model.ScoutRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	total, err := r.redis.ZCard(ctx, redis.ScoutHistoryKey())
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// SaveJump creates or updates a jump record
func (r *HistoryRepository) SaveJump(ctx context.Context, jump *model.Jump) error {
	now := time.Now()
	if jump.CreatedAt.IsZero() {
		jump.CreatedAt = now
	}
	jump.UpdatedAt = now

	if err := r.redis.SetJSON(ctx, redis.JumpKey(jump.ID), jump, 0); err != nil {
		return err
	}
	return r.redis.ZAddNX(ctx, redis.JumpsKey(), redis.Z{
		Score:  float64(jump.CreatedAt.UnixNano()),
		Member: jump.ID,
	})
}

// GetJump loads one jump record
func (r *HistoryRepository) GetJump(ctx context.Context, id string) (*model.Jump, error) {
	var jump model.Jump
	if err := r.redis.GetJSON(ctx, redis.JumpKey(id), &jump); err != nil {
		if err == redis.Nil {
			return nil, ErrJumpNotFound
		}
		return nil, err
	}
	return &jump, nil
}

// ListJumps returns the newest jumps first
func (r *HistoryRepository) ListJumps(ctx context.Context, limit int) ([]model.Jump, int64, error) {
	stop := int64(limit - 1)
	if limit <= 0 {
		stop = -1
	}

	ids, err := r.redis.ZRevRange(ctx, redis.JumpsKey(), 0, stop)
	if err != nil {
		return nil, 0, err
	}

	jumps := make([]model.Jump, 0, len(ids))
	for _, id := range ids {
		jump, err := r.GetJump(ctx, id)
		if err != nil {
			if errors.Is(err, ErrJumpNotFound) {
				continue
			}
			return nil, 0, err
		}
		jumps = append(jumps, *jump)
	}

	total, err := r.redis.ZCard(ctx, redis.JumpsKey())
	if err != nil {
		return nil, 0, err
	}
	return jumps, total, nil
}

// SaveCoinValue appends a valuation to the coin's value history
func (r *HistoryRepository) SaveCoinValue(ctx context.Context, cv model.CoinValue) error {
	return r.redis.ZAddJSON(ctx, redis.CoinValuesKey(cv.Coin), cv.Datetime, cv, CoinValueMaxItems)
}

// ListCoinValues returns the newest valuations of coin first
func (r *HistoryRepository) ListCoinValues(ctx context.Context, coin string, limit int) ([]model.CoinValue, error) {
	values := make([]model.CoinValue, 0, max(limit, 0))
	err := r.redis.ZRevRangeJSON(ctx, redis.CoinValuesKey(coin), limit, func(raw []byte) error {
		var cv model.CoinValue
		if err := json.Unmarshal(raw, &cv); err != nil {
			return err
		}
		values = append(values, cv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}
