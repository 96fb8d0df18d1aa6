package service

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"bridgebot/backend/pkg/redis"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
}
