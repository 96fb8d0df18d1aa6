package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"bridgebot/backend/internal/config"
	"bridgebot/backend/internal/repository"
	"bridgebot/backend/pkg/redis"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	redis.InitKeys(cfg.Redis.Prefix)
	ctx := context.Background()

	ratioRepo := repository.NewRatioRepository(redisClient, cfg.Trading.Bridge)
	coins, err := ratioRepo.GetCoins(ctx)
	if err != nil {
		log.Fatalf("Failed to load coins: %v", err)
	}

	fmt.Printf("Found %d coins (bridge %s)\n", len(coins), cfg.Trading.Bridge)
	for _, coin := range coins {
		pairs, err := ratioRepo.ListPairs(ctx, coin.Symbol)
		if err != nil {
			log.Fatalf("Failed to load pairs of %s: %v", coin.Symbol, err)
		}

		unset := 0
		for _, p := range pairs {
			if !p.HasRatio() {
				unset++
			}
		}
		fmt.Printf("- %-8s enabled=%-5v pairs=%d unset=%d\n", coin.Symbol, coin.Enabled, len(pairs), unset)
	}

	pairsKey := redis.CachePairsKey()
	exists, _ := redisClient.Exists(ctx, pairsKey)
	fmt.Printf("Metadata Pairs Key (%s) exists: %v\n", pairsKey, exists)

	scoutKeys, err := redisClient.Keys(ctx, redis.ScoutHistoryKey())
	if err == nil {
		fmt.Printf("Scout history present: %v\n", len(scoutKeys) > 0)
	}
}
