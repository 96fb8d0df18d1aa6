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

// seed registers the configured coin universe and its pairs
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

	ratioRepo := repository.NewRatioRepository(redisClient, cfg.Trading.Bridge)
	res, err := ratioRepo.SeedUniverse(context.Background(), cfg.Trading.SupportedCoins)
	if err != nil {
		log.Fatalf("Failed to seed coins: %v", err)
	}

	fmt.Printf("Registered %d coins (%d disabled), %d pairs against bridge %s\n",
		res.Registered, res.Disabled, res.Pairs, cfg.Trading.Bridge)
}
