package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient parses cfg.URL and returns a client that has answered a ping.
func NewRedisClient(ctx context.Context, cfg config.Redis, log *logger.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		log.Err(err).Str("func", "NewRedisClient").Msg("error parsing redis URL")
		return nil, fmt.Errorf("error parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err = client.Ping(ctx).Err(); err != nil {
		client.Close()
		log.Err(err).Str("func", "NewRedisClient").Msg("error pinging redis")
		return nil, fmt.Errorf("error pinging redis: %w", err)
	}
	log.Info().Str("func", "NewRedisClient").Msg("connected to redis successfully")

	return client, nil
}
