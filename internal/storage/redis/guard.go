// Package redis keeps short-lived delivery claims so repeated webhooks for
// one job write a single note.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "note_ingest:delivery:"

type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type Guard struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New connects and pings the server.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Guard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}

	return NewWithClient(client, cfg.TTL, logger), nil
}

func NewWithClient(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Guard {
	return &Guard{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "delivery_guard"),
	}
}

// Claim reports whether jobID was unclaimed. The claim expires after the TTL.
func (g *Guard) Claim(ctx context.Context, jobID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, keyPrefix+jobID, "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim delivery %s: %w", jobID, err)
	}
	if !ok {
		g.logger.Debug("delivery already claimed", "job_id", jobID)
	}
	return ok, nil
}

// Release drops the claim on jobID so a redelivery is processed again.
func (g *Guard) Release(ctx context.Context, jobID string) error {
	if err := g.client.Del(ctx, keyPrefix+jobID).Err(); err != nil {
		return fmt.Errorf("release delivery %s: %w", jobID, err)
	}
	return nil
}

func (g *Guard) Close() error {
	return g.client.Close()
}
