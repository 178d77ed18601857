package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/clinic-portal/internal/repository"
)

var _ repository.TokenRepository = (*TokenRepository)(nil)

const keyPrefix = "portal:token:"

type TokenRepository struct {
	client redis.UniversalClient
}

func NewTokenRepository(client redis.UniversalClient) *TokenRepository {
	return &TokenRepository{client: client}
}

func key(clientID string) string {
	return keyPrefix + clientID
}

func (r *TokenRepository) Save(ctx context.Context, clientID, token string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, key(clientID), token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func (r *TokenRepository) Load(ctx context.Context, clientID string) (string, error) {
	token, err := r.client.Get(ctx, key(clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

func (r *TokenRepository) Clear(ctx context.Context, clientID string) error {
	if err := r.client.Del(ctx, key(clientID)).Err(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}
