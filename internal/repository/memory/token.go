package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-portal/internal/repository"
)

var _ repository.TokenRepository = (*TokenRepository)(nil)

// TokenRepository keeps client tokens in process memory. Tokens survive page
// reloads but not a portal restart; use the redis repository for that.
type TokenRepository struct {
	cache *cache.Cache
}

func NewTokenRepository(cleanupInterval time.Duration) *TokenRepository {
	return &TokenRepository{
		cache: cache.New(cache.NoExpiration, cleanupInterval),
	}
}

func (r *TokenRepository) Save(ctx context.Context, clientID, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	r.cache.Set(clientID, token, ttl)
	return nil
}

func (r *TokenRepository) Load(ctx context.Context, clientID string) (string, error) {
	v, found := r.cache.Get(clientID)
	if !found {
		return "", nil
	}
	token, _ := v.(string)
	return token, nil
}

func (r *TokenRepository) Clear(ctx context.Context, clientID string) error {
	r.cache.Delete(clientID)
	return nil
}
