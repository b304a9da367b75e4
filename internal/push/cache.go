package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisCredentialCache shares issued access tokens across processes so
// that concurrent fan-outs do not each hit the token endpoint.
type RedisCredentialCache struct {
	client *goredis.Client
	now    func() time.Time
}

var _ CredentialCache = (*RedisCredentialCache)(nil)

func NewRedisCredentialCache(client *goredis.Client) (*RedisCredentialCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisCredentialCache{client: client, now: time.Now}, nil
}

type cachedCredential struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func (c *RedisCredentialCache) Get(ctx context.Context, key string) (*Credential, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached credential: %w", err)
	}

	var cached cachedCredential
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, fmt.Errorf("failed to decode cached credential: %w", err)
	}

	return &Credential{
		AccessToken: cached.AccessToken,
		ExpiresAt:   cached.ExpiresAt,
	}, nil
}

func (c *RedisCredentialCache) Set(ctx context.Context, key string, credential *Credential) error {
	if credential == nil {
		return nil
	}

	ttl := credential.ExpiresAt.Sub(c.now())
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(cachedCredential{
		AccessToken: credential.AccessToken,
		ExpiresAt:   credential.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache credential: %w", err)
	}
	return nil
}
