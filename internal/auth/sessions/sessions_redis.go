package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"cikyc/internal/platform/redis"
	"cikyc/pkg/platform/sentinel"
)

const keyPrefix = "session:"

// Redis is the session registry backed by Redis, shared across instances so a
// logout on one node drops the cached session everywhere.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Save(ctx context.Context, tokenID string, session Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+tokenID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, tokenID string) (*Session, error) {
	payload, err := r.client.Get(ctx, keyPrefix+tokenID).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *Redis) Delete(ctx context.Context, tokenID string) error {
	if err := r.client.Del(ctx, keyPrefix+tokenID).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
