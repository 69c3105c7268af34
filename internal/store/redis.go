package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"stocktracker/internal/watchlist"
)

// Redis keeps the watchlist in a list and the users in a hash, both under
// a common key prefix.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ Store = (*Redis)(nil)

// NewRedis wraps client. An empty prefix defaults to "stocktracker".
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "stocktracker"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) watchlistKey() string { return r.prefix + ":watchlist" }
func (r *Redis) usersKey() string     { return r.prefix + ":users" }

// Health checks Redis connectivity.
func (r *Redis) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) List(ctx context.Context) ([]watchlist.Entry, error) {
	raw, err := r.client.LRange(ctx, r.watchlistKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist from redis: %w", err)
	}
	out := make([]watchlist.Entry, 0, len(raw))
	for i, item := range raw {
		var e watchlist.Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal watchlist entry %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *Redis) Append(ctx context.Context, entries []watchlist.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	values := make([]any, len(entries))
	for i, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal watchlist entry %s: %w", e.Symbol, err)
		}
		values[i] = data
	}
	if err := r.client.RPush(ctx, r.watchlistKey(), values...).Err(); err != nil {
		return fmt.Errorf("failed to append watchlist to redis: %w", err)
	}
	return nil
}

func (r *Redis) CreateUser(ctx context.Context, u User) error {
	u.Email = normalizeEmail(u.Email)
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	created, err := r.client.HSetNX(ctx, r.usersKey(), u.Email, data).Result()
	if err != nil {
		return fmt.Errorf("failed to save user to redis: %w", err)
	}
	if !created {
		return ErrUserExists
	}
	return nil
}

func (r *Redis) User(ctx context.Context, email string) (User, error) {
	data, err := r.client.HGet(ctx, r.usersKey(), normalizeEmail(email)).Result()
	if err == redis.Nil {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to get user from redis: %w", err)
	}
	var u User
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		return User{}, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return u, nil
}
