package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttle counts failed login attempts per key in Redis. It guards the
// login endpoint only; the gate itself never rate limits.
type Throttle struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewThrottle constructs a Throttle allowing limit attempts per window.
func NewThrottle(client *redis.Client, limit int, window time.Duration) *Throttle {
	return &Throttle{client: client, limit: int64(limit), window: window}
}

func (t *Throttle) key(email, ip string) string {
	return fmt.Sprintf("login_attempts:%s:%s", email, ip)
}

// Allow reports whether another attempt for the email/ip pair is permitted.
func (t *Throttle) Allow(ctx context.Context, email, ip string) (bool, error) {
	if t == nil || t.client == nil {
		return true, nil
	}
	count, err := t.client.Get(ctx, t.key(email, ip)).Int64()
	if err != nil && err != redis.Nil {
		return false, err
	}
	return count < t.limit, nil
}

// RecordFailure bumps the counter after a rejected login.
func (t *Throttle) RecordFailure(ctx context.Context, email, ip string) error {
	if t == nil || t.client == nil {
		return nil
	}
	key := t.key(email, ip)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return t.client.Expire(ctx, key, t.window).Err()
	}
	return nil
}

// Reset clears the counter after a successful login.
func (t *Throttle) Reset(ctx context.Context, email, ip string) error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Del(ctx, t.key(email, ip)).Err()
}
