package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxFailures = 5
	defaultWindow      = 15 * time.Minute
)

// LoginThrottle counts failed logins per username in Redis.
// Key format: login:fail:<username>, matched exactly like the username
// lookup so distinct accounts never share a counter.
//
// The counter's TTL is set on the first failure only, so the window is fixed
// from that failure rather than sliding with every attempt.
type LoginThrottle struct {
	client      redis.Cmdable
	maxFailures int64
	window      time.Duration
}

// NewLoginThrottle locks a username once maxFailures failures land inside window.
// Non-positive values fall back to 5 failures in 15 minutes.
func NewLoginThrottle(client redis.Cmdable, maxFailures int, window time.Duration) *LoginThrottle {
	if maxFailures <= 0 {
		maxFailures = defaultMaxFailures
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &LoginThrottle{client: client, maxFailures: int64(maxFailures), window: window}
}

// Locked reports whether the username has exhausted its failure budget.
func (t *LoginThrottle) Locked(ctx context.Context, username string) (bool, error) {
	n, err := t.client.Get(ctx, t.key(username)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("throttle check: %w", err)
	}
	return n >= t.maxFailures, nil
}

// RecordFailure increments the failure counter, starting the window on the
// first failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, username string) error {
	key := t.key(username)

	n, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("throttle record: %w", err)
	}
	if n == 1 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			return fmt.Errorf("throttle expire: %w", err)
		}
	}
	return nil
}

// Reset forgets every recorded failure for the username.
func (t *LoginThrottle) Reset(ctx context.Context, username string) error {
	if err := t.client.Del(ctx, t.key(username)).Err(); err != nil {
		return fmt.Errorf("throttle reset: %w", err)
	}
	return nil
}

func (t *LoginThrottle) key(username string) string {
	return "login:fail:" + username
}
