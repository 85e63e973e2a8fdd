package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter blocks until a remote model call may proceed
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewLocalLimiter throttles calls made by this process. A non-positive rate
// disables throttling.
func NewLocalLimiter(requestsPerSecond float64) Limiter {
	if requestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
}

// Default shared quotas per provider
const (
	DefaultRPM = 1000   // Requests per minute
	DefaultRPD = 10_000 // Requests per day
)

// QuotaError reports that a shared quota is (nearly) exhausted
type QuotaError struct {
	Window     string // "RPM" or "RPD"
	Current    int64
	Limit      int64
	RetryAfter time.Duration
}

func (e *QuotaError) Error() string {
	if e.Window == "RPD" {
		return fmt.Sprintf("daily quota exceeded: %d/%d requests (resets in %s)", e.Current, e.Limit, e.RetryAfter)
	}
	return fmt.Sprintf("approaching %s limit (%d/%d), wait %s", e.Window, e.Current, e.Limit, e.RetryAfter)
}

// QuotaLimiter enforces per-provider request quotas shared by every gitintel
// process pointed at the same Redis, e.g. parallel CI jobs using one API key.
type QuotaLimiter struct {
	redis    *redis.Client
	provider string
	rpmLimit int64
	rpdLimit int64
	now      func() time.Time
	logger   *slog.Logger
}

// quotaScript increments both counters and reports the first exceeded window.
// Minute keys expire after 70s (10s buffer for clock skew), day keys after 24h.
var quotaScript = redis.NewScript(`
	local rpm_key = KEYS[1]
	local rpd_key = KEYS[2]
	local rpm_limit = tonumber(ARGV[1])
	local rpd_limit = tonumber(ARGV[2])

	local rpm = redis.call('INCR', rpm_key)
	local rpd = redis.call('INCR', rpd_key)

	if rpm == 1 then redis.call('EXPIRE', rpm_key, 70) end
	if rpd == 1 then redis.call('EXPIRE', rpd_key, 86400) end

	if rpd > rpd_limit then
		return {-2, rpd, rpd_limit}
	end
	if rpm >= rpm_limit * 0.9 then
		return {-1, rpm, rpm_limit}
	end
	return {0, rpm, rpd}
`)

// NewQuotaLimiter connects to Redis at addr. Non-positive limits use the defaults.
func NewQuotaLimiter(ctx context.Context, addr, provider string, rpm, rpd int64) (*QuotaLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	if rpm <= 0 {
		rpm = DefaultRPM
	}
	if rpd <= 0 {
		rpd = DefaultRPD
	}

	return &QuotaLimiter{
		redis:    client,
		provider: provider,
		rpmLimit: rpm,
		rpdLimit: rpd,
		now:      time.Now,
		logger:   slog.Default().With("component", "llm", "provider", provider),
	}, nil
}

func (q *QuotaLimiter) keys(now time.Time) (string, string) {
	now = now.UTC()
	return fmt.Sprintf("gitintel:%s:rpm:%s", q.provider, now.Format("2006-01-02T15:04")),
		fmt.Sprintf("gitintel:%s:rpd:%s", q.provider, now.Format("2006-01-02"))
}

// CheckAndIncrement counts one request and returns a *QuotaError when a
// window is at 90% (minute) or exhausted (day).
func (q *QuotaLimiter) CheckAndIncrement(ctx context.Context) error {
	now := q.now()
	minuteKey, dayKey := q.keys(now)

	result, err := quotaScript.Run(ctx, q.redis, []string{minuteKey, dayKey}, q.rpmLimit, q.rpdLimit).Int64Slice()
	if err != nil {
		return fmt.Errorf("rate limiter Redis operation failed: %w", err)
	}
	if len(result) < 3 {
		return fmt.Errorf("invalid rate limiter response format")
	}

	switch result[0] {
	case -2:
		utc := now.UTC()
		midnight := time.Date(utc.Year(), utc.Month(), utc.Day()+1, 0, 0, 0, 0, time.UTC)
		return &QuotaError{Window: "RPD", Current: result[1], Limit: result[2], RetryAfter: midnight.Sub(utc)}
	case -1:
		wait := time.Duration(60-now.Second()) * time.Second
		return &QuotaError{Window: "RPM", Current: result[1], Limit: result[2], RetryAfter: wait}
	}
	return nil
}

// Wait implements Limiter. It sleeps through minute throttling and fails
// fast once the daily quota is gone.
func (q *QuotaLimiter) Wait(ctx context.Context) error {
	for {
		err := q.CheckAndIncrement(ctx)
		if err == nil {
			return nil
		}

		qe, ok := err.(*QuotaError)
		if !ok || qe.Window == "RPD" {
			return err
		}

		q.logger.Warn("rate limit approaching, throttling", "wait", qe.RetryAfter, "current", qe.Current, "limit", qe.Limit)
		select {
		case <-time.After(qe.RetryAfter):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Usage returns the current minute and day counters
func (q *QuotaLimiter) Usage(ctx context.Context) (int64, int64, error) {
	minuteKey, dayKey := q.keys(q.now())

	pipe := q.redis.Pipeline()
	rpmCmd := pipe.Get(ctx, minuteKey)
	rpdCmd := pipe.Get(ctx, dayKey)

	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return 0, 0, fmt.Errorf("failed to get usage stats: %w", err)
	}

	rpm, _ := rpmCmd.Int64()
	rpd, _ := rpdCmd.Int64()
	return rpm, rpd, nil
}

// Close closes the Redis connection
func (q *QuotaLimiter) Close() error {
	return q.redis.Close()
}

// chain waits on every limiter in order
type chain []Limiter

func (c chain) Wait(ctx context.Context) error {
	for _, l := range c {
		if err := l.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}
