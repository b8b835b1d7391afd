// Package ratelimit throttles repeated failed logins per principal name.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/observability"
)

// failureScript increments the failure counter and starts the window on the
// first failure only, so later failures do not extend it.
const failureScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return count
`

const keyPrefix = "portal:login_failures:"

var tracer = observability.Tracer("project-portal/ratelimit")

// LoginLimiter counts failed logins in a fixed window backed by Redis. When
// Redis is unreachable it fails open: logins proceed and a warning is logged.
type LoginLimiter struct {
	cmd         redis.Cmdable
	maxFailures int
	window      time.Duration
	logger      *zap.Logger
}

// NewLoginLimiter builds a limiter allowing maxFailures per window.
func NewLoginLimiter(cmd redis.Cmdable, maxFailures int, window time.Duration, logger *zap.Logger) *LoginLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginLimiter{cmd: cmd, maxFailures: maxFailures, window: window, logger: logger}
}

// Allow returns domain.ErrLoginThrottled once the principal has used up its
// failures for the current window.
func (l *LoginLimiter) Allow(ctx context.Context, principal string) error {
	ctx, span := tracer.Start(ctx, "ratelimit.login.allow")
	defer span.End()
	span.SetAttributes(attribute.String("db.system", "redis"), attribute.String("db.operation", "GET"))

	count, err := l.cmd.Get(ctx, key(principal)).Int()
	switch {
	case errors.Is(err, redis.Nil):
		return nil
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.logger.Warn("login throttle unavailable, allowing attempt", zap.Error(err))
		return nil
	}

	if count >= l.maxFailures {
		return fmt.Errorf("%w: retry later", domain.ErrLoginThrottled)
	}
	return nil
}

// RecordFailure counts one failed attempt.
func (l *LoginLimiter) RecordFailure(ctx context.Context, principal string) {
	ctx, span := tracer.Start(ctx, "ratelimit.login.record_failure")
	defer span.End()
	span.SetAttributes(attribute.String("db.system", "redis"), attribute.String("db.operation", "EVAL"))

	seconds := int(l.window / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	if err := l.cmd.Eval(ctx, failureScript, []string{key(principal)}, seconds).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.logger.Warn("record login failure", zap.Error(err))
	}
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, principal string) {
	if err := l.cmd.Del(ctx, key(principal)).Err(); err != nil {
		l.logger.Warn("reset login failures", zap.Error(err))
	}
}

func key(principal string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(principal))
}
