package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/deppfellow/storefront-api/internal/config"
	"github.com/deppfellow/storefront-api/internal/errs"
	"github.com/deppfellow/storefront-api/internal/identity"
	"github.com/deppfellow/storefront-api/internal/pipeline"
	"github.com/deppfellow/storefront-api/internal/ratelimit"
	"github.com/deppfellow/storefront-api/internal/server"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	HeaderRateLimitLimit     = "RateLimit-Limit"
	HeaderRateLimitRemaining = "RateLimit-Remaining"
	HeaderRateLimitReset     = "RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

var rateLimitUnavailableCode = "RATE_LIMIT_UNAVAILABLE"

// RateLimitMiddleware builds rate-limit stages over a shared counter store.
// API guards the resource routes; Auth is the stricter limiter for /auth.
type RateLimitMiddleware struct {
	server *server.Server
	cfg    *config.RateLimitConfig
	store  ratelimit.Store

	API  *ratelimit.Limiter
	Auth *ratelimit.Limiter

	// hitLog throttles the warn line for rejected requests.
	hitLog rate.Sometimes
}

func NewRateLimitMiddleware(s *server.Server, store ratelimit.Store) *RateLimitMiddleware {
	cfg := s.Config.RateLimit
	if cfg == nil {
		cfg = config.DefaultRateLimitConfig()
	}

	r := &RateLimitMiddleware{
		server: s,
		cfg:    cfg,
		store:  store,
		hitLog: rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
	r.API = r.NewLimiter("api", cfg.Limit)
	r.Auth = r.NewLimiter("auth", cfg.AuthLimit)

	return r
}

// NewLimiter creates a limiter on the shared store with the configured
// window, strategy and failure policy.
func (r *RateLimitMiddleware) NewLimiter(name string, limit int64) *ratelimit.Limiter {
	return ratelimit.New(name, limit, r.cfg.Window, r.store,
		ratelimit.WithStrategy(ratelimit.Strategy(r.cfg.Strategy)),
		ratelimit.WithFailClosed(r.cfg.FailClosed),
	)
}

// Limit returns the stage enforcing l.
func (r *RateLimitMiddleware) Limit(l *ratelimit.Limiter) pipeline.Stage {
	return pipeline.Stage{
		Name: "rate-limit:" + l.Name(),
		Run: func(c echo.Context) pipeline.Result {
			key := r.cfg.KeyPrefix + ":" + l.Name() + ":" + r.clientKey(c)

			decision, err := l.Take(c.Request().Context(), key)
			if err != nil {
				if l.FailClosed() {
					GetLogger(c).Error().Err(err).Str("limiter", l.Name()).Msg("rate limit store unavailable, rejecting")
					return pipeline.Halt(errs.NewServiceUnavailableError("Service temporarily unavailable", &rateLimitUnavailableCode))
				}
				GetLogger(c).Error().Err(err).Str("limiter", l.Name()).Msg("rate limit store unavailable, allowing")
				return pipeline.Continue()
			}

			h := c.Response().Header()
			resetSeconds := ceilSeconds(decision.ResetAfter)
			h.Set(HeaderRateLimitLimit, strconv.FormatInt(decision.Limit, 10))
			h.Set(HeaderRateLimitRemaining, strconv.FormatInt(decision.Remaining, 10))
			h.Set(HeaderRateLimitReset, strconv.FormatInt(resetSeconds, 10))

			if !decision.Allowed {
				h.Set(HeaderRetryAfter, strconv.FormatInt(max(resetSeconds, 1), 10))
				r.RecordRateLimitHit(c, l.Name())
				return pipeline.Halt(errs.NewTooManyRequestsError("Too many requests, please try again later."))
			}

			return pipeline.Continue()
		},
	}
}

// clientKey is the caller's IP, or the authenticated subject when keying
// by identity.
func (r *RateLimitMiddleware) clientKey(c echo.Context) string {
	if r.cfg.KeyBy == config.RateLimitKeyIdentity {
		if id, ok := identity.FromContext(c); ok {
			return "user:" + id.Subject
		}
	}
	return c.RealIP()
}

// RecordRateLimitHit reports a rejected request to New Relic and the log.
func (r *RateLimitMiddleware) RecordRateLimitHit(c echo.Context, limiter string) {
	endpoint := c.Request().Method + " " + c.Path()

	if app := r.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("RateLimitHit", map[string]any{
			"endpoint": endpoint,
			"limiter":  limiter,
			"ip":       c.RealIP(),
		})
	}

	r.hitLog.Do(func() {
		GetLogger(c).Warn().
			Str("limiter", limiter).
			Str("endpoint", endpoint).
			Msg("rate limit exceeded")
	})
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(math.Ceil(d.Seconds()))
}
