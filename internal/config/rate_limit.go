package config

import (
	"fmt"
	"time"
)

const (
	RateLimitStoreRedis  = "redis"
	RateLimitStoreMemory = "memory"

	RateLimitStrategyFixed   = "fixed"
	RateLimitStrategySliding = "sliding"

	RateLimitKeyIP       = "ip"
	RateLimitKeyIdentity = "identity"
)

// RateLimitConfig controls the per-route request caps.
//
// Window and the limits apply per key (client IP by default). FailClosed
// decides what happens when the counter store is unreachable: false lets the
// request through and logs the failure, true rejects it with 503.
type RateLimitConfig struct {
	Store      string        `koanf:"store"`
	Strategy   string        `koanf:"strategy"`
	KeyBy      string        `koanf:"key_by"`
	KeyPrefix  string        `koanf:"key_prefix"`
	Limit      int64         `koanf:"limit"`
	AuthLimit  int64         `koanf:"auth_limit"`
	Window     time.Duration `koanf:"window"`
	FailClosed bool          `koanf:"fail_closed"`
}

// DefaultRateLimitConfig returns 100 requests per 15 minutes per IP on a
// fixed window, counted in Redis, failing open.
func DefaultRateLimitConfig() *RateLimitConfig {
	c := &RateLimitConfig{}
	c.fillDefaults()
	return c
}

func (c *RateLimitConfig) fillDefaults() {
	if c.Store == "" {
		c.Store = RateLimitStoreRedis
	}
	if c.Strategy == "" {
		c.Strategy = RateLimitStrategyFixed
	}
	if c.KeyBy == "" {
		c.KeyBy = RateLimitKeyIP
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "rl"
	}
	if c.Limit == 0 {
		c.Limit = 100
	}
	if c.AuthLimit == 0 {
		c.AuthLimit = 20
	}
	if c.Window == 0 {
		c.Window = 15 * time.Minute
	}
}

// Validate rejects unknown enum values and non-positive limits.
func (c *RateLimitConfig) Validate() error {
	switch c.Store {
	case RateLimitStoreRedis, RateLimitStoreMemory:
	default:
		return fmt.Errorf("invalid store: %s (must be one of: redis, memory)", c.Store)
	}

	switch c.Strategy {
	case RateLimitStrategyFixed, RateLimitStrategySliding:
	default:
		return fmt.Errorf("invalid strategy: %s (must be one of: fixed, sliding)", c.Strategy)
	}

	switch c.KeyBy {
	case RateLimitKeyIP, RateLimitKeyIdentity:
	default:
		return fmt.Errorf("invalid key_by: %s (must be one of: ip, identity)", c.KeyBy)
	}

	if c.Limit <= 0 || c.AuthLimit <= 0 {
		return fmt.Errorf("limit and auth_limit must be positive")
	}

	if c.Window < time.Second {
		return fmt.Errorf("window must be at least 1s, got %s", c.Window)
	}

	return nil
}
