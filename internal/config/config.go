// Package config manages environment variables.
//
// It reads variables from the process environment (and an optional `.env`
// file), loads them into structured Go types, and validates that required
// values are present so the app fails fast on bad or missing config.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so startup aborts on bad/missing config.
//   - Provide sane defaults for optional blocks (server tuning, rate limiting,
//     observability).
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads a `.env` file (if present) into the process
	// environment before any config is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix every application variable carries.
//
// Nesting uses a double underscore, so
//
//	STOREFRONT_DATABASE__HOST       -> database.host
//	STOREFRONT_RATE_LIMIT__LIMIT    -> rate_limit.limit
const EnvPrefix = "STOREFRONT_"

// Config is the root configuration object for the application.
//
// The `koanf:"..."` tags specify where koanf maps values from, and the
// `validate:"..."` tags are enforced by go-playground/validator.
//
// RateLimit and Observability are pointers because they are optional. When
// they are not provided, defaults are injected by LoadConfig.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Integration   IntegrationConfig    `koanf:"integration"`
	RateLimit     *RateLimitConfig     `koanf:"rate_limit"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
// Env is fed by NODE_ENV (or STOREFRONT_PRIMARY__ENV) and switches request
// logging and log formatting.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// IsDevelopment reports whether verbose request logging should be enabled.
func (p Primary) IsDevelopment() bool {
	return p.Env == "development"
}

// ServerConfig groups settings for the HTTP server runtime.
//
// Timeouts are whole seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"min=1"`
	RequestTimeout     int      `koanf:"request_timeout" validate:"min=1"`
	BodyLimit          string   `koanf:"body_limit" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required,min=1"`

	// TrustedProxies lists CIDRs whose X-Forwarded-For is believed when
	// resolving the client IP. Empty means the socket address is used.
	TrustedProxies []string `koanf:"trusted_proxies" validate:"dive,cidr"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"min=1"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"min=1"`
}

// RedisConfig contains Redis connection details.
// Address is typically "host:port". It is required when the rate limiter
// uses the redis store (checked in Config.Validate).
type RedisConfig struct {
	Address  string `koanf:"address"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// AuthConfig stores identity-provider secrets.
type AuthConfig struct {
	// SecretKey is the Clerk secret key used to fetch the JWKS.
	SecretKey string `koanf:"secret_key" validate:"required"`

	// AuthorizedParties restricts the `azp` claim when non-empty.
	AuthorizedParties []string `koanf:"authorized_parties"`
}

// IntegrationConfig holds third-party API credentials that are optional at
// boot. Missing values disable the feature instead of failing startup.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
	EmailFrom    string `koanf:"email_from"`
}

// Validate applies cross-block rules that struct tags cannot express.
func (c *Config) Validate() error {
	if c.RateLimit != nil && c.RateLimit.Store == RateLimitStoreRedis && c.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when rate_limit.store is %q", RateLimitStoreRedis)
	}
	return nil
}

// LoadConfig loads configuration from environment variables, unmarshals it
// into Config, applies defaults, validates it, and returns the result.
//
// Behavior summary:
//   - PORT and NODE_ENV are read unprefixed (deployment compatibility)
//   - every other variable uses the STOREFRONT_ prefix, "__" for nesting;
//     prefixed values win over the unprefixed ones
//   - defaults are applied to optional fields before validation
//   - any failure is returned; the caller decides to exit
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider("", ".", func(s string) string {
		switch s {
		case "PORT":
			return "server.port"
		case "NODE_ENV":
			return "primary.env"
		}
		// Returning "" tells koanf to skip the variable.
		return ""
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load deployment env variables: %w", err)
	}

	err = k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load %s env variables: %w", EnvPrefix, err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	applyDefaults(mainConfig)

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.RateLimit.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate limit config: %w", err)
	}

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

// envKey maps STOREFRONT_RATE_LIMIT__FAIL_CLOSED to rate_limit.fail_closed.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// applyDefaults fills optional values left empty by the environment.
func applyDefaults(c *Config) {
	if c.Primary.Env == "" {
		c.Primary.Env = "production"
	}

	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 15
	}
	if c.Server.BodyLimit == "" {
		// body-parser's json default
		c.Server.BodyLimit = "100K"
	}
	if len(c.Server.CORSAllowedOrigins) == 0 {
		c.Server.CORSAllowedOrigins = []string{"*"}
	}

	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 300
	}
	if c.Database.ConnMaxIdleTime == 0 {
		c.Database.ConnMaxIdleTime = 60
	}

	if c.RateLimit == nil {
		c.RateLimit = DefaultRateLimitConfig()
	} else {
		c.RateLimit.fillDefaults()
	}

	if c.Observability == nil {
		c.Observability = DefaultObservabilityConfig()
	}

	// Service name is fixed; environment follows the primary env so logs
	// and traces are always labelled consistently.
	c.Observability.ServiceName = "storefront-api"
	c.Observability.Environment = c.Primary.Env
}
