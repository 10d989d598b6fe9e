// Package config loads service configuration from environment
// variables using github.com/caarlos0/env.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	HTTP  HTTPConfig  `envPrefix:"HTTP_"`
	DB    DBConfig    `envPrefix:"DB_"`
	Token TokenConfig `envPrefix:"TOKEN_"`
	SSO   SSOConfig   `envPrefix:"SSO_"`

	// BcryptCost applies to newly hashed passwords only; verification
	// reads the cost embedded in each stored digest.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`

	// SeedBuiltins installs the builtin permission catalog and roles on
	// startup. Idempotent, safe to leave on.
	SeedBuiltins bool `env:"SEED_BUILTINS" envDefault:"true"`
}

type HTTPConfig struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"100"`
	MaxBodyBytes   int64   `env:"MAX_BODY_BYTES" envDefault:"1048576"`
}

type DBConfig struct {
	DSN string `env:"DSN"`
}

type TokenConfig struct {
	Secret string        `env:"SECRET"`
	Issuer string        `env:"ISSUER" envDefault:"talentgate"`
	TTL    time.Duration `env:"TTL" envDefault:"1h"`
}

type SSOConfig struct {
	IssuerURL    string   `env:"ISSUER_URL"`
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	RedirectURL  string   `env:"REDIRECT_URL"`
	Scopes       []string `env:"SCOPES" envSeparator:","`

	// RoleMapping translates provider role claims to local role names,
	// written as comma-separated external=Internal pairs, for example
	// "hr-manager=HR Manager,recruiter=Recruiter".
	RoleMapping string `env:"ROLE_MAPPING"`

	// DefaultRole is assigned when a role claim is absent or unmapped.
	DefaultRole string `env:"DEFAULT_ROLE" envDefault:"HR Intern"`
}

// Enabled reports whether federated login is configured.
func (s SSOConfig) Enabled() bool {
	return s.IssuerURL != "" && s.ClientID != ""
}

// RoleMap parses the mapping pairs. Keys are matched case-insensitively
// downstream, so no normalization happens here.
func (s SSOConfig) RoleMap() (map[string]string, error) {
	out := map[string]string{}
	if strings.TrimSpace(s.RoleMapping) == "" {
		return out, nil
	}
	for _, pair := range strings.Split(s.RoleMapping, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		external, internal, ok := strings.Cut(pair, "=")
		external = strings.TrimSpace(external)
		internal = strings.TrimSpace(internal)
		if !ok || external == "" || internal == "" {
			return nil, fmt.Errorf("malformed role mapping pair %q", pair)
		}
		out[external] = internal
	}
	return out, nil
}

// Load parses configuration from the environment and validates the
// fields the service cannot run without.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()

	if cfg.DB.DSN == "" {
		return nil, errors.New("DB_DSN is required")
	}
	if cfg.Token.Secret == "" {
		return nil, errors.New("TOKEN_SECRET is required")
	}
	if _, err := cfg.SSO.RoleMap(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Sanitize applies guardrails to values loaded from env.
func (c *Config) Sanitize() {
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = 30 * time.Second
	}
	if c.HTTP.IdleTimeout <= 0 {
		c.HTTP.IdleTimeout = 120 * time.Second
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.HTTP.RateLimitRPS <= 0 {
		c.HTTP.RateLimitRPS = 50
	}
	if c.HTTP.RateLimitBurst <= 0 {
		c.HTTP.RateLimitBurst = 100
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 1 << 20
	}
	if c.Token.TTL <= 0 {
		c.Token.TTL = time.Hour
	}
	if len(c.SSO.Scopes) == 0 {
		c.SSO.Scopes = []string{"openid", "profile", "email"}
	}
	c.SSO.DefaultRole = strings.TrimSpace(c.SSO.DefaultRole)
}
