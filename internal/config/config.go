package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar names the environment variable pointing at an optional YAML
// config file.
const PathEnvVar = "CONFIG_PATH"

type Config struct {
	DatabaseURL     string        `koanf:"database_url"`
	HTTPListenAddr  string        `koanf:"http_listen_addr"`
	LogLevel        string        `koanf:"log_level"`
	ServiceName     string        `koanf:"service_name"`
	JWTSecret       string        `koanf:"jwt_secret"`
	JWTIssuer       string        `koanf:"jwt_issuer"`
	CredentialsKey  string        `koanf:"credentials_key"`
	CORSOrigins     string        `koanf:"cors_origins"`
	RateLimit       int           `koanf:"rate_limit_requests"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	ProviderTimeout         time.Duration `koanf:"provider_timeout"`
	ProviderBreakerFailures uint32        `koanf:"provider_breaker_failures"`
	ProviderBreakerTimeout  time.Duration `koanf:"provider_breaker_timeout"`
	LinodeAPIURL            string        `koanf:"linode_api_url"`
	LinodeRequestsPerSecond float64       `koanf:"linode_requests_per_second"`

	// SweepInterval enables the background reconciliation sweep when > 0.
	SweepInterval time.Duration `koanf:"sweep_interval"`
	SweepWorkers  int           `koanf:"sweep_workers"`

	DevMode bool `koanf:"dev_mode"`
}

func defaults() Config {
	return Config{
		HTTPListenAddr:          ":8080",
		LogLevel:                "info",
		ServiceName:             "controlpanel-api",
		JWTIssuer:               "controlpanel-api",
		CORSOrigins:             "http://localhost:5173",
		RateLimit:               300,
		RateLimitWindow:         time.Minute,
		ProviderTimeout:         30 * time.Second,
		ProviderBreakerFailures: 5,
		ProviderBreakerTimeout:  30 * time.Second,
		LinodeAPIURL:            "https://api.linode.com/v4",
		LinodeRequestsPerSecond: 10,
		SweepWorkers:            4,
	}
}

// Load builds the configuration from defaults, an optional YAML file named
// by CONFIG_PATH, and environment variables, in increasing precedence.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := os.Getenv(PathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

var knownKeys = func() map[string]bool {
	keys := map[string]bool{}
	for _, k := range []string{
		"database_url", "http_listen_addr", "log_level", "service_name",
		"jwt_secret", "jwt_issuer", "credentials_key", "cors_origins",
		"rate_limit_requests", "rate_limit_window",
		"provider_timeout", "provider_breaker_failures", "provider_breaker_timeout",
		"linode_api_url", "linode_requests_per_second",
		"sweep_interval", "sweep_workers", "dev_mode",
	} {
		keys[k] = true
	}
	return keys
}()

// envKey maps DATABASE_URL to database_url and drops unrelated variables.
func envKey(key string) string {
	key = strings.ToLower(key)
	if !knownKeys[key] {
		return ""
	}
	return key
}

func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.CredentialsKey == "" {
		missing = append(missing, "CREDENTIALS_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	if c.SweepInterval > 0 && c.SweepWorkers <= 0 {
		return fmt.Errorf("SWEEP_WORKERS must be positive when SWEEP_INTERVAL is set")
	}
	return nil
}

// CORSOriginList splits CORSOrigins on commas.
func (c *Config) CORSOriginList() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
