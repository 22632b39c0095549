// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envServerHost      = "SERVER_HOST"
	envServerPort      = "SERVER_PORT"
	envAppEnv          = "APP_ENV"
	envLogLevel        = "LOG_LEVEL"
	envLogFile         = "LOG_FILE"
	envOTelEnabled     = "OTEL_ENABLED"
	envOTLPEndpoint    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envProviderTimeout = "PROVIDER_TIMEOUT"
	envCircuitBreaker  = "PROVIDER_CIRCUIT_BREAKER"
	envStatuspageURL   = "STATUSPAGE_BASE_URL"
	envRateLimit       = "RATE_LIMIT_PER_MINUTE"
	envCORSOrigins     = "CORS_ALLOWED_ORIGINS"
	envRequireTLS      = "REQUIRE_TLS"
)

const (
	defaultServerHost   = "localhost"
	defaultServerPort   = 8890
	defaultAppEnv       = "development"
	defaultLogLevel     = "info"
	defaultOTLPEndpoint = "localhost:4317"
)

// Config describes runtime configuration loaded from the environment.
type Config struct {
	ServerHost string
	ServerPort int
	AppEnv     string

	LogLevel string
	LogFile  string

	OTelEnabled  bool
	OTLPEndpoint string

	// ProviderTimeout bounds each outbound call. Zero means no timeout.
	ProviderTimeout time.Duration

	// CircuitBreaker enables a per-provider circuit breaker.
	CircuitBreaker bool

	// StatuspageBaseURL replaces https://{host} for every provider when set.
	StatuspageBaseURL string

	// RateLimitPerMinute limits plugin requests per client IP. Zero disables it.
	RateLimitPerMinute int

	// CORSAllowedOrigins enables CORS for the listed origins when non-empty.
	CORSAllowedOrigins []string

	RequireTLS bool
}

// Addr returns the listen address host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.ServerHost, strconv.Itoa(c.ServerPort))
}

// Load reads configuration from environment variables and a local .env file if present.
// Existing environment variables take precedence over values in .env.
func Load() (Config, error) {
	if err := loadDotEnvIfPresent(".env"); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ServerHost:   defaultServerHost,
		ServerPort:   defaultServerPort,
		AppEnv:       defaultAppEnv,
		LogLevel:     defaultLogLevel,
		OTLPEndpoint: defaultOTLPEndpoint,
	}

	if value, ok := lookupTrimmed(envServerHost); ok && value != "" {
		cfg.ServerHost = value
	}

	if value, ok := lookupTrimmed(envServerPort); ok && value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envServerPort, err)
		}
		if port < 1 || port > 65535 {
			return Config{}, fmt.Errorf("%s must be between 1 and 65535", envServerPort)
		}
		cfg.ServerPort = port
	}

	if value, ok := lookupTrimmed(envAppEnv); ok && value != "" {
		cfg.AppEnv = value
	}

	if value, ok := lookupTrimmed(envLogLevel); ok && value != "" {
		cfg.LogLevel = strings.ToLower(value)
	}

	if value, ok := lookupTrimmed(envLogFile); ok {
		cfg.LogFile = value
	}

	var err error
	if cfg.OTelEnabled, err = lookupBool(envOTelEnabled); err != nil {
		return Config{}, err
	}

	if value, ok := lookupTrimmed(envOTLPEndpoint); ok && value != "" {
		cfg.OTLPEndpoint = value
	}

	if value, ok := lookupTrimmed(envProviderTimeout); ok && value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envProviderTimeout, err)
		}
		if timeout < 0 {
			return Config{}, fmt.Errorf("%s must not be negative", envProviderTimeout)
		}
		cfg.ProviderTimeout = timeout
	}

	if cfg.CircuitBreaker, err = lookupBool(envCircuitBreaker); err != nil {
		return Config{}, err
	}

	if value, ok := lookupTrimmed(envStatuspageURL); ok && value != "" {
		if err := validateURL(value, envStatuspageURL); err != nil {
			return Config{}, err
		}
		cfg.StatuspageBaseURL = value
	}

	if value, ok := lookupTrimmed(envRateLimit); ok && value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envRateLimit, err)
		}
		if limit < 0 {
			return Config{}, fmt.Errorf("%s must not be negative", envRateLimit)
		}
		cfg.RateLimitPerMinute = limit
	}

	if value, ok := lookupTrimmed(envCORSOrigins); ok {
		cfg.CORSAllowedOrigins = splitList(value)
	}

	if cfg.RequireTLS, err = lookupBool(envRequireTLS); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func lookupTrimmed(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func lookupBool(key string) (bool, error) {
	value, ok := lookupTrimmed(key)
	if !ok || value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func loadDotEnvIfPresent(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return nil
	}

	return err
}

func validateURL(value, name string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid %s: must include scheme and host", name)
	}
	return nil
}
