package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName             = "Sokoni"
	defaultAppEnv              = "development"
	defaultLogLevel            = "info"
	defaultVerificationTimeout = 30 * time.Second
	defaultPort                = "8080"
	defaultShutdownDelay       = 10 * time.Second
	defaultAccessTokenTTL      = 24 * time.Hour

	verifTimeoutSecondsEnvVar  = "VERIFICATION_TIMEOUT_SECONDS"
	verifTimeoutDurationEnvVar = "VERIFICATION_TIMEOUT"
	shutdownSecondsEnvVar      = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar     = "SHUTDOWN_TIMEOUT"
)

// Config captures the client core's runtime configuration loaded from
// environment variables.
type Config struct {
	AppName             string
	AppEnv              string
	LogLevel            string
	BackendURL          string
	VerificationURL     string
	VerificationAPIKey  string
	VerificationProfile string
	VerificationTimeout time.Duration
	RedisURL            string
	TokenPath           string
}

// Load reads client configuration values from the environment.
func Load() (Config, error) {
	cfg := Config{
		AppName:             getEnv("APP_NAME", defaultAppName),
		AppEnv:              getEnv("APP_ENV", defaultAppEnv),
		LogLevel:            strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		BackendURL:          os.Getenv("BACKEND_URL"),
		VerificationURL:     os.Getenv("VERIFICATION_URL"),
		VerificationAPIKey:  os.Getenv("VERIFICATION_API_KEY"),
		VerificationProfile: os.Getenv("VERIFICATION_PROFILE"),
		VerificationTimeout: defaultVerificationTimeout,
		RedisURL:            os.Getenv("REDIS_URL"),
		TokenPath:           os.Getenv("TOKEN_PATH"),
	}

	if v := os.Getenv(verifTimeoutSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", verifTimeoutSecondsEnvVar, err)
		}
		cfg.VerificationTimeout = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(verifTimeoutDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", verifTimeoutDurationEnvVar, err)
		}
		cfg.VerificationTimeout = d
	}

	if cfg.BackendURL == "" {
		return Config{}, fmt.Errorf("BACKEND_URL must be set")
	}

	if cfg.VerificationURL == "" {
		return Config{}, fmt.Errorf("VERIFICATION_URL must be set")
	}

	return cfg, nil
}

// Backend captures the devbackend's runtime configuration.
type Backend struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	JWTSecret      string
	AccessTokenTTL time.Duration
	ShutdownPeriod time.Duration
}

// LoadBackend reads devbackend configuration values from the environment.
// DATABASE_URL is optional; when empty the devbackend runs on its in-memory
// repository.
func LoadBackend() (Backend, error) {
	cfg := Backend{
		AppName:        getEnv("APP_NAME", defaultAppName+"DevBackend"),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: defaultAccessTokenTTL,
		ShutdownPeriod: defaultShutdownDelay,
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Backend{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Backend{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv("ACCESS_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Backend{}, fmt.Errorf("invalid ACCESS_TOKEN_TTL: %w", err)
		}
		cfg.AccessTokenTTL = d
	}

	if cfg.JWTSecret == "" {
		return Backend{}, fmt.Errorf("JWT_SECRET must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Backend) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
