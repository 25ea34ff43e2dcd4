package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Health  HealthConfig
	Session SessionConfig
	Log     LogConfig
}

type ServerConfig struct {
	Host string
	Port int
	// Token protects the session routes. Empty disables auth.
	Token string
}

type BackendConfig struct {
	BaseURL string
	Timeout string
}

type HealthConfig struct {
	Interval string
	Timeout  string
}

type SessionConfig struct {
	IdleTimeout string
}

type LogConfig struct {
	Level string
}

const defaultBackendURL = "https://resume-builder-m9v5.onrender.com"

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 3000,
		},
		Backend: BackendConfig{
			BaseURL: defaultBackendURL,
			Timeout: "60s",
		},
		Health: HealthConfig{
			Interval: "5s",
			Timeout:  "3s",
		},
		Session: SessionConfig{
			IdleTimeout: "30m",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.texcv.app) and the
// server token falls back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/texcv/config.json
// and the token falls back to $XDG_DATA_HOME/texcv/secrets.json.
//
// Environment variables (TEXCV_*) override backend values on all platforms.
// BACKEND_URL is honoured when TEXCV_BACKEND_URL is unset.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts Keychain access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

const (
	keychainService      = "texcv"
	keychainTokenAccount = "server_token"
)

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Server.Token == "" {
		if tok, err := kc.Get(keychainService, keychainTokenAccount); err == nil && tok != "" {
			cfg.Server.Token = tok
		}
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}
	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		cfg.Backend.BaseURL = defaultBackendURL
	}

	return cfg, nil
}

// Addr is the listen address of the HTTP server.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func (c Config) BackendTimeout() time.Duration {
	return durationOr("backend.timeout", c.Backend.Timeout, 60*time.Second)
}

func (c Config) HealthInterval() time.Duration {
	return durationOr("health.interval", c.Health.Interval, 5*time.Second)
}

func (c Config) HealthTimeout() time.Duration {
	return durationOr("health.timeout", c.Health.Timeout, 3*time.Second)
}

func (c Config) SessionIdleTimeout() time.Duration {
	return durationOr("session.idle_timeout", c.Session.IdleTimeout, 30*time.Minute)
}

func durationOr(key, raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		fmt.Fprintf(os.Stderr, "[WARN] invalid duration for %s=%q. Using default value %s.\n", key, raw, def)
		return def
	}
	return d
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
