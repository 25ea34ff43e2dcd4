package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	// kDuration is stored as a string and parsed where it is used, so a bad
	// value degrades to the default instead of failing Load.
	kDuration
)

type keySpec struct {
	key       string
	typ       keyType
	env       string
	legacyEnv string
	secret    bool
	apply     func(cfg *Config, v any)
	extract   func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.host", typ: kString, env: "TEXCV_SERVER_HOST",
		apply:   func(cfg *Config, v any) { cfg.Server.Host = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Host },
	},
	{
		key: "server.port", typ: kInt, env: "TEXCV_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.token", typ: kString, env: "TEXCV_SERVER_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Token },
	},
	{
		key: "backend.base_url", typ: kString, env: "TEXCV_BACKEND_URL", legacyEnv: "BACKEND_URL",
		apply:   func(cfg *Config, v any) { cfg.Backend.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.BaseURL },
	},
	{
		key: "backend.timeout", typ: kDuration, env: "TEXCV_BACKEND_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Backend.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.Timeout },
	},
	{
		key: "health.interval", typ: kDuration, env: "TEXCV_HEALTH_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.Health.Interval = v.(string) },
		extract: func(cfg Config) any { return cfg.Health.Interval },
	},
	{
		key: "health.timeout", typ: kDuration, env: "TEXCV_HEALTH_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Health.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Health.Timeout },
	},
	{
		key: "session.idle_timeout", typ: kDuration, env: "TEXCV_SESSION_IDLE_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Session.IdleTimeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Session.IdleTimeout },
	},
	{
		key: "log.level", typ: kString, env: "TEXCV_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString, kDuration:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		name := s.env
		raw := os.Getenv(name)
		if raw == "" && s.legacyEnv != "" {
			name = s.legacyEnv
			raw = os.Getenv(name)
		}
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString, kDuration:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", name, raw, err)
			}
		}
	}
}
