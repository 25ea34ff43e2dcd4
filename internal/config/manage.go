package config

import (
	"fmt"
	"strconv"
	"time"
)

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll returns all config key/value pairs from the current config. Secrets
// are reported as set or unset, never by value.
func ShowAll(cfg Config) []KeyInfo {
	var result []KeyInfo
	for _, s := range specs {
		value := fmt.Sprintf("%v", s.extract(cfg))
		if s.secret {
			if value == "" {
				value = "(unset)"
			} else {
				value = "(set)"
			}
		}
		result = append(result, KeyInfo{
			Key:    s.key,
			EnvVar: s.env,
			Value:  value,
		})
	}
	return result
}

// SetKey writes a config key to the platform backend.
func SetKey(key, value string) error {
	return setKeyWith(newPlatformBackend(), key, value)
}

func setKeyWith(b ConfigBackend, key, value string) error {
	for _, s := range specs {
		if s.key != key {
			continue
		}
		if s.secret {
			return fmt.Errorf("cannot set secret %q via config; use `texcv config set-token` or environment variable %s", key, s.env)
		}
		switch s.typ {
		case kString:
			return b.SetString(key, value)
		case kDuration:
			if d, err := time.ParseDuration(value); err != nil || d <= 0 {
				return fmt.Errorf("invalid duration value for %s: %q (want e.g. 5s, 30m)", key, value)
			}
			return b.SetString(key, value)
		case kInt:
			i, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid integer value for %s: %w", key, err)
			}
			return b.SetInt(key, i)
		}
	}

	return fmt.Errorf("unknown config key: %q", key)
}

// UnsetKey removes a config key from the platform backend so its default
// applies again.
func UnsetKey(key string) error {
	return unsetKeyWith(newPlatformBackend(), key)
}

func unsetKeyWith(b ConfigBackend, key string) error {
	for _, s := range specs {
		if s.key != key {
			continue
		}
		if s.secret {
			return fmt.Errorf("cannot unset secret %q via config; use `texcv config clear-token`", key)
		}
		return b.Delete(key)
	}
	return fmt.Errorf("unknown config key: %q", key)
}

// Location describes where `config set` persists values.
func Location() string {
	return newPlatformBackend().Location()
}

// SetToken stores the server token in the platform secret store.
func SetToken(token string) error {
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}
	return keychainSet(keychainService, keychainTokenAccount, token)
}

// ClearToken removes the server token from the platform secret store.
// The TEXCV_SERVER_TOKEN environment variable still applies.
func ClearToken() error {
	return keychainDelete(keychainService, keychainTokenAccount)
}

// ValidKeys returns the list of valid non-secret config key names.
func ValidKeys() []string {
	var keys []string
	for _, s := range specs {
		if !s.secret {
			keys = append(keys, s.key)
		}
	}
	return keys
}
