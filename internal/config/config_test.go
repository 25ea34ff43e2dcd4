package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// mockKeychain is a test double for the keychain interface.
type mockKeychain struct {
	value string
	err   error
}

func (m mockKeychain) Get(service, account string) (string, error) {
	return m.value, m.err
}

var errNoSecret = errors.New("not found")

// mapBackend is an in-memory ConfigBackend.
type mapBackend struct {
	strings map[string]string
	ints    map[string]int
}

func newMapBackend() *mapBackend {
	return &mapBackend{strings: map[string]string{}, ints: map[string]int{}}
}

func (m *mapBackend) GetString(key string) (string, bool, error) {
	v, ok := m.strings[key]
	return v, ok, nil
}

func (m *mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := m.ints[key]
	return v, ok, nil
}

func (m *mapBackend) SetString(key, val string) error {
	m.strings[key] = val
	return nil
}

func (m *mapBackend) SetInt(key string, val int) error {
	m.ints[key] = val
	return nil
}

func (m *mapBackend) Delete(key string) error {
	delete(m.strings, key)
	delete(m.ints, key)
	return nil
}

func (m *mapBackend) Location() string { return "memory" }

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
		if s.legacyEnv != "" {
			t.Setenv(s.legacyEnv, "")
		}
	}
}

// TestDefaults verifies all default values are applied when nothing is configured.
func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMapBackend(), mockKeychain{err: errNoSecret})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Server.Token != "" {
		t.Errorf("Server.Token = %q, want empty", cfg.Server.Token)
	}
	if cfg.Backend.BaseURL != "https://resume-builder-m9v5.onrender.com" {
		t.Errorf("Backend.BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.BackendTimeout() != 60*time.Second {
		t.Errorf("BackendTimeout = %s, want 60s", cfg.BackendTimeout())
	}
	if cfg.HealthInterval() != 5*time.Second {
		t.Errorf("HealthInterval = %s, want 5s", cfg.HealthInterval())
	}
	if cfg.HealthTimeout() != 3*time.Second {
		t.Errorf("HealthTimeout = %s, want 3s", cfg.HealthTimeout())
	}
	if cfg.SessionIdleTimeout() != 30*time.Minute {
		t.Errorf("SessionIdleTimeout = %s, want 30m", cfg.SessionIdleTimeout())
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Addr() != "127.0.0.1:3000" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
}

// TestBackendValues verifies values stored in the platform backend are applied.
func TestBackendValues(t *testing.T) {
	clearEnv(t)
	b := newMapBackend()
	b.strings["server.host"] = "0.0.0.0"
	b.ints["server.port"] = 8080
	b.strings["backend.base_url"] = "http://localhost:8000"
	b.strings["health.interval"] = "2s"

	cfg, err := loadWith(b, mockKeychain{err: errNoSecret})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
	if cfg.Backend.BaseURL != "http://localhost:8000" {
		t.Errorf("Backend.BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.HealthInterval() != 2*time.Second {
		t.Errorf("HealthInterval = %s, want 2s", cfg.HealthInterval())
	}
}

// TestEnvOverride verifies that environment variables override backend values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	b := newMapBackend()
	b.ints["server.port"] = 8080
	b.strings["backend.base_url"] = "http://from-backend"

	t.Setenv("TEXCV_SERVER_PORT", "9090")
	t.Setenv("TEXCV_BACKEND_URL", "http://from-env")
	t.Setenv("TEXCV_LOG_LEVEL", "debug")

	cfg, err := loadWith(b, mockKeychain{err: errNoSecret})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Backend.BaseURL != "http://from-env" {
		t.Errorf("Backend.BaseURL = %q, want http://from-env", cfg.Backend.BaseURL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

// TestLegacyBackendURL verifies BACKEND_URL is honoured only when the
// namespaced variable is unset.
func TestLegacyBackendURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_URL", "http://legacy")

	cfg, err := loadWith(newMapBackend(), mockKeychain{err: errNoSecret})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend.BaseURL != "http://legacy" {
		t.Errorf("Backend.BaseURL = %q, want http://legacy", cfg.Backend.BaseURL)
	}

	t.Setenv("TEXCV_BACKEND_URL", "http://namespaced")
	cfg, _ = loadWith(newMapBackend(), mockKeychain{err: errNoSecret})
	if cfg.Backend.BaseURL != "http://namespaced" {
		t.Errorf("Backend.BaseURL = %q, want http://namespaced", cfg.Backend.BaseURL)
	}
}

// TestInvalidEnvInt verifies an unparseable integer keeps the previous value.
func TestInvalidEnvInt(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEXCV_SERVER_PORT", "not-a-port")

	cfg, err := loadWith(newMapBackend(), mockKeychain{err: errNoSecret})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
}

// TestInvalidPort verifies an out-of-range port is rejected.
func TestInvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEXCV_SERVER_PORT", "70000")

	_, err := loadWith(newMapBackend(), mockKeychain{err: errNoSecret})
	if err == nil || !strings.Contains(err.Error(), "server.port") {
		t.Fatalf("err = %v, want server.port error", err)
	}
}

// TestInvalidDurationFallsBack verifies malformed durations use the default.
func TestInvalidDurationFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEXCV_HEALTH_INTERVAL", "often")
	t.Setenv("TEXCV_SESSION_IDLE_TIMEOUT", "-5m")

	cfg, err := loadWith(newMapBackend(), mockKeychain{err: errNoSecret})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HealthInterval() != 5*time.Second {
		t.Errorf("HealthInterval = %s, want default 5s", cfg.HealthInterval())
	}
	if cfg.SessionIdleTimeout() != 30*time.Minute {
		t.Errorf("SessionIdleTimeout = %s, want default 30m", cfg.SessionIdleTimeout())
	}
}

// TestKeychainFallback verifies the secret store is consulted when no token is in env.
func TestKeychainFallback(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMapBackend(), mockKeychain{value: "keychain-secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Token != "keychain-secret" {
		t.Errorf("Server.Token = %q, want %q", cfg.Server.Token, "keychain-secret")
	}

	t.Setenv("TEXCV_SERVER_TOKEN", "env-token")
	cfg, _ = loadWith(newMapBackend(), mockKeychain{value: "keychain-secret"})
	if cfg.Server.Token != "env-token" {
		t.Errorf("Server.Token = %q, want env-token", cfg.Server.Token)
	}
}

// TestSecretNotReadFromBackend verifies secrets never come from the plain config store.
func TestSecretNotReadFromBackend(t *testing.T) {
	clearEnv(t)
	b := newMapBackend()
	b.strings["server.token"] = "plain-text"

	cfg, err := loadWith(b, mockKeychain{err: errNoSecret})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Token != "" {
		t.Errorf("Server.Token = %q, want empty", cfg.Server.Token)
	}
}

func TestShowAll_MasksSecrets(t *testing.T) {
	cfg := defaults()
	cfg.Server.Token = "hunter2"

	var sawToken bool
	for _, k := range ShowAll(cfg) {
		if strings.Contains(k.Value, "hunter2") {
			t.Errorf("%s leaks the secret value", k.Key)
		}
		if k.Key == "server.token" {
			sawToken = true
			if k.Value != "(set)" {
				t.Errorf("server.token = %q, want (set)", k.Value)
			}
		}
	}
	if !sawToken {
		t.Error("server.token missing from ShowAll")
	}
}

func TestSetKey(t *testing.T) {
	b := newMapBackend()

	if err := setKeyWith(b, "server.port", "4100"); err != nil {
		t.Fatalf("set port: %v", err)
	}
	if b.ints["server.port"] != 4100 {
		t.Errorf("stored port = %d", b.ints["server.port"])
	}
	if err := setKeyWith(b, "backend.base_url", "http://x"); err != nil {
		t.Fatalf("set url: %v", err)
	}
	if b.strings["backend.base_url"] != "http://x" {
		t.Errorf("stored url = %q", b.strings["backend.base_url"])
	}

	for _, tc := range []struct{ key, value string }{
		{"server.port", "abc"},
		{"health.interval", "soon"},
		{"server.token", "x"},
		{"no.such.key", "x"},
	} {
		if err := setKeyWith(b, tc.key, tc.value); err == nil {
			t.Errorf("setKeyWith(%s, %q) succeeded, want error", tc.key, tc.value)
		}
	}
}

func TestUnsetKey(t *testing.T) {
	clearEnv(t)
	b := newMapBackend()
	b.ints["server.port"] = 4100

	if err := unsetKeyWith(b, "server.port"); err != nil {
		t.Fatalf("unset: %v", err)
	}
	cfg, err := loadWith(b, mockKeychain{err: errNoSecret})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("port after unset = %d, want default 3000", cfg.Server.Port)
	}

	if err := unsetKeyWith(b, "server.token"); err == nil {
		t.Error("unsetting a secret succeeded")
	}
	if err := unsetKeyWith(b, "no.such.key"); err == nil {
		t.Error("unsetting an unknown key succeeded")
	}
}

func TestValidKeys_ExcludesSecrets(t *testing.T) {
	for _, k := range ValidKeys() {
		if k == "server.token" {
			t.Error("ValidKeys lists a secret")
		}
	}
	if len(ValidKeys()) != len(specs)-1 {
		t.Errorf("ValidKeys = %v", ValidKeys())
	}
}
