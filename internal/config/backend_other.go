//go:build !darwin

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// fileBackend keeps values as a flat JSON object at
// $XDG_CONFIG_HOME/texcv/config.json. Raw values are decoded on read so a
// hand-edited file with a wrong type fails for that key only.
type fileBackend struct {
	path   string
	values map[string]json.RawMessage
}

func newPlatformBackend() ConfigBackend {
	return newFileBackend(configFilePath())
}

func newFileBackend(path string) *fileBackend {
	b := &fileBackend{path: path, values: make(map[string]json.RawMessage)}
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		fmt.Fprintf(os.Stderr, "[WARN] could not read config file %s: %v. Using default values.\n", path, err)
	default:
		if err := json.Unmarshal(raw, &b.values); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse config file %s: %v. Using default values.\n", path, err)
			b.values = make(map[string]json.RawMessage)
		}
	}
	return b
}

func configFilePath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "texcv", "config.json")
}

// xdgDir resolves an XDG base directory, falling back to ~/<fallback>.
func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, fallback)
	}
	return "."
}

func (b *fileBackend) Location() string { return b.path }

func (b *fileBackend) GetString(key string) (string, bool, error) {
	raw, ok := b.values[key]
	if !ok {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// Numbers and booleans are accepted as their literal text.
		return string(bytes.TrimSpace(raw)), true, nil
	}
	return s, true, nil
}

func (b *fileBackend) GetInt(key string) (int, bool, error) {
	raw, ok := b.values[key]
	if !ok {
		return 0, false, nil
	}
	var i int
	if err := json.Unmarshal(raw, &i); err == nil {
		return i, true, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, true, fmt.Errorf("value %s for %s is not a valid integer", raw, key)
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, true, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return i, true, nil
}

func (b *fileBackend) SetString(key, val string) error {
	return b.put(key, val)
}

func (b *fileBackend) SetInt(key string, val int) error {
	return b.put(key, val)
}

func (b *fileBackend) Delete(key string) error {
	if _, ok := b.values[key]; !ok {
		return nil
	}
	delete(b.values, key)
	return b.save()
}

func (b *fileBackend) put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.values[key] = raw
	return b.save()
}

// save replaces the file atomically so a crash never leaves half a config.
func (b *fileBackend) save() error {
	return writeFileAtomic(b.path, b.values)
}

func writeFileAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
