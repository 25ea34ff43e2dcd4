//go:build darwin

package config

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const defaultsDomain = "com.texcv.app"

// darwinBackend stores values in UserDefaults through the defaults CLI.
type darwinBackend struct {
	domain string
}

func newPlatformBackend() ConfigBackend {
	return &darwinBackend{domain: defaultsDomain}
}

// defaults runs the defaults CLI against the domain. missing is true when
// the CLI exits 1, which it does for unknown keys.
func (b *darwinBackend) defaults(args ...string) (out string, missing bool, err error) {
	argv := append([]string{args[0], b.domain}, args[1:]...)
	raw, err := exec.Command("defaults", argv...).CombinedOutput()
	out = strings.TrimSpace(string(raw))
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return out, true, nil
		}
		return out, false, fmt.Errorf("defaults %s %s: %w, output: %s", args[0], strings.Join(args[1:], " "), err, out)
	}
	return out, false, nil
}

func (b *darwinBackend) Location() string {
	return "defaults domain " + b.domain
}

func (b *darwinBackend) GetString(key string) (string, bool, error) {
	s, missing, err := b.defaults("read", key)
	if missing || err != nil {
		return "", false, err
	}
	return s, true, nil
}

func (b *darwinBackend) GetInt(key string) (int, bool, error) {
	s, ok, err := b.GetString(key)
	if !ok || err != nil {
		return 0, ok, err
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, true, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return i, true, nil
}

func (b *darwinBackend) SetString(key, val string) error {
	_, _, err := b.defaults("write", key, "-string", val)
	return err
}

func (b *darwinBackend) SetInt(key string, val int) error {
	_, _, err := b.defaults("write", key, "-int", strconv.Itoa(val))
	return err
}

func (b *darwinBackend) Delete(key string) error {
	_, _, err := b.defaults("delete", key)
	return err
}
