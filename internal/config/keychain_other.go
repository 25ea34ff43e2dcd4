//go:build !darwin

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// secretsFile stands in for a keychain: a 0600 JSON file mapping
// service -> account -> secret under $XDG_DATA_HOME/texcv.
type secretsFile struct {
	path string
}

func platformSecrets() secretsFile {
	return secretsFile{path: filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")), "texcv", "secrets.json")}
}

func (f secretsFile) load() (map[string]map[string]string, error) {
	secrets := make(map[string]map[string]string)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return secrets, nil
	}
	if err != nil {
		return nil, fmt.Errorf("secret store not available: %w", err)
	}
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parsing secrets file: %w", err)
	}
	return secrets, nil
}

func (f secretsFile) get(service, account string) (string, error) {
	secrets, err := f.load()
	if err != nil {
		return "", err
	}
	val, ok := secrets[service][account]
	if !ok {
		return "", fmt.Errorf("no secret for %s/%s", service, account)
	}
	return val, nil
}

func (f secretsFile) set(service, account, value string) error {
	secrets, err := f.load()
	if err != nil {
		// A corrupt file is replaced rather than blocking the new secret.
		secrets = make(map[string]map[string]string)
	}
	if secrets[service] == nil {
		secrets[service] = make(map[string]string)
	}
	secrets[service][account] = value
	return writeFileAtomic(f.path, secrets)
}

func (f secretsFile) delete(service, account string) error {
	secrets, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := secrets[service][account]; !ok {
		return nil
	}
	delete(secrets[service], account)
	if len(secrets[service]) == 0 {
		delete(secrets, service)
	}
	return writeFileAtomic(f.path, secrets)
}

func keychainGet(service, account string) ([]byte, error) {
	val, err := platformSecrets().get(service, account)
	return []byte(val), err
}

func keychainSet(service, account, value string) error {
	return platformSecrets().set(service, account, value)
}

func keychainDelete(service, account string) error {
	return platformSecrets().delete(service, account)
}
