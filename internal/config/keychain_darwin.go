//go:build darwin

package config

import (
	"errors"
	"os/exec"
	"strings"
)

// errSecItemNotFound is the security CLI exit status for a missing item.
const errSecItemNotFound = 44

func keychainGet(service, account string) ([]byte, error) {
	out, err := exec.Command("security", "find-generic-password", "-s", service, "-a", account, "-w").Output()
	return []byte(strings.TrimRight(string(out), "\n")), err
}

func keychainSet(service, account, value string) error {
	return exec.Command("security", "add-generic-password", "-U", "-s", service, "-a", account, "-w", value).Run()
}

func keychainDelete(service, account string) error {
	err := exec.Command("security", "delete-generic-password", "-s", service, "-a", account).Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == errSecItemNotFound {
		return nil
	}
	return err
}
