package config

// ConfigBackend is the persistent layer under the environment overrides:
// UserDefaults on macOS, a JSON file elsewhere. Get methods report ok=false
// for keys that were never set.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	// Delete removes key. Deleting an unset key is not an error.
	Delete(key string) error
	// Location describes where values are stored, for display.
	Location() string
}
