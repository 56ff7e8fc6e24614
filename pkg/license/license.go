// Package license stores and checks the activation key for the discovery
// engine. Entitlement enforcement lives in the desktop app; the engine only
// keeps the key around and reports it, so Validate never fails a run.
package license

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"
)

// License is a stored activation key.
type License struct {
	Key         string    `json:"key"`
	ActivatedAt time.Time `json:"activated_at"`
}

// KeyStore is the interface for persisting the activation key.
type KeyStore interface {
	// Store saves the license
	Store(lic *License) error

	// Retrieve gets the stored license
	Retrieve() (*License, error)

	// Delete removes the stored license
	Delete() error

	// Exists checks if a license is stored
	Exists() bool
}

// Validation is the result of a license check.
type Validation struct {
	Valid  bool   `json:"valid"`
	Plan   string `json:"plan"`
	Reason string `json:"reason,omitempty"`
}

// Manager handles license storage with fallback mechanisms.
type Manager struct {
	stores []KeyStore
}

// NewManager creates a license manager with appropriate storage backends.
func NewManager() (*Manager, error) {
	var stores []KeyStore

	// Try keyring first (system keychain)
	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	// Always add encrypted file store as fallback
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "license.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	// Add environment store as last resort
	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

var keyPattern = regexp.MustCompile(`^[A-Z0-9]{4}(-[A-Z0-9]{4}){3}$`)

// NormalizeKey uppercases a key and strips surrounding whitespace.
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// ValidKeyFormat reports whether the key looks like XXXX-XXXX-XXXX-XXXX.
func ValidKeyFormat(key string) bool {
	return keyPattern.MatchString(key)
}

// Activate validates the key format and saves it using the first available store.
func (m *Manager) Activate(key string) error {
	key = NormalizeKey(key)
	if !ValidKeyFormat(key) {
		return ErrInvalidKey
	}

	lic := &License{Key: key, ActivatedAt: time.Now()}

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(lic); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store license: %w", lastErr)
	}
	return errors.New("no available license stores")
}

// StoredKey returns the license from the first store that has one.
func (m *Manager) StoredKey() (*License, error) {
	for _, store := range m.stores {
		if lic, err := store.Retrieve(); err == nil && lic != nil {
			return lic, nil
		}
	}
	return nil, ErrLicenseNotFound
}

// Deactivate removes the license from all stores.
func (m *Manager) Deactivate() error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete license: %w", lastErr)
	}
	if !deleted {
		return ErrLicenseNotFound
	}
	return nil
}

// Validate checks the stored license. The engine side never rejects a run:
// the desktop app performs the real entitlement check before spawning the
// engine, so this reports valid whether or not a key is present. The call
// site and its distinct exit code stay wired for when server-side checks
// move here.
func (m *Manager) Validate() *Validation {
	lic, err := m.StoredKey()
	if err != nil || lic == nil {
		return &Validation{Valid: true, Plan: "unregistered", Reason: "no key stored"}
	}
	return &Validation{Valid: true, Plan: "standard"}
}

// MaskKey masks all but the first 4 and last 4 characters of a key.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "igdroid")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "igdroid")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "igdroid")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "igdroid")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Errors
var (
	ErrLicenseNotFound  = errors.New("license not found")
	ErrInvalidKey       = errors.New("invalid license key format")
	ErrStoreUnavailable = errors.New("license store unavailable")
)
