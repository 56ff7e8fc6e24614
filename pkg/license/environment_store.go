package license

import (
	"os"
	"time"
)

// EnvironmentStore implements KeyStore using the IGDROID_LICENSE_KEY
// environment variable. The desktop app passes the key this way when it
// spawns the engine, so no key ever has to live on disk.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based license store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(lic *License) error {
	return ErrStoreUnavailable
}

// Retrieve gets the license from the environment
func (e *EnvironmentStore) Retrieve() (*License, error) {
	key := os.Getenv("IGDROID_LICENSE_KEY")
	if key == "" {
		return nil, ErrLicenseNotFound
	}

	return &License{
		Key:         NormalizeKey(key),
		ActivatedAt: time.Now(),
	}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete() error {
	return ErrStoreUnavailable
}

// Exists checks if an environment license is set
func (e *EnvironmentStore) Exists() bool {
	return os.Getenv("IGDROID_LICENSE_KEY") != ""
}
