package license

import (
	"sync"
)

// MockStore implements KeyStore for testing purposes
type MockStore struct {
	lic *License
	mu  sync.RWMutex

	// Error injection for testing
	StoreError    error
	RetrieveError error
	DeleteError   error
}

// NewMockStore creates a new mock license store
func NewMockStore() *MockStore {
	return &MockStore{}
}

// Store saves the license to the mock store
func (m *MockStore) Store(lic *License) error {
	if m.StoreError != nil {
		return m.StoreError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if lic == nil || lic.Key == "" {
		return ErrInvalidKey
	}

	licCopy := *lic
	m.lic = &licCopy
	return nil
}

// Retrieve gets the license from the mock store
func (m *MockStore) Retrieve() (*License, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lic == nil {
		return nil, ErrLicenseNotFound
	}

	licCopy := *m.lic
	return &licCopy, nil
}

// Delete removes the license from the mock store
func (m *MockStore) Delete() error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lic == nil {
		return ErrLicenseNotFound
	}

	m.lic = nil
	return nil
}

// Exists checks if a license exists in the mock store
func (m *MockStore) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.lic != nil
}

// NewMockManager creates a Manager with a mock store for testing
func NewMockManager() (*Manager, *MockStore) {
	mockStore := NewMockStore()
	manager := &Manager{
		stores: []KeyStore{mockStore},
	}
	return manager, mockStore
}

// NewMockManagerWithStores creates a Manager with multiple stores for testing
func NewMockManagerWithStores(stores ...KeyStore) *Manager {
	return &Manager{
		stores: stores,
	}
}
