package license

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLicenseManager(t *testing.T) {
	// Use mock manager for reliable testing
	manager, mockStore := NewMockManager()

	// Test activation
	err := manager.Activate("abcd-1234-efgh-5678")
	if err != nil {
		t.Errorf("Failed to activate: %v", err)
	}

	// Keys are normalized to uppercase before storage
	stored, err := manager.StoredKey()
	if err != nil {
		t.Fatalf("Failed to retrieve stored key: %v", err)
	}
	if stored.Key != "ABCD-1234-EFGH-5678" {
		t.Errorf("Key mismatch: got %s, want ABCD-1234-EFGH-5678", stored.Key)
	}
	if stored.ActivatedAt.IsZero() {
		t.Error("ActivatedAt should be set")
	}

	// Test deactivation
	err = manager.Deactivate()
	if err != nil {
		t.Errorf("Failed to deactivate: %v", err)
	}

	_, err = manager.StoredKey()
	if err == nil {
		t.Error("Expected error retrieving deleted license")
	}
	if mockStore.Exists() {
		t.Error("Mock store should be empty after deactivation")
	}
}

func TestActivateRejectsBadFormat(t *testing.T) {
	manager, _ := NewMockManager()

	for _, key := range []string{
		"",
		"short",
		"abcd-1234-efgh",
		"abcd-1234-efgh-5678-9999",
		"abcd_1234_efgh_5678",
		"ab!d-1234-efgh-5678",
	} {
		if err := manager.Activate(key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Activate(%q) = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestValidKeyFormat(t *testing.T) {
	if !ValidKeyFormat("ABCD-1234-EFGH-5678") {
		t.Error("Expected valid format")
	}
	if ValidKeyFormat("abcd-1234-efgh-5678") {
		t.Error("Lowercase keys must be normalized before checking")
	}
}

func TestValidateIsAlwaysValid(t *testing.T) {
	manager, _ := NewMockManager()

	// No key stored
	v := manager.Validate()
	if !v.Valid {
		t.Error("Validate must report valid with no key stored")
	}
	if v.Plan != "unregistered" {
		t.Errorf("Plan = %s, want unregistered", v.Plan)
	}

	// Key stored
	if err := manager.Activate("ABCD-1234-EFGH-5678"); err != nil {
		t.Fatalf("Failed to activate: %v", err)
	}
	v = manager.Validate()
	if !v.Valid {
		t.Error("Validate must report valid with a key stored")
	}
	if v.Plan != "standard" {
		t.Errorf("Plan = %s, want standard", v.Plan)
	}
}

func TestManagerFallbackChain(t *testing.T) {
	failing := NewMockStore()
	failing.StoreError = errors.New("backend down")
	failing.RetrieveError = errors.New("backend down")
	working := NewMockStore()

	manager := NewMockManagerWithStores(failing, working)

	if err := manager.Activate("ABCD-1234-EFGH-5678"); err != nil {
		t.Fatalf("Activation should fall through to working store: %v", err)
	}
	if !working.Exists() {
		t.Error("Working store should hold the license")
	}

	stored, err := manager.StoredKey()
	if err != nil {
		t.Fatalf("Retrieval should fall through to working store: %v", err)
	}
	if stored.Key != "ABCD-1234-EFGH-5678" {
		t.Errorf("Key mismatch: got %s", stored.Key)
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "license.enc")

	os.Setenv("IGDROID_PASSPHRASE", "test_passphrase_123")
	defer os.Unsetenv("IGDROID_PASSPHRASE")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	lic := &License{Key: "ABCD-1234-EFGH-5678", ActivatedAt: time.Now()}
	if err := store.Store(lic); err != nil {
		t.Fatalf("Failed to store license: %v", err)
	}

	// File on disk must not contain the key in plaintext
	content, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatalf("Failed to read license file: %v", err)
	}
	if bytes.Contains(content, []byte(lic.Key)) {
		t.Error("License key stored in plaintext")
	}

	retrieved, err := store.Retrieve()
	if err != nil {
		t.Fatalf("Failed to retrieve license: %v", err)
	}
	if retrieved.Key != lic.Key {
		t.Errorf("Key mismatch: got %s, want %s", retrieved.Key, lic.Key)
	}

	if !store.Exists() {
		t.Error("Exists should report true")
	}

	if err := store.Delete(); err != nil {
		t.Errorf("Failed to delete license: %v", err)
	}
	if store.Exists() {
		t.Error("Exists should report false after delete")
	}
	if _, err := store.Retrieve(); !errors.Is(err, ErrLicenseNotFound) {
		t.Errorf("Retrieve after delete = %v, want ErrLicenseNotFound", err)
	}
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "license.enc")

	os.Setenv("IGDROID_PASSPHRASE", "first_passphrase")
	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}
	if err := store.Store(&License{Key: "ABCD-1234-EFGH-5678"}); err != nil {
		t.Fatalf("Failed to store license: %v", err)
	}

	os.Setenv("IGDROID_PASSPHRASE", "second_passphrase")
	defer os.Unsetenv("IGDROID_PASSPHRASE")
	store2, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create second store: %v", err)
	}
	if _, err := store2.Retrieve(); err == nil {
		t.Error("Expected decryption failure with wrong passphrase")
	}
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	os.Unsetenv("IGDROID_LICENSE_KEY")
	if store.Exists() {
		t.Error("Exists should report false without env var")
	}
	if _, err := store.Retrieve(); !errors.Is(err, ErrLicenseNotFound) {
		t.Errorf("Retrieve = %v, want ErrLicenseNotFound", err)
	}

	os.Setenv("IGDROID_LICENSE_KEY", "abcd-1234-efgh-5678")
	defer os.Unsetenv("IGDROID_LICENSE_KEY")

	lic, err := store.Retrieve()
	if err != nil {
		t.Fatalf("Failed to retrieve from environment: %v", err)
	}
	if lic.Key != "ABCD-1234-EFGH-5678" {
		t.Errorf("Key mismatch: got %s", lic.Key)
	}

	if err := store.Store(lic); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Store = %v, want ErrStoreUnavailable", err)
	}
	if err := store.Delete(); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Delete = %v, want ErrStoreUnavailable", err)
	}
}

func TestMaskKey(t *testing.T) {
	if got := MaskKey("ABCD-1234-EFGH-5678"); got != "ABCD...5678" {
		t.Errorf("MaskKey = %s, want ABCD...5678", got)
	}
	if got := MaskKey("short"); got != "********" {
		t.Errorf("MaskKey(short) = %s, want ********", got)
	}
}
