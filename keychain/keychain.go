// Package keychain abstracts the operating system keychain used to hold
// connection secrets. Profiles persist everything except the secret key to
// disk; the secret key lives here, keyed by profile name under a single
// service entry.
package keychain

import (
	"errors"
	"sync"

	"github.com/zalando/go-keyring"
)

// ServiceName is the keychain service entry all secrets are stored under.
const ServiceName = "s3b"

// ErrNotFound indicates that no secret is stored for the given name.
var ErrNotFound = errors.New("keychain: secret not found")

// Store provides access to named secrets.
type Store interface {
	// Get returns the secret for name, or ErrNotFound if none is stored.
	Get(name string) (string, error)

	// Set stores the secret for name, replacing any existing value.
	Set(name, secret string) error

	// Delete removes the secret for name. Deleting a missing entry
	// returns ErrNotFound.
	Delete(name string) error
}

// systemStore stores secrets in the OS keychain via go-keyring.
type systemStore struct{}

// System returns a Store backed by the operating system keychain
// (Keychain on macOS, Credential Manager on Windows, Secret Service on Linux).
func System() Store {
	return systemStore{}
}

func (systemStore) Get(name string) (string, error) {
	secret, err := keyring.Get(ServiceName, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return secret, nil
}

func (systemStore) Set(name, secret string) error {
	return keyring.Set(ServiceName, name, secret)
}

func (systemStore) Delete(name string) error {
	err := keyring.Delete(ServiceName, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// memoryStore is an in-memory Store for tests and environments without a
// usable keychain.
type memoryStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// Memory returns a thread-safe in-memory Store with no persistence.
func Memory() Store {
	return &memoryStore{
		secrets: make(map[string]string),
	}
}

func (m *memoryStore) Get(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	secret, ok := m.secrets[name]
	if !ok {
		return "", ErrNotFound
	}
	return secret, nil
}

func (m *memoryStore) Set(name, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.secrets[name] = secret
	return nil
}

func (m *memoryStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.secrets[name]; !ok {
		return ErrNotFound
	}
	delete(m.secrets, name)
	return nil
}
