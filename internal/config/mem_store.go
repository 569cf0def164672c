package config

import "sync"

// MemStore is an in-memory FlagStore for tests that never writes to disk.
type MemStore struct {
	mu       sync.Mutex
	settings Settings
}

// NewMemStore returns a store holding s.
func NewMemStore(s Settings) *MemStore {
	return &MemStore{settings: s}
}

func (m *MemStore) NativeAPIsEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings.UseNativeAPIs
}

func (m *MemStore) SetNativeAPIsEnabled(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.UseNativeAPIs = enabled
	return nil
}

// Ensure MemStore implements FlagStore
var _ FlagStore = (*MemStore)(nil)
