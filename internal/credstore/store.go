// Package credstore persists session credentials for the ops-console client.
//
// FILES:
//   - store.go: Credentials, Store interface, in-memory store
//   - file.go:  file-backed store, one namespaced file per scope
//
// Two fully isolated stores exist at runtime, one per scope (tenant and
// platform admin), so the two sessions can never be confused even when both
// are active on the same machine.
package credstore

import "sync"

// Scope namespaces. Each namespace owns its own credentials file.
const (
	NamespaceTenant   = "tenant"
	NamespacePlatform = "platform"
)

// Credentials is the stored token pair plus tenant routing context.
// It is always replaced whole, never merged field by field.
type Credentials struct {
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	TenantID        string `json:"tenant_id,omitempty"`
	TenantSubdomain string `json:"tenant_subdomain,omitempty"`
}

// HasToken reports whether an access token is present.
func (c Credentials) HasToken() bool {
	return c.AccessToken != ""
}

// Store persists one scope's credentials. Implementations never fail outward:
// a store that cannot read simply reports no credentials, and write problems
// are logged rather than surfaced, so request code never branches on storage
// errors.
type Store interface {
	// Get returns the stored credentials and whether any exist.
	Get() (Credentials, bool)

	// Set replaces the stored credentials wholesale.
	Set(creds Credentials)

	// Clear removes the stored credentials. Clearing an empty store is a
	// no-op.
	Clear()
}

// MemoryStore keeps credentials in process memory. Used in tests and for
// short-lived scripted sessions.
type MemoryStore struct {
	mu    sync.RWMutex
	creds Credentials
	ok    bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get() (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds, s.ok
}

func (s *MemoryStore) Set(creds Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	s.ok = true
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	s.ok = false
}

var _ Store = (*MemoryStore)(nil)
