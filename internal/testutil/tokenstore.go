package testutil

import (
	"sync"

	"golang.org/x/oauth2"
)

// MemTokenStore is an in-memory session.TokenStore for tests.
type MemTokenStore struct {
	mu    sync.Mutex
	token *oauth2.Token

	// Saves and Removes count the respective calls.
	Saves   int
	Removes int
}

// NewMemTokenStore creates a store, optionally pre-seeded with a token.
func NewMemTokenStore(token *oauth2.Token) *MemTokenStore {
	return &MemTokenStore{token: token}
}

// LoadToken implements session.TokenStore.
func (m *MemTokenStore) LoadToken() (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

// SaveToken implements session.TokenStore.
func (m *MemTokenStore) SaveToken(token *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.Saves++
	return nil
}

// RemoveToken implements session.TokenStore.
func (m *MemTokenStore) RemoveToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil
	m.Removes++
	return nil
}

// Token returns the currently stored token.
func (m *MemTokenStore) Token() *oauth2.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}
