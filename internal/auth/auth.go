// Package auth stores the session credential used to authenticate the REST
// client and the push connection.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// HeaderAuthorization carries the raw session token on REST requests.
const HeaderAuthorization = "Authorization"

// ErrEmptyToken is returned when saving an empty token.
var ErrEmptyToken = errors.New("token is empty")

// TokenStore persists the session token. A missing token is not an error:
// Token reports ("", false, nil).
type TokenStore interface {
	Token(ctx context.Context) (string, bool, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// Headers returns the request headers that authenticate token.
func Headers(token string) (map[string]string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("build auth headers: %w", ErrEmptyToken)
	}
	return map[string]string{HeaderAuthorization: token}, nil
}

// MemoryStore is a TokenStore that keeps the token in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore returns a store holding token; empty means logged out.
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (m *MemoryStore) Token(ctx context.Context) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != "", nil
}

func (m *MemoryStore) Save(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
