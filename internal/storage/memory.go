// internal/storage/memory.go
package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/keyline-labs/auth-service/internal/auth"
	"github.com/keyline-labs/auth-service/internal/user"
)

// Memory is a thread-safe in-memory implementation of both auth.UserStore and
// auth.Ledger, suitable for tests and local development. Deleting a user
// removes its ledger rows, mirroring the cascade constraint of the Postgres
// backend.
type Memory struct {
	mu sync.RWMutex

	usersByID    map[uuid.UUID]*user.User
	usersByEmail map[string]*user.User

	tokensByHash map[string]*auth.RefreshToken
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		usersByID:    make(map[uuid.UUID]*user.User),
		usersByEmail: make(map[string]*user.User),
		tokensByHash: make(map[string]*auth.RefreshToken),
	}
}

// ---------- Users ----------

func (m *Memory) Create(u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usersByEmail[u.Email]; exists {
		return auth.ErrAlreadyExists
	}
	if _, exists := m.usersByID[u.ID]; exists {
		return auth.ErrAlreadyExists
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	cp := *u
	m.usersByID[cp.ID] = &cp
	m.usersByEmail[cp.Email] = &cp
	return nil
}

func (m *Memory) FindByEmail(email string) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.usersByEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) FindByID(id uuid.UUID) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.usersByID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) ExistsByEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.usersByEmail[email]
	return ok, nil
}

func (m *Memory) ExistsByID(id uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.usersByID[id]
	return ok, nil
}

func (m *Memory) Delete(id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.usersByID[id]
	if !ok {
		return 0, nil
	}
	delete(m.usersByID, id)
	delete(m.usersByEmail, u.Email)

	// cascade: drop the user's ledger rows
	for hash, rt := range m.tokensByHash {
		if rt.UserID == id {
			delete(m.tokensByHash, hash)
		}
	}
	return 1, nil
}

// ---------- Refresh-token ledger ----------

func (m *Memory) Record(tokenHash string, userID uuid.UUID, expiresAt time.Time) (*auth.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tokensByHash[tokenHash]; exists {
		return nil, fmt.Errorf("duplicate key: token hash already recorded")
	}
	rt := &auth.RefreshToken{
		ID:        uuid.New(),
		TokenHash: tokenHash,
		UserID:    userID,
		ExpiresAt: expiresAt,
		IsRevoked: false,
		CreatedAt: time.Now(),
	}
	m.tokensByHash[tokenHash] = rt
	cp := *rt
	return &cp, nil
}

func (m *Memory) FindByHash(tokenHash string) (*auth.RefreshToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rt, ok := m.tokensByHash[tokenHash]
	if !ok {
		return nil, auth.ErrTokenNotFound
	}
	cp := *rt
	return &cp, nil
}

func (m *Memory) Revoke(tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rt, ok := m.tokensByHash[tokenHash]; ok {
		rt.IsRevoked = true
	}
	return nil
}

func (m *Memory) PurgeExpiredBefore(cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for hash, rt := range m.tokensByHash {
		if rt.ExpiresAt.Before(cutoff) {
			delete(m.tokensByHash, hash)
			n++
		}
	}
	return n, nil
}
