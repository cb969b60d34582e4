package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/brunostein/rest-api-base/internal/model"
)

// In-memory stand-ins for the Postgres repositories.

type memAccounts struct {
	mu       sync.Mutex
	accounts map[string]*model.Account // keyed by id
}

func newMemAccounts() *memAccounts {
	return &memAccounts{accounts: map[string]*model.Account{}}
}

func (m *memAccounts) FindByID(_ context.Context, id string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return model.Account{}, model.ErrAccountNotFound
	}
	return *a, nil
}

func (m *memAccounts) FindByUsername(_ context.Context, username string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.accounts {
		if strings.EqualFold(a.Username, username) {
			return *a, nil
		}
	}
	return model.Account{}, model.ErrAccountNotFound
}

func (m *memAccounts) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := m.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrAccountNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *memAccounts) Create(_ context.Context, a model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := a
	m.accounts[a.ID] = &stored
	return nil
}

func (m *memAccounts) Update(_ context.Context, a model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.accounts[a.ID]
	if !ok {
		return model.ErrAccountNotFound
	}
	stats := existing.AuthStats
	stored := a
	stored.AuthStats = stats
	m.accounts[a.ID] = &stored
	return nil
}

func (m *memAccounts) SetBlocked(_ context.Context, id string, blocked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return model.ErrAccountNotFound
	}
	a.Blocked = blocked
	return nil
}

func (m *memAccounts) RecordAttempt(_ context.Context, id string, success bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil
	}
	a.AuthStats.TotalAttempts++
	if success {
		a.AuthStats.TotalSuccess++
		now := time.Now().UTC()
		a.AuthStats.Last = &now
	} else {
		a.AuthStats.TotalFailed++
	}
	return nil
}

func (m *memAccounts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[id]; !ok {
		return model.ErrAccountNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *memAccounts) List(_ context.Context) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, *a)
	}
	return out, nil
}

type memTokens struct {
	mu         sync.Mutex
	tokens     []*model.RefreshToken
	failCreate bool
}

func newMemTokens() *memTokens {
	return &memTokens{}
}

func (m *memTokens) Create(_ context.Context, t model.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCreate {
		return errors.New("store rejected the write")
	}
	stored := t
	m.tokens = append(m.tokens, &stored)
	return nil
}

func (m *memTokens) Find(_ context.Context, username string, tokenString string) (model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.lookupLocked(username, tokenString)
	if t == nil {
		return model.RefreshToken{}, model.ErrTokenNotFound
	}
	return *t, nil
}

func (m *memTokens) Revoke(_ context.Context, username string, tokenString string, revokedBy string) (model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.lookupLocked(username, tokenString)
	if t == nil {
		return model.RefreshToken{}, model.ErrTokenNotFound
	}
	now := time.Now().UTC()
	t.Revoked = true
	t.RevokedAt = &now
	t.RevokedBy = revokedBy
	return *t, nil
}

func (m *memTokens) RecordAttempt(_ context.Context, username string, tokenString string, success bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.lookupLocked(username, tokenString)
	if t == nil {
		return nil
	}
	t.RefreshStats.TotalAttempts++
	if success {
		t.RefreshStats.TotalSuccess++
		now := time.Now().UTC()
		t.RefreshStats.Last = &now
	} else {
		t.RefreshStats.TotalFailed++
	}
	return nil
}

func (m *memTokens) DeleteAllForUsername(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.tokens[:0]
	for _, t := range m.tokens {
		if t.Username != username {
			kept = append(kept, t)
		}
	}
	m.tokens = kept
	return nil
}

func (m *memTokens) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

func (m *memTokens) lookupLocked(username string, tokenString string) *model.RefreshToken {
	for _, t := range m.tokens {
		if t.Username == username && t.Token == tokenString {
			return t
		}
	}
	return nil
}

type memHistory struct {
	mu     sync.Mutex
	events []model.AccessEvent
}

func newMemHistory() *memHistory {
	return &memHistory{}
}

func (m *memHistory) Record(_ context.Context, e model.AccessEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memHistory) ListForUsername(_ context.Context, username string, limit int) ([]model.AccessEvent, error) {
	events := m.forUsername(username)
	// Newest first, like the SQL query.
	out := make([]model.AccessEvent, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		out = append(out, events[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memHistory) DeleteAllForUsername(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.events[:0]
	for _, e := range m.events {
		if e.Username != username {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

func (m *memHistory) forUsername(username string) []model.AccessEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.AccessEvent
	for _, e := range m.events {
		if e.Username == username {
			out = append(out, e)
		}
	}
	return out
}

// staticSettings serves a fixed snapshot, mutable between calls like the real
// provider.
type staticSettings struct {
	mu       sync.Mutex
	settings model.Settings
}

func newStaticSettings(s model.Settings) *staticSettings {
	return &staticSettings{settings: s}
}

func (p *staticSettings) Snapshot(_ context.Context) (model.Settings, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings, nil
}

func (p *staticSettings) set(mutate func(*model.Settings)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	mutate(&p.settings)
}

func testSettings() model.Settings {
	return model.Settings{
		TokenScheme:          "Bearer",
		AccessTokenSecret:    "access-secret",
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenEnabled:  true,
		RefreshTokenSecret:   "refresh-secret",
		RefreshTokenTTL:      168 * time.Hour,
		AccessHistoryEnabled: true,
	}
}
