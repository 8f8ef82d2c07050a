package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/medoraai/clinic-backend/internal/model"
	"github.com/medoraai/clinic-backend/internal/repository"
	"github.com/medoraai/clinic-backend/internal/utils"
)

// memCache is an in-memory Cache with manual clock control for TTL
// checks. It also counts operations so tests can assert on traffic.
type memCache struct {
	mu      sync.Mutex
	now     time.Time
	entries map[string]memEntry
	fail    bool
	gets    int
	sets    int
}

type memEntry struct {
	val       int
	expiresAt time.Time
}

func newMemCache() *memCache {
	return &memCache{now: time.Unix(1700000000, 0), entries: map[string]memEntry{}}
}

func (c *memCache) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *memCache) GetInt(_ context.Context, key string) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.fail {
		return 0, false, errors.New("cache down")
	}
	e, ok := c.entries[key]
	if !ok || c.now.After(e.expiresAt) {
		return 0, false, nil
	}
	return e.val, true, nil
}

func (c *memCache) SetInt(_ context.Context, key string, val int, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.fail {
		return errors.New("cache down")
	}
	c.entries[key] = memEntry{val: val, expiresAt: c.now.Add(ttl)}
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("cache down")
	}
	delete(c.entries, key)
	return nil
}

// memSessions implements SessionStore with insertion-ordered rows.
type memSessions struct {
	mu      sync.Mutex
	rows    []model.ActiveSession
	nextID  uint64
	clock   time.Time
	failAll bool
}

func newMemSessions() *memSessions {
	return &memSessions{clock: time.Unix(1700000000, 0)}
}

func (s *memSessions) Create(_ context.Context, userID uint64, jti, deviceInfo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errors.New("session store down")
	}
	s.nextID++
	s.clock = s.clock.Add(time.Second)
	s.rows = append(s.rows, model.ActiveSession{
		ID:         s.nextID,
		UserID:     userID,
		RefreshJTI: jti,
		DeviceInfo: deviceInfo,
		CreatedAt:  s.clock,
	})
	return nil
}

func (s *memSessions) ListByUser(_ context.Context, userID uint64) ([]model.ActiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, errors.New("session store down")
	}
	var out []model.ActiveSession
	for _, r := range s.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memSessions) DeleteByJTI(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errors.New("session store down")
	}
	for i, r := range s.rows {
		if r.RefreshJTI == jti {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *memSessions) jtis(userID uint64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, r := range s.rows {
		if r.UserID == userID {
			out = append(out, r.RefreshJTI)
		}
	}
	return out
}

// memLedger implements TokenLedger. failWrites degrades Blacklist and
// Record while reads keep working, matching a ledger that lost write
// capacity.
type memLedger struct {
	mu          sync.Mutex
	outstanding map[string]bool
	blacklisted map[string]bool
	failWrites  bool
	failReads   bool
}

func newMemLedger() *memLedger {
	return &memLedger{outstanding: map[string]bool{}, blacklisted: map[string]bool{}}
}

func (l *memLedger) Record(_ context.Context, _ uint64, jti, _ string, _ time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWrites {
		return errors.New("ledger down")
	}
	l.outstanding[jti] = true
	return nil
}

func (l *memLedger) Blacklist(_ context.Context, jti string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWrites {
		return false, errors.New("ledger down")
	}
	if !l.outstanding[jti] {
		return false, nil
	}
	l.blacklisted[jti] = true
	return true, nil
}

func (l *memLedger) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failReads {
		return false, errors.New("ledger down")
	}
	return l.blacklisted[jti], nil
}

// memUsers implements UserStore over a map, hashing passwords with the
// real bcrypt helper at minimum cost. getByPhoneCalls lets throttling
// tests assert the store was never consulted.
type memUsers struct {
	mu              sync.Mutex
	byID            map[uint64]model.User
	nextID          uint64
	getByPhoneCalls int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[uint64]model.User{}}
}

func (m *memUsers) add(t testingT, phone, password string, role model.Role) model.User {
	hash, err := utils.HashPassword(password, 4)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	u := model.User{
		ID:                 m.nextID,
		Phone:              phone,
		Name:               "Test User",
		PasswordHash:       hash,
		Role:               role,
		SubscriptionStatus: model.SubscriptionActive,
		IsActive:           true,
		CreatedAt:          time.Unix(1700000000, 0),
	}
	m.byID[u.ID] = u
	return u
}

// testingT is the slice of *testing.T the fakes need.
type testingT interface{ Fatalf(format string, args ...any) }

func (m *memUsers) Create(_ context.Context, u model.User, password string, _ int) (uint64, error) {
	hash, err := utils.HashPassword(password, 4)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Phone == u.Phone {
			return 0, repository.ErrPhoneExists
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.PasswordHash = hash
	u.IsActive = true
	u.CreatedAt = time.Unix(1700000000, 0)
	m.byID[u.ID] = u
	return u.ID, nil
}

func (m *memUsers) GetByPhone(_ context.Context, phone string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByPhoneCalls++
	for _, u := range m.byID {
		if u.Phone == phone {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) StartTrial(_ context.Context, id uint64, endsAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.SubscriptionStatus = model.SubscriptionActive
	u.TrialEndsAt = &endsAt
	m.byID[id] = u
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id uint64, password string, _ int) error {
	hash, err := utils.HashPassword(password, 4)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	m.byID[id] = u
	return nil
}
