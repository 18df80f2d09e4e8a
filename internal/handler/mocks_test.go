package handler

import (
	"context"
	"sync"

	"github.com/labregistry/lab-registry/internal/auth"
	"github.com/labregistry/lab-registry/internal/model"
)

type memUserStore struct {
	mu     sync.Mutex
	users  map[uint64]model.User
	nextID uint64

	createCalls      int
	setPasswordCalls int
	getByIDCalls     int
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[uint64]model.User{}, nextID: 1}
}

func (f *memUserStore) put(u model.User) model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == 0 {
		u.ID = f.nextID
		f.nextID++
	}
	f.users[u.ID] = u
	return u
}

func (f *memUserStore) get(id uint64) model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id]
}

func (f *memUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, auth.ErrNotFound
}

func (f *memUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getByIDCalls++
	u, ok := f.users[id]
	if !ok {
		return model.User{}, auth.ErrNotFound
	}
	return u, nil
}

func (f *memUserStore) GetByIDIfActive(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || !u.IsActive {
		return model.User{}, auth.ErrNotFound
	}
	return u, nil
}

func (f *memUserStore) Create(_ context.Context, u model.User) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return 0, auth.ErrEmailExists
		}
	}
	u.ID = f.nextID
	f.nextID++
	f.users[u.ID] = u
	return u.ID, nil
}

func (f *memUserStore) List(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *memUserStore) mutate(id uint64, fn func(*model.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	fn(&u)
	f.users[id] = u
	return nil
}

func (f *memUserStore) SetRole(_ context.Context, id uint64, role model.Role) error {
	return f.mutate(id, func(u *model.User) { u.Role = role })
}

func (f *memUserStore) SetActive(_ context.Context, id uint64, active bool) error {
	return f.mutate(id, func(u *model.User) { u.IsActive = active })
}

func (f *memUserStore) SetPassword(_ context.Context, id uint64, hash string) error {
	f.mu.Lock()
	f.setPasswordCalls++
	f.mu.Unlock()
	return f.mutate(id, func(u *model.User) {
		u.PasswordHash = hash
		u.MustChangePassword = false
	})
}

func (f *memUserStore) RecordLoginFailure(_ context.Context, id uint64) error {
	return f.mutate(id, func(u *model.User) { u.FailedLoginAttempts++ })
}

func (f *memUserStore) RecordLoginSuccess(_ context.Context, id uint64) error {
	return f.mutate(id, func(u *model.User) { u.FailedLoginAttempts = 0 })
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]model.Session
	nextID   uint64
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[string]model.Session{}, nextID: 1}
}

func (f *memSessionStore) Insert(_ context.Context, s model.Session) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = f.nextID
	f.nextID++
	f.sessions[s.TokenHash] = s
	return s.ID, nil
}

func (f *memSessionStore) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, tokenHash)
	return nil
}

func (f *memSessionStore) DeleteByUserID(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, h)
		}
	}
	return nil
}

func (f *memSessionStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

type memAuditStore struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func (f *memAuditStore) Insert(_ context.Context, e model.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *memAuditStore) byAction(action string) []model.AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.AuditEntry
	for _, e := range f.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
