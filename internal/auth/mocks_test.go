package auth

import (
	"context"
	"sync"

	"github.com/labregistry/lab-registry/internal/model"
)

// fakeUserStore is an in-memory UserStore safe for concurrent use.
type fakeUserStore struct {
	mu     sync.Mutex
	users  map[uint64]model.User
	nextID uint64

	createCalls int
	createErr   error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint64]model.User{}, nextID: 1}
}

func (f *fakeUserStore) put(u model.User) model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == 0 {
		u.ID = f.nextID
		f.nextID++
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByIDIfActive(ctx context.Context, id uint64) (model.User, error) {
	u, err := f.GetByID(ctx, id)
	if err != nil || !u.IsActive {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) Create(_ context.Context, u model.User) (uint64, error) {
	f.mu.Lock()
	f.createCalls++
	err := f.createErr
	f.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return f.put(u).ID, nil
}

func (f *fakeUserStore) List(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserStore) mutate(id uint64, fn func(*model.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return ErrNotFound
	}
	fn(&u)
	f.users[id] = u
	return nil
}

func (f *fakeUserStore) SetRole(_ context.Context, id uint64, role model.Role) error {
	return f.mutate(id, func(u *model.User) { u.Role = role })
}

func (f *fakeUserStore) SetActive(_ context.Context, id uint64, active bool) error {
	return f.mutate(id, func(u *model.User) { u.IsActive = active })
}

func (f *fakeUserStore) SetPassword(_ context.Context, id uint64, hash string) error {
	return f.mutate(id, func(u *model.User) {
		u.PasswordHash = hash
		u.MustChangePassword = false
	})
}

func (f *fakeUserStore) RecordLoginFailure(_ context.Context, id uint64) error {
	return f.mutate(id, func(u *model.User) { u.FailedLoginAttempts++ })
}

func (f *fakeUserStore) RecordLoginSuccess(_ context.Context, id uint64) error {
	return f.mutate(id, func(u *model.User) { u.FailedLoginAttempts = 0 })
}

// fakeSessionStore is an in-memory SessionStore safe for concurrent use.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]model.Session
	nextID   uint64

	deleteCalls int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]model.Session{}, nextID: 1}
}

func (f *fakeSessionStore) Insert(_ context.Context, s model.Session) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = f.nextID
	f.nextID++
	f.sessions[s.TokenHash] = s
	return s.ID, nil
}

func (f *fakeSessionStore) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	delete(f.sessions, tokenHash)
	return nil
}

func (f *fakeSessionStore) DeleteByUserID(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, h)
		}
	}
	return nil
}

func (f *fakeSessionStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func (f *fakeSessionStore) has(hash string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sessions[hash]
	return ok
}

// fakeAuditStore captures inserted entries.
type fakeAuditStore struct {
	mu        sync.Mutex
	entries   []model.AuditEntry
	insertErr error
}

func (f *fakeAuditStore) Insert(_ context.Context, e model.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAuditStore) all() []model.AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.AuditEntry(nil), f.entries...)
}
