package http

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-diary-auth/internal/models"
	"github.com/pribylovaa/go-diary-auth/internal/notify"
	"github.com/pribylovaa/go-diary-auth/internal/storage"
)

// memStore — storage.Storage в памяти для сквозных тестов роутера.
type memStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[uuid.UUID]models.User)}
}

func (m *memStore) find(match func(u models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if match(u) {
			cp := u
			return &cp, nil
		}
	}

	return nil, storage.ErrNotFound
}

func (m *memStore) taken(id uuid.UUID, email, username string) bool {
	for _, u := range m.users {
		if u.ID == id {
			continue
		}
		if strings.EqualFold(u.Email, email) || (username != "" && u.Username == username) {
			return true
		}
	}

	return false
}

func (m *memStore) SaveUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; ok || m.taken(user.ID, user.Email, user.Username) {
		return storage.ErrAlreadyExists
	}
	m.users[user.ID] = *user

	return nil
}

func (m *memStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *memStore) UserByUsername(_ context.Context, username string) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.Username == username })
}

func (m *memStore) UserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.ID == id })
}

func (m *memStore) UpdatePassword(_ context.Context, id uuid.UUID, hash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = now
	m.users[id] = u

	return nil
}

func (m *memStore) UpdateProfile(_ context.Context, id uuid.UUID, username, email string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	if m.taken(id, email, username) {
		return storage.ErrAlreadyExists
	}
	u.Username = username
	u.Email = email
	u.UpdatedAt = now
	m.users[id] = u

	return nil
}

func (m *memStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.users, id)

	return nil
}

func (m *memStore) SavePendingUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, u := range m.users {
		if !strings.EqualFold(u.Email, user.Email) {
			continue
		}
		if !u.Pending() {
			return storage.ErrAlreadyExists
		}
		u.VerificationToken = user.VerificationToken
		u.VerificationExpiresAt = user.VerificationExpiresAt
		u.UpdatedAt = user.UpdatedAt
		m.users[id] = u
		return nil
	}
	m.users[user.ID] = *user

	return nil
}

func (m *memStore) UserByVerificationToken(_ context.Context, token string, now time.Time) (*models.User, error) {
	return m.find(func(u models.User) bool {
		return u.VerificationToken == token && !u.VerificationExpiresAt.Before(now)
	})
}

func (m *memStore) MarkVerified(_ context.Context, id uuid.UUID, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.IsVerified = true
	u.VerificationToken = ""
	u.VerificationExpiresAt = time.Time{}
	u.UpdatedAt = now
	m.users[id] = u

	return nil
}

func (m *memStore) CompleteRegistration(_ context.Context, id uuid.UUID, username, hash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok || !u.Pending() {
		return storage.ErrNotFound
	}
	if m.taken(id, u.Email, username) {
		return storage.ErrAlreadyExists
	}
	u.Username = username
	u.PasswordHash = hash
	u.UpdatedAt = now
	m.users[id] = u

	return nil
}

func (m *memStore) DeleteExpiredPending(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, u := range m.users {
		if u.Pending() && u.VerificationExpiresAt.Before(now) {
			delete(m.users, id)
			n++
		}
	}

	return n, nil
}

func (m *memStore) Close() {}

var _ storage.Storage = (*memStore)(nil)

// inbox запоминает отправленные письма.
type inbox struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (b *inbox) Notify(_ context.Context, msg notify.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
	return nil
}

func (b *inbox) Close() error { return nil }

func (b *inbox) last() notify.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.msgs) == 0 {
		return notify.Message{}
	}
	return b.msgs[len(b.msgs)-1]
}
