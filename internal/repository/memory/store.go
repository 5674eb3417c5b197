// Package memory provides process-local implementations of the persistence
// contracts. All stores created from one Store share a single lock, so
// operations spanning users and codes are atomic.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/blogauth-server/internal/model"
)

// Store holds every table in memory.
type Store struct {
	mu            sync.Mutex
	users         map[uuid.UUID]model.User
	confirmations map[string]model.EmailConfirmation
	recoveries    map[string]model.PasswordRecovery
	sessions      map[model.SessionKey]model.DeviceSession
	now           func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]model.User),
		confirmations: make(map[string]model.EmailConfirmation),
		recoveries:    make(map[string]model.PasswordRecovery),
		sessions:      make(map[model.SessionKey]model.DeviceSession),
		now:           time.Now,
	}
}

// Users returns the user store view.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Confirmations returns the confirmation code store view.
func (s *Store) Confirmations() *ConfirmationRepository { return &ConfirmationRepository{s: s} }

// Recoveries returns the recovery code store view.
func (s *Store) Recoveries() *RecoveryRepository { return &RecoveryRepository{s: s} }

// Sessions returns the device session store view.
func (s *Store) Sessions() *SessionRepository { return &SessionRepository{s: s} }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, user model.User) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Login, user.Login) {
			return model.User{}, model.ErrDuplicateLogin
		}
		if strings.EqualFold(u.Email, user.Email) {
			return model.User{}, model.ErrDuplicateEmail
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.s.users[user.ID] = user
	return user, nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (model.User, error) {
	return r.find(func(u model.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepository) GetByLoginOrEmail(_ context.Context, loginOrEmail string) (model.User, error) {
	return r.find(func(u model.User) bool {
		return strings.EqualFold(u.Login, loginOrEmail) || strings.EqualFold(u.Email, loginOrEmail)
	})
}

func (r *UserRepository) find(match func(model.User) bool) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if match(u) {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

var _ model.ConfirmationStore = (*ConfirmationRepository)(nil)

type ConfirmationRepository struct{ s *Store }

func (r *ConfirmationRepository) Replace(_ context.Context, c model.EmailConfirmation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for hash, existing := range r.s.confirmations {
		if existing.UserID == c.UserID && !existing.IsUsed {
			delete(r.s.confirmations, hash)
		}
	}
	c.IsUsed = false
	r.s.confirmations[c.CodeHash] = c
	return nil
}

func (r *ConfirmationRepository) Consume(_ context.Context, codeHash string, now time.Time) (uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.confirmations[codeHash]
	if !ok || c.IsUsed || !now.Before(c.ExpiresAt) {
		return uuid.Nil, model.ErrNotFound
	}
	u, ok := r.s.users[c.UserID]
	if !ok || u.IsConfirmed {
		return uuid.Nil, model.ErrNotFound
	}

	c.IsUsed = true
	r.s.confirmations[codeHash] = c
	u.IsConfirmed = true
	u.UpdatedAt = now
	r.s.users[u.ID] = u
	return u.ID, nil
}

var _ model.RecoveryStore = (*RecoveryRepository)(nil)

type RecoveryRepository struct{ s *Store }

func (r *RecoveryRepository) Replace(_ context.Context, rec model.PasswordRecovery) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec.Email = strings.ToLower(rec.Email)
	r.s.recoveries[rec.Email] = rec
	return nil
}

func (r *RecoveryRepository) Consume(_ context.Context, codeHash, passwordHash string, now time.Time) (uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for email, rec := range r.s.recoveries {
		if rec.CodeHash != codeHash {
			continue
		}
		if !now.Before(rec.ExpiresAt) {
			return uuid.Nil, model.ErrNotFound
		}
		for id, u := range r.s.users {
			if strings.EqualFold(u.Email, email) {
				delete(r.s.recoveries, email)
				u.PasswordHash = passwordHash
				u.UpdatedAt = now
				r.s.users[id] = u
				return id, nil
			}
		}
		return uuid.Nil, model.ErrNotFound
	}
	return uuid.Nil, model.ErrNotFound
}

var _ model.SessionStore = (*SessionRepository)(nil)

type SessionRepository struct{ s *Store }

func (r *SessionRepository) Upsert(_ context.Context, session model.DeviceSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.sessions[session.Key()] = session
	return nil
}

func (r *SessionRepository) Get(_ context.Context, key model.SessionKey) (model.DeviceSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session, ok := r.s.sessions[key]
	if !ok {
		return model.DeviceSession{}, model.ErrNotFound
	}
	return session, nil
}

func (r *SessionRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]model.DeviceSession, error) {
	list := r.filter(func(s model.DeviceSession) bool { return s.UserID == userID })
	sort.Slice(list, func(i, j int) bool { return list[i].LastActiveAt.After(list[j].LastActiveAt) })
	return list, nil
}

func (r *SessionRepository) FindByDeviceID(_ context.Context, deviceID string) ([]model.DeviceSession, error) {
	return r.filter(func(s model.DeviceSession) bool { return s.DeviceID == deviceID }), nil
}

func (r *SessionRepository) Rotate(_ context.Context, key model.SessionKey, expectedTokenID string, next model.SessionRotation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session, ok := r.s.sessions[key]
	if !ok || session.CurrentTokenID != expectedTokenID {
		return model.ErrTokenReplay
	}
	session.CurrentTokenID = next.TokenID
	session.IP = next.IP
	session.LastActiveAt = next.LastActiveAt
	session.ExpiresAt = next.ExpiresAt
	r.s.sessions[key] = session
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, key model.SessionKey) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.sessions[key]; !ok {
		return model.ErrNotFound
	}
	delete(r.s.sessions, key)
	return nil
}

func (r *SessionRepository) DeleteOthers(_ context.Context, userID uuid.UUID, keepDeviceID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for key := range r.s.sessions {
		if key.UserID == userID && key.DeviceID != keepDeviceID {
			delete(r.s.sessions, key)
		}
	}
	return nil
}

func (r *SessionRepository) filter(match func(model.DeviceSession) bool) []model.DeviceSession {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	var list []model.DeviceSession
	for _, session := range r.s.sessions {
		if match(session) && now.Before(session.ExpiresAt) {
			list = append(list, session)
		}
	}
	return list
}
