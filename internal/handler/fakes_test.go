package handler

// In-memory stand-ins for the repository layer, mirroring its sentinel error
// contract so handler tests exercise the same failure paths the real stores
// produce.

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/queue"
	"github.com/iliyamo/auth-service/internal/repository"
)

type fakeUsers struct {
	mu   sync.Mutex
	byID map[string]model.User
	seq  int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]model.User{}}
}

func (f *fakeUsers) emailTaken(email, exceptID string) bool {
	for id, u := range f.byID {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func (f *fakeUsers) Create(_ context.Context, u model.User) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if f.emailTaken(u.Email, "") {
		return "", repository.ErrEmailExists
	}
	u.ID = uuid.NewString()
	f.seq++
	u.CreatedAt = time.Unix(int64(f.seq), 0).UTC() // stable list ordering
	f.byID[u.ID] = u
	return u.ID, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.byID))
	for _, u := range f.byID {
		u.PasswordHash = "" // summary projection
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeUsers) Update(_ context.Context, id, name, surname, patronymic, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if f.emailTaken(email, id) {
		return repository.ErrEmailExists
	}
	u.Name, u.Surname, u.Patronymic, u.Email = name, surname, patronymic, email
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) UpdateAdmin(_ context.Context, id string, in model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if f.emailTaken(email, id) {
		return repository.ErrEmailExists
	}
	u.Name, u.Surname, u.Patronymic, u.Email = in.Name, in.Surname, in.Patronymic, email
	u.IsActive, u.IsVerified, u.IsAdmin = in.IsActive, in.IsVerified, in.IsAdmin
	if in.PasswordHash != "" {
		u.PasswordHash = in.PasswordHash
	}
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) SetActive(_ context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive = active
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) SetVerified(_ context.Context, id string, verified bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsVerified = verified
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) UpdatePasswordHash(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeSessions struct {
	mu   sync.Mutex
	rows map[string]model.Session // keyed by token hash
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{rows: map[string]model.Session{}}
}

func (f *fakeSessions) Create(_ context.Context, userID, tokenHash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[tokenHash] = model.Session{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: exp,
		IsActive:  true,
	}
	return nil
}

func (f *fakeSessions) DeactivateByUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	flipped := 0
	for h, s := range f.rows {
		if s.UserID == userID && s.IsActive {
			s.IsActive = false
			f.rows[h] = s
			flipped++
		}
	}
	if flipped == 0 {
		return repository.ErrSessionNotFound
	}
	return nil
}

func (f *fakeSessions) DeactivateByToken(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[tokenHash]
	if !ok || !s.IsActive {
		return repository.ErrSessionNotFound
	}
	s.IsActive = false
	f.rows[tokenHash] = s
	return nil
}

func (f *fakeSessions) IsActive(_ context.Context, tokenHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[tokenHash]
	if !ok || !s.IsActive {
		return false, nil
	}
	return time.Now().UTC().Before(s.ExpiresAt), nil
}

func (f *fakeSessions) activeCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.rows {
		if s.UserID == userID && s.IsActive {
			n++
		}
	}
	return n
}

type fakeEvents struct {
	mu    sync.Mutex
	types []string
}

func (f *fakeEvents) Publish(_ context.Context, ev queue.AuthEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types = append(f.types, ev.Type)
	return nil
}

func (f *fakeEvents) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.types...)
}
