package devbackend

import (
	"context"
	"strings"
	"sync"
)

// MemoryRepository is an in-process Repository for tests and local runs
// without Postgres.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

// NewMemoryRepository builds an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

// Create inserts a new user.
func (r *MemoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := r.byEmail[email]; exists {
		return ErrEmailTaken
	}
	r.byID[user.ID] = user
	r.byEmail[email] = user.ID
	return nil
}

// FindByEmail fetches a user by email.
func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.byID[id], nil
}

// FindByID fetches a user by identifier.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

// SetIdentityVerified marks the user's identity as verified.
func (r *MemoryRepository) SetIdentityVerified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	user.IdentityVerified = true
	r.byID[id] = user
	return nil
}
