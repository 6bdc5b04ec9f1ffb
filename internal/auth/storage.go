package auth

import (
	"context"
	"errors"
	"sync"
)

// ErrUserNotFound is returned when no user has the given username.
var ErrUserNotFound = errors.New("user not found")

// ErrUserExists is returned when registering a taken username.
var ErrUserExists = errors.New("user already exists")

// Storage persists user accounts.
type Storage interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, username string) (*User, error)
}

// LocalStorage provides an in-memory user store.
type LocalStorage struct {
	mu sync.RWMutex
	m  map[string]User
}

// NewLocalStorage instantiates an empty LocalStorage.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{m: map[string]User{}}
}

// CreateUser stores u. Returns ErrUserExists if the username is taken.
func (l *LocalStorage) CreateUser(ctx context.Context, u *User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.m[u.Username]; ok {
		return ErrUserExists
	}
	l.m[u.Username] = *u
	return nil
}

// GetUser retrieves a user by username.
func (l *LocalStorage) GetUser(ctx context.Context, username string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	u, ok := l.m[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}
