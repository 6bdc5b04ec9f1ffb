package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"api_pos/internal/auth"
)

// CreateUser stores a new user account.
func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)`,
		u.Username, u.PasswordHash, string(u.Role), toMillis(u.CreatedAt),
	)
	if err != nil {
		if uniqueViolation(err, "users.username") {
			return auth.ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser returns one user by username.
func (s *Store) GetUser(ctx context.Context, username string) (*auth.User, error) {
	var (
		u         auth.User
		role      string
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT username, password_hash, role, created_at FROM users WHERE username = ?`, username,
	).Scan(&u.Username, &u.PasswordHash, &role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Role = auth.Role(role)
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}
