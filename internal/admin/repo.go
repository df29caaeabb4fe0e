package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"checkin/internal/dbx"
)

// ErrNotFound is returned when no admin has the requested username.
var ErrNotFound = errors.New("admin not found")

// User is an administrator account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Repository persists admin accounts.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetByUsername loads one admin.
func (r *Repository) GetByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at
		FROM admin_users
		WHERE username = $1`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// Create inserts the admin unless the username exists. It reports whether a
// row was written.
func (r *Repository) Create(ctx context.Context, username, passwordHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_users (username, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (username) DO NOTHING`, username, passwordHash)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// Reset replaces the admin account with a fresh row.
func (r *Repository) Reset(ctx context.Context, username, passwordHash string) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM admin_users WHERE username = $1`, username); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO admin_users (username, password_hash) VALUES ($1, $2)`, username, passwordHash)
		return err
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
