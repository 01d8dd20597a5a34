package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finance-tracker/internal/models"
)

// CreateUser creates a new user with the given username, email and password hash.
// A duplicate username or email yields ErrUniqueViolation.
func (db *DB) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	result, err := db.conn.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		username, email, passwordHash,
	)
	if err != nil {
		return nil, classify("create user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, classify("create user", err)
	}

	return db.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash FROM users WHERE id = ?",
		id,
	)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, classify("get user", err)
	}
	return u, nil
}

// GetUserByUsername retrieves a user by username. An unknown username is not
// an error: it returns a nil user and a nil error.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash FROM users WHERE username = ?",
		username,
	)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get user by username", err)
	}
	return u, nil
}

// UpdateUserEmail changes the email of the named user and returns the updated row.
func (db *DB) UpdateUserEmail(ctx context.Context, username, newEmail string) (*models.User, error) {
	result, err := db.conn.ExecContext(ctx,
		"UPDATE users SET email = ? WHERE username = ?",
		newEmail, username,
	)
	if err != nil {
		return nil, classify("update user email", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, classify("update user email", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}

	return db.GetUserByUsername(ctx, username)
}

// DeleteUser removes the named user and reports whether a row was removed.
func (db *DB) DeleteUser(ctx context.Context, username string) (bool, error) {
	result, err := db.conn.ExecContext(ctx, "DELETE FROM users WHERE username = ?", username)
	if err != nil {
		return false, classify("delete user", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, classify("delete user", err)
	}
	return n > 0, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash); err != nil {
		return nil, err
	}
	return &u, nil
}
