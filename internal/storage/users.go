package storage

import (
	"database/sql"
	"errors"

	"expense-manager/internal/auth"
	"expense-manager/internal/models"
)

const userColumns = "id, username, email, password_hash, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser registers a new user. The password is stored as a bcrypt hash.
// It returns ErrConflict if the username or email is already taken.
func (db *DB) CreateUser(username, email, password string) (*models.User, error) {
	var existing int64
	err := db.conn.QueryRow(
		"SELECT id FROM users WHERE username = ? OR email = ?",
		username, email,
	).Scan(&existing)
	switch {
	case err == nil:
		return nil, ErrConflict
	case !errors.Is(err, sql.ErrNoRows):
		return nil, wrap("check user", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, wrap("hash password", err)
	}

	now := db.timestamp()
	result, err := db.conn.Exec(
		"INSERT INTO users (username, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		username, email, hash, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, wrap("create user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, wrap("create user", err)
	}

	return db.GetUserByID(id)
}

// Authenticate returns the user matching username when password verifies
// against the stored hash, and ErrInvalidCredentials otherwise.
func (db *DB) Authenticate(username, password string) (*models.User, error) {
	u, err := db.GetUserByUsername(username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(id int64) (*models.User, error) {
	u, err := scanUser(db.conn.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		return nil, notFound("get user", err)
	}
	return u, nil
}

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(username string) (*models.User, error) {
	u, err := scanUser(db.conn.QueryRow("SELECT "+userColumns+" FROM users WHERE username = ?", username))
	if err != nil {
		return nil, notFound("get user", err)
	}
	return u, nil
}

// UpdatePassword replaces the user's password hash and touches updated_at.
func (db *DB) UpdatePassword(userID int64, newPassword string) error {
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return wrap("hash password", err)
	}

	result, err := db.conn.Exec(
		"UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
		hash, db.timestamp(), userID,
	)
	if err != nil {
		return wrap("update password", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return wrap("update password", err)
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount() (int, error) {
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, wrap("count users", err)
	}
	return count, nil
}
