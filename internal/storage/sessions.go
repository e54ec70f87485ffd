package storage

import (
	"time"

	"expense-manager/internal/models"
)

// SessionInfo holds session validation data.
type SessionInfo struct {
	User         *models.User
	LastActivity time.Time
	ExpiresAt    time.Time
}

// CreateSession creates a new session for a user.
func (db *DB) CreateSession(token string, userID int64, expiresAt time.Time) error {
	_, err := db.conn.Exec(
		"INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)",
		token, userID, expiresAt.UTC(), db.timestamp(),
	)
	return wrap("create session", err)
}

// ValidateSession checks if a session token is valid and returns the associated user.
func (db *DB) ValidateSession(token string) (*models.User, error) {
	info, err := db.ValidateSessionWithInfo(token)
	if err != nil {
		return nil, err
	}
	return info.User, nil
}

// ValidateSessionWithInfo checks if a session token is valid and returns session details.
// Expired and unknown tokens yield ErrNotFound.
func (db *DB) ValidateSessionWithInfo(token string) (*SessionInfo, error) {
	row := db.conn.QueryRow(`
		SELECT u.id, u.username, u.email, u.password_hash, u.created_at, u.updated_at,
		       s.last_activity, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ?
	`, token, db.timestamp())

	var u models.User
	var info SessionInfo
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
		&info.LastActivity, &info.ExpiresAt); err != nil {
		return nil, notFound("validate session", err)
	}
	info.User = &u
	return &info, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(token string, newExpiresAt time.Time) error {
	_, err := db.conn.Exec(
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		db.timestamp(), newExpiresAt.UTC(), token,
	)
	return wrap("renew session", err)
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(token string) error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE token = ?", token)
	return wrap("delete session", err)
}

// CleanExpiredSessions removes all expired sessions and reports how many were dropped.
func (db *DB) CleanExpiredSessions() (int64, error) {
	result, err := db.conn.Exec("DELETE FROM sessions WHERE expires_at <= ?", db.timestamp())
	if err != nil {
		return 0, wrap("clean sessions", err)
	}
	n, err := result.RowsAffected()
	return n, wrap("clean sessions", err)
}
