package models

import (
	"time"
)

// User represents a betting user with a points balance. A user without a
// password hash is a guest, identified only by username within a session.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        *string   `db:"email"`
	PasswordHash *string   `db:"password_hash"`
	Points       int64     `db:"points"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// IsRegistered reports whether the user has set a password and can log in
// across sessions.
func (u *User) IsRegistered() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
