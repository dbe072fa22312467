// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Accounts come from two places: password registration and Google OAuth.
// An OAuth-only account has no password hash, a password account may later
// get a Google ID attached on its first matching OAuth login. After a
// successful registration a user always has at least one of the two.
//
// PasswordHash and GoogleID are tagged `json:"-"` so they can never leak
// through an API response, no matter which handler serializes the struct.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GoogleID     string    `json:"-"`
	Avatar       string    `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasPassword reports whether this account can log in with a password.
// False means the account was provisioned through OAuth only.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
