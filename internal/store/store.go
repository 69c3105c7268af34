// Package store holds the server side of the watchlist collection and the
// user accounts.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"stocktracker/internal/watchlist"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes long")
)

// User is a registered account. The password is only kept as a bcrypt hash.
type User struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash []byte `json:"password_hash"`
}

// Store persists the watchlist and the users.
type Store interface {
	// List returns all entries in insertion order.
	List(ctx context.Context) ([]watchlist.Entry, error)
	// Append adds entries as-is; duplicates are kept.
	Append(ctx context.Context, entries []watchlist.Entry) error
	// CreateUser fails with ErrUserExists when the email is taken.
	CreateUser(ctx context.Context, u User) error
	// User fails with ErrUserNotFound for an unknown email.
	User(ctx context.Context, email string) (User, error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user with a hashed password.
func Register(ctx context.Context, s Store, name, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return ErrPasswordTooLong
	}
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.CreateUser(ctx, User{Name: name, Email: normalizeEmail(email), PasswordHash: hash})
}

// Authenticate checks email and password. Unknown users and wrong
// passwords are both ErrInvalidCredentials.
func Authenticate(ctx context.Context, s Store, email, password string) (User, error) {
	u, err := s.User(ctx, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}
