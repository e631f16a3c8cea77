// Package user defines the account aggregate behind sign-in and favorites
package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User represents a registered account
type User struct {
	id           uuid.UUID
	email        string
	name         string
	passwordHash string
	isActive     bool
	createdAt    time.Time
	updatedAt    time.Time
	lastLoginAt  *time.Time
}

// NewUser creates a new user with validation.
// An empty name defaults to the local part of the email address.
func NewUser(email, name, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrPasswordHash
	}

	now := time.Now()
	return &User{
		id:           uuid.New(),
		email:        email,
		name:         name,
		passwordHash: string(hashedPassword),
		isActive:     true,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Snapshot carries persisted user state back into the aggregate
type Snapshot struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
}

// Reconstruct rebuilds a user from storage without re-validating or re-hashing
func Reconstruct(s Snapshot) *User {
	return &User{
		id:           s.ID,
		email:        s.Email,
		name:         s.Name,
		passwordHash: s.PasswordHash,
		isActive:     s.IsActive,
		createdAt:    s.CreatedAt,
		updatedAt:    s.UpdatedAt,
		lastLoginAt:  s.LastLoginAt,
	}
}

// ID returns the user's ID
func (u *User) ID() uuid.UUID {
	return u.id
}

// Email returns the user's email
func (u *User) Email() string {
	return u.email
}

// Name returns the user's display name
func (u *User) Name() string {
	return u.name
}

// PasswordHash returns the bcrypt hash for persistence
func (u *User) PasswordHash() string {
	return u.passwordHash
}

// IsActive returns whether the user may sign in
func (u *User) IsActive() bool {
	return u.isActive
}

// CreatedAt returns when the user was created
func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

// UpdatedAt returns when the user was last updated
func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

// LastLoginAt returns when the user last signed in
func (u *User) LastLoginAt() *time.Time {
	return u.lastLoginAt
}

// CheckPassword verifies if the provided password matches
func (u *User) CheckPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

// Deactivate blocks further sign-ins
func (u *User) Deactivate() {
	u.isActive = false
	u.updatedAt = time.Now()
}

// RecordLogin records a login timestamp
func (u *User) RecordLogin() {
	now := time.Now()
	u.lastLoginAt = &now
	u.updatedAt = now
}

func validateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}

	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return ErrInvalidEmail
	}

	if len(email) > 255 {
		return ErrEmailTooLong
	}

	return nil
}

func validateName(name string) error {
	if len(name) > 100 {
		return ErrNameTooLong
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}

	if len(password) > 72 {
		return ErrPasswordTooLong
	}

	return nil
}
