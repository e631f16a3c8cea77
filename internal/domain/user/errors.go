package user

import "errors"

var (
	ErrEmailRequired    = errors.New("email is required")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrEmailTooLong     = errors.New("email too long")
	ErrNameTooLong      = errors.New("name too long")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must not exceed 72 characters")
	ErrPasswordHash     = errors.New("failed to hash password")
	ErrPasswordMismatch = errors.New("password does not match")
	ErrUserNotFound     = errors.New("user not found")
)
