package user

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already taken")
	ErrPhoneTaken         = errors.New("phone number already taken")
	ErrAdminExists        = errors.New("admin account already exists")
	ErrNotEnrolled        = errors.New("account has no enrolled authenticator")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)
