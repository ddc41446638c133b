package invite

import "errors"

var (
	ErrInviteNotFound = errors.New("invite not found")
	ErrInviteResolved = errors.New("invite already resolved")
	ErrInviteExpired  = errors.New("invite expired")
	ErrInvalidEmail   = errors.New("invalid email")
	ErrEmailTaken     = errors.New("email already has an account")
	ErrNotEnrolled    = errors.New("invite has no enrolled authenticator")
	ErrInvalidTOTP    = errors.New("invalid totp code")
)
