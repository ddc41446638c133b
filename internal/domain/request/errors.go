package request

import "errors"

var (
	ErrRequestNotFound = errors.New("add request not found")
	ErrAlreadyResolved = errors.New("add request already resolved")
	ErrInvalidDecision = errors.New("invalid decision")
)
