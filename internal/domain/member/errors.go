package member

import "errors"

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrParentNotFound = errors.New("parent member not found")
	ErrNoRootMember   = errors.New("no root member")
	ErrCycleWouldForm = errors.New("parent link would make member its own ancestor")
	ErrGraphCorrupted = errors.New("family graph contains a cycle")
	ErrInvalidGender  = errors.New("invalid gender")
	ErrInvalidImage   = errors.New("image and image type must be provided together")
)
