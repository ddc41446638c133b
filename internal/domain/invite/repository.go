package invite

import (
	"context"

	"family-tree-go/internal/domain/member"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	Create(ctx context.Context, inv *Invite) error
	GetByID(ctx context.Context, id string) (*Invite, error)
	List(ctx context.Context, offset, limit int) ([]Invite, error)
	SetTOTPSecret(ctx context.Context, id string, secret []byte) error
	// MarkResolved transitions pending to status, returning the number of
	// rows that transitioned.
	MarkResolved(ctx context.Context, id, status string) (int64, error)
}

// Members resolves invited members: existence at invite creation, the full
// record at verification so the provisioned account carries the member's name.
type Members interface {
	Exists(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*member.Member, error)
}

// Accounts is the slice of the user service invites need: rejecting invites
// for already-registered emails and provisioning the member's account once
// the TOTP enrollment is verified.
type Accounts interface {
	EmailTaken(ctx context.Context, email string) (bool, error)
	CreateMemberAccount(ctx context.Context, email, firstName, lastName string, totpSecret []byte) error
}

// Sender delivers the invite link.
type Sender interface {
	SendInvite(ctx context.Context, toEmail, link string) error
}
