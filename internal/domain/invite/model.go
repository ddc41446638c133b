package invite

import "time"

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
)

// Invite offers an existing member a login account. MemberID clears if the
// member is removed before the invite resolves.
type Invite struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	MemberID   *int64
	Email      string    `gorm:"not null"`
	Status     string    `gorm:"type:invite_status;not null;default:pending"`
	TOTPSecret []byte    `gorm:"column:totp_secret;type:bytea"`
	CreatedAt  time.Time `gorm:"not null"`
	ExpiresAt  time.Time `gorm:"not null"`
}

func (Invite) TableName() string { return "member_invites" }
