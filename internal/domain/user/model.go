package user

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID          string  `gorm:"type:uuid;primaryKey"`
	FirstName   *string `gorm:"type:text"`
	LastName    *string `gorm:"type:text"`
	Username    string  `gorm:"not null;uniqueIndex"`
	Email       string  `gorm:"not null;uniqueIndex"`
	PhoneNumber *string `gorm:"uniqueIndex"`
	// Password holds the bcrypt hash; nil for TOTP-only member accounts.
	Password *string `gorm:"type:text"`
	// TOTPSecret is the sealed TOTP seed for member accounts; nil for
	// password-only admins.
	TOTPSecret []byte     `gorm:"column:totp_secret;type:bytea"`
	Role       string     `gorm:"type:user_role;not null;default:user"`
	CreatedAt  time.Time  `gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime"`
	LastLogin  *time.Time `gorm:"type:timestamptz"`
}

// Session lifetime is strictly bounded by its user: the schema cascades
// deletion, and expiry is checked (and enforced) on every authentication.
type Session struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
}

type RegisterAdminInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}
