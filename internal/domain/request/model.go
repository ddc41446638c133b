package request

import (
	"encoding/json"
	"time"
)

const (
	StatusPending     = "pending"
	StatusApproved    = "approved"
	StatusDisapproved = "disapproved"
)

// AddRequest is a proposed member awaiting moderation. It carries the same
// person fields as a member plus the submission/review trail, and transitions
// out of pending exactly once.
type AddRequest struct {
	ID           string          `gorm:"type:uuid;primaryKey"`
	Name         string          `gorm:"not null"`
	LastName     string          `gorm:"not null"`
	Gender       string          `gorm:"type:gender;not null"`
	Birthday     *time.Time      `gorm:"type:timestamptz"`
	Image        []byte          `gorm:"type:bytea"`
	ImageType    *string         `gorm:"type:text"`
	PersonalInfo json.RawMessage `gorm:"type:jsonb"`
	MotherID     *int64
	FatherID     *int64
	Status       string     `gorm:"type:request_status;not null;default:pending"`
	SubmittedBy  string     `gorm:"not null"`
	SubmittedAt  time.Time  `gorm:"not null"`
	ReviewedBy   *string    `gorm:"type:text"`
	ReviewedAt   *time.Time `gorm:"type:timestamptz"`
	RejectReason *string    `gorm:"type:text"`
}

func (AddRequest) TableName() string { return "member_add_requests" }

type SubmitInput struct {
	Name         string
	LastName     string
	Gender       string
	Birthday     *time.Time
	Image        []byte
	ImageType    *string
	PersonalInfo json.RawMessage
	MotherID     *int64
	FatherID     *int64
	SubmittedBy  string
}

type Decision string

const (
	DecisionApproved    Decision = "approved"
	DecisionDisapproved Decision = "disapproved"
)
