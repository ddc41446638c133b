package member

import (
	"encoding/json"
	"time"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Member is a person node in the family graph. Parent links are plain ids;
// the schema clears them when the referenced member is deleted.
type Member struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"`
	Name         string          `gorm:"not null"`
	LastName     string          `gorm:"not null"`
	Gender       string          `gorm:"type:gender;not null"`
	Birthday     *time.Time      `gorm:"type:timestamptz"`
	Image        []byte          `gorm:"type:bytea"`
	ImageType    *string         `gorm:"type:text"`
	PersonalInfo json.RawMessage `gorm:"type:jsonb"`
	MotherID     *int64          `gorm:"index"`
	FatherID     *int64          `gorm:"index"`
}

type CreateInput struct {
	Name         string
	LastName     string
	Gender       string
	Birthday     *time.Time
	Image        []byte
	ImageType    *string
	PersonalInfo json.RawMessage
	MotherID     *int64
	FatherID     *int64
}

// UpdateInput is a partial update. Nil fields are left untouched; the Clear
// flags null out the corresponding column (the original edit form sends an
// empty value to drop a parent link).
type UpdateInput struct {
	Name         *string
	LastName     *string
	Gender       *string
	Birthday     *time.Time
	Image        []byte
	ImageType    *string
	PersonalInfo json.RawMessage
	MotherID     *int64
	FatherID     *int64
	ClearMother  bool
	ClearFather  bool
	ClearInfo    bool
}

type Direction string

const (
	DirectionAncestors   Direction = "ancestors"
	DirectionDescendants Direction = "descendants"
)

// Node is a member with its subtree. For descendant traversals Children are
// the member's children; for ancestor traversals they are its parents.
type Node struct {
	Member
	Children []*Node `json:"children"`
}
