package models

import "github.com/google/uuid"

type WorkerState string

const (
	WorkerActive    WorkerState = "active"
	WorkerSuspended WorkerState = "suspended"
)

// Worker is a registered field-worker ("brigadista") account.
type Worker struct {
	Base
	NationalID  string      `json:"national_id" gorm:"uniqueIndex;not null"`
	Name        string      `json:"name" gorm:"not null"`
	Email       string      `json:"email" gorm:"uniqueIndex;not null"`
	Phone       *string     `json:"phone"`
	RegionID    uuid.UUID   `json:"region_id" gorm:"type:uuid;index"`
	Credentials []string    `json:"credentials" gorm:"type:text;serializer:json"`
	Experience  []string    `json:"experience" gorm:"type:text;serializer:json"`
	State       WorkerState `json:"state" gorm:"index;not null;default:active"`

	Region *Region `gorm:"foreignKey:RegionID" json:"region,omitempty"`
}
