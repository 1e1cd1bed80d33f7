package models

import (
	"time"

	"github.com/google/uuid"
)

type InvitationState string

const (
	InvitationPending  InvitationState = "pending"
	InvitationAccepted InvitationState = "accepted"
	InvitationRejected InvitationState = "rejected"
)

// Assignment links one Worker to one Brigade. The composite primary key makes
// the (brigade, worker) pair unique at the store level.
type Assignment struct {
	BrigadeID       uuid.UUID       `json:"brigade_id" gorm:"type:uuid;primaryKey"`
	WorkerID        uuid.UUID       `json:"worker_id" gorm:"type:uuid;primaryKey;index"`
	State           InvitationState `json:"state" gorm:"index;not null;default:pending"`
	InvitedAt       time.Time       `json:"invited_at"`
	RespondedAt     *time.Time      `json:"responded_at"`
	RejectionReason *string         `json:"rejection_reason"`

	Brigade *Brigade `gorm:"foreignKey:BrigadeID" json:"brigade,omitempty"`
	Worker  *Worker  `gorm:"foreignKey:WorkerID" json:"worker,omitempty"`
}
