package models

import (
	"time"

	"github.com/google/uuid"
)

type BrigadeState string

const (
	BrigadeFormation BrigadeState = "formation"
	BrigadeActive    BrigadeState = "active"
	BrigadeCompleted BrigadeState = "completed"
	BrigadeCancelled BrigadeState = "cancelled"
)

var BrigadeStates = []BrigadeState{BrigadeFormation, BrigadeActive, BrigadeCompleted, BrigadeCancelled}

func (s BrigadeState) Valid() bool {
	for _, v := range BrigadeStates {
		if s == v {
			return true
		}
	}
	return false
}

// BrigadeTransitions is the strict adjacency table. It is only consulted when
// strict transitions are switched on; by default any state may follow any other.
var BrigadeTransitions = map[BrigadeState][]BrigadeState{
	BrigadeFormation: {BrigadeActive, BrigadeCancelled},
	BrigadeActive:    {BrigadeCompleted, BrigadeCancelled},
	BrigadeCompleted: {},
	BrigadeCancelled: {},
}

// CanTransition reports whether the strict table allows from -> to.
func CanTransition(from, to BrigadeState) bool {
	for _, next := range BrigadeTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Brigade is a field team working one approved Site.
type Brigade struct {
	Base
	Name      string       `json:"name" gorm:"not null"`
	SiteID    uuid.UUID    `json:"site_id" gorm:"type:uuid;uniqueIndex;not null"`
	StartDate *time.Time   `json:"start_date"`
	EndDate   *time.Time   `json:"end_date"`
	CreatorID string       `json:"creator_id" gorm:"not null"`
	State     BrigadeState `json:"state" gorm:"index;not null;default:formation"`

	Site        *Site        `gorm:"foreignKey:SiteID" json:"site,omitempty"`
	Assignments []Assignment `gorm:"foreignKey:BrigadeID;constraint:OnDelete:CASCADE;" json:"members,omitempty"`
}
