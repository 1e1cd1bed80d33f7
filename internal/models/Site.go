package models

import "github.com/google/uuid"

// SiteState is the approval state of a sampling plot.
type SiteState string

const (
	SitePending  SiteState = "pending"
	SiteApproved SiteState = "approved"
	SiteRejected SiteState = "rejected"
)

var SiteStates = []SiteState{SitePending, SiteApproved, SiteRejected}

func (s SiteState) Valid() bool {
	for _, v := range SiteStates {
		if s == v {
			return true
		}
	}
	return false
}

// Site is a sampling plot ("conglomerado"). RegionID stays nil until approval.
type Site struct {
	Base
	Code            string     `json:"code" gorm:"uniqueIndex;not null"`
	Latitude        float64    `json:"latitude" gorm:"not null"`
	Longitude       float64    `json:"longitude" gorm:"not null"`
	State           SiteState  `json:"state" gorm:"index;not null;default:pending"`
	RegionID        *uuid.UUID `json:"region_id" gorm:"type:uuid;index"`
	ApproverID      *string    `json:"approver_id"`
	RejectionReason *string    `json:"rejection_reason"`

	Region   *Region   `gorm:"foreignKey:RegionID" json:"region,omitempty"`
	Brigade  *Brigade  `gorm:"foreignKey:SiteID" json:"brigade,omitempty"`
	SubPlots []SubPlot `gorm:"foreignKey:SiteID;constraint:OnDelete:CASCADE;" json:"subplots,omitempty"`
}

// SiteStats is the count-by-state view.
type SiteStats struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}
