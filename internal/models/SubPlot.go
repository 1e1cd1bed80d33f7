package models

import (
	"strings"

	"github.com/google/uuid"
)

type Direction string

const (
	DirectionCenter Direction = "center"
	DirectionNorth  Direction = "north"
	DirectionSouth  Direction = "south"
	DirectionEast   Direction = "east"
	DirectionWest   Direction = "west"
)

// Directions lists the five sub-plot positions in derivation order.
var Directions = []Direction{DirectionCenter, DirectionNorth, DirectionSouth, DirectionEast, DirectionWest}

func (d Direction) Valid() bool {
	for _, v := range Directions {
		if d == v {
			return true
		}
	}
	return false
}

// Suffix is the uppercase code suffix, e.g. "NORTH".
func (d Direction) Suffix() string { return strings.ToUpper(string(d)) }

// SubPlot is one of the five measurement points derived from a Site center.
type SubPlot struct {
	Base
	SiteID    uuid.UUID `json:"site_id" gorm:"type:uuid;index;not null"`
	Code      string    `json:"code" gorm:"not null"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Direction Direction `json:"direction" gorm:"not null"`
}
