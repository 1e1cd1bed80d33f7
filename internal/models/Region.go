package models

// Region is an administrative division (a Colombian department). It is seeded
// once and read-only afterwards.
type Region struct {
	Base
	Name string `json:"name" gorm:"not null"`
	Code string `json:"code" gorm:"uniqueIndex;not null"`
}
