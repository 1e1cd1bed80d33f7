package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base replaces gorm.Model: rows are hard-deleted so unique indexes free up on delete.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// All returns every model in migration order (parents before children).
func All() []interface{} {
	return []interface{}{
		&Region{},
		&Site{},
		&SubPlot{},
		&Brigade{},
		&Worker{},
		&Assignment{},
		&RegistrationInvite{},
	}
}
