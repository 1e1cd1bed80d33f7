package models

import "time"

// RegistrationInvite lets an email address self-register as a Worker. Only a
// bcrypt hash of the token is stored.
type RegistrationInvite struct {
	Base
	Email      string     `json:"email" gorm:"index;not null"`
	TokenHash  string     `json:"-" gorm:"not null"`
	InvitedBy  string     `json:"invited_by"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"index"`
	AcceptedAt *time.Time `json:"accepted_at"`
}
