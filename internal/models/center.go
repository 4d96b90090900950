package models

import (
	"time"

	"github.com/google/uuid"
)

// Center statuses
const (
	CenterStatusActive      = "active"
	CenterStatusInactive    = "inactive"
	CenterStatusMaintenance = "maintenance"
)

// UnknownCenterName is shown when a referenced center no longer exists.
const UnknownCenterName = "Unknown center"

// Center is a distribution-center account, the tenant unit of the system.
type Center struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize in JSON
	Phone        string    `json:"phone" db:"phone"`
	Address      string    `json:"address" db:"address"`
	Latitude     float64   `json:"latitude" db:"latitude"`
	Longitude    float64   `json:"longitude" db:"longitude"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// CenterProfilePatch holds the mutable profile fields. Email is immutable.
type CenterProfilePatch struct {
	Name      *string  `json:"name,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
	Address   *string  `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Status    *string  `json:"status,omitempty"`
}

// IsValidCenterStatus reports whether status is a known center status
func IsValidCenterStatus(status string) bool {
	switch status {
	case CenterStatusActive, CenterStatusInactive, CenterStatusMaintenance:
		return true
	}
	return false
}
