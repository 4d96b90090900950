package models

import (
	"time"

	"github.com/google/uuid"
)

// Request urgencies
const (
	UrgencyCritical = "critical"
	UrgencyNormal   = "normal"
	UrgencyLow      = "low"
)

// Request statuses
const (
	RequestStatusOpen      = "open"
	RequestStatusFulfilled = "fulfilled"
)

// RequestFilter holds criteria for the open network request view
type RequestFilter struct {
	Query   string  `json:"query,omitempty" query:"query"`     // Case-insensitive item-name substring
	Urgency *string `json:"urgency,omitempty" query:"urgency"` // critical, normal, low
	SortBy  string  `json:"sort_by,omitempty" query:"sort_by"` // recent (default), urgency
}

// Request is an open need for an item posted by a center.
type Request struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	CenterID          uuid.UUID  `json:"center_id" db:"center_id"`
	ItemName          string     `json:"item_name" db:"item_name"`
	QuantityNeeded    int        `json:"quantity_needed" db:"quantity_needed"`
	QuantityFulfilled int        `json:"quantity_fulfilled" db:"quantity_fulfilled"`
	Unit              string     `json:"unit" db:"unit"`
	Urgency           string     `json:"urgency" db:"urgency"`
	Description       string     `json:"description" db:"description"`
	Status            string     `json:"status" db:"status"`
	Fulfilled         bool       `json:"fulfilled" db:"fulfilled"`
	FulfilledBy       *uuid.UUID `json:"fulfilled_by" db:"fulfilled_by"`
	FulfilledAt       *time.Time `json:"fulfilled_at" db:"fulfilled_at"`
	RequestedOn       time.Time  `json:"requested_on" db:"requested_on"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// Remaining is the quantity still needed
func (r *Request) Remaining() int {
	if r.QuantityFulfilled >= r.QuantityNeeded {
		return 0
	}
	return r.QuantityNeeded - r.QuantityFulfilled
}

// UrgencyRank orders urgencies from most to least pressing
func UrgencyRank(urgency string) int {
	switch urgency {
	case UrgencyCritical:
		return 0
	case UrgencyNormal:
		return 1
	default:
		return 2
	}
}

// IsValidUrgency reports whether urgency is a known level
func IsValidUrgency(urgency string) bool {
	switch urgency {
	case UrgencyCritical, UrgencyNormal, UrgencyLow:
		return true
	}
	return false
}
