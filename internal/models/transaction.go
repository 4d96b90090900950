package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction statuses. A rejected transaction is kept as a tombstone.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusRejected  = "rejected"
)

// Transaction kinds
const (
	// TransactionKindRequest: the recipient asked for a supplier's surplus item.
	TransactionKindRequest = "request"
	// TransactionKindOffer: the supplier offered to fill the recipient's request.
	TransactionKindOffer = "offer"
)

// Transaction records a proposed or executed transfer between two centers.
type Transaction struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	FromCenterID    uuid.UUID  `json:"from_center_id" db:"from_center_id"`
	ToCenterID      uuid.UUID  `json:"to_center_id" db:"to_center_id"`
	InitiatedBy     uuid.UUID  `json:"initiated_by" db:"initiated_by"`
	Kind            string     `json:"kind" db:"kind"`
	InventoryItemID *uuid.UUID `json:"inventory_item_id" db:"inventory_item_id"`
	RequestID       *uuid.UUID `json:"request_id" db:"request_id"`
	ItemName        string     `json:"item_name" db:"item_name"`
	Quantity        int        `json:"quantity" db:"quantity"`
	Unit            string     `json:"unit" db:"unit"`
	Message         string     `json:"message" db:"message"`
	Status          string     `json:"status" db:"status"`
	RejectedBy      *uuid.UUID `json:"rejected_by" db:"rejected_by"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	TransactionDate time.Time  `json:"transaction_date" db:"transaction_date"`
	CompletedAt     *time.Time `json:"completed_at" db:"completed_at"`
}

// IsParty reports whether centerID is the supplier or the recipient
func (t *Transaction) IsParty(centerID uuid.UUID) bool {
	return t.FromCenterID == centerID || t.ToCenterID == centerID
}

// Approver is the party that did not initiate the transaction
func (t *Transaction) Approver() uuid.UUID {
	if t.InitiatedBy == t.FromCenterID {
		return t.ToCenterID
	}
	return t.FromCenterID
}

// Counterparty returns the other party from centerID's point of view
func (t *Transaction) Counterparty(centerID uuid.UUID) uuid.UUID {
	if t.FromCenterID == centerID {
		return t.ToCenterID
	}
	return t.FromCenterID
}

// TransactionView is a transaction joined with its counterparty's display name
type TransactionView struct {
	*Transaction
	CounterpartyID   uuid.UUID `json:"counterparty_id"`
	CounterpartyName string    `json:"counterparty_name"`
	Direction        string    `json:"direction"` // "incoming" or "outgoing"
	AwaitingMe       bool      `json:"awaiting_me"`
}

// TransactionHistory partitions a center's transactions. Received and Sent
// hold completed transfers only.
type TransactionHistory struct {
	Received []*TransactionView `json:"received"`
	Sent     []*TransactionView `json:"sent"`
	Pending  []*TransactionView `json:"pending"`
	Rejected []*TransactionView `json:"rejected"`
}
