package models

import "time"

// SnapshotSummary holds the headline counts of an export
type SnapshotSummary struct {
	TotalCenters int `json:"total_centers"`
	TotalItems   int `json:"total_items"`
	OpenRequests int `json:"open_requests"`
	Transactions int `json:"transactions"`
}

// SnapshotData holds every record of the four collections
type SnapshotData struct {
	Centers      []*Center        `json:"centers"`
	Inventory    []*InventoryItem `json:"inventory"`
	Requests     []*Request       `json:"requests"`
	Transactions []*Transaction   `json:"transactions"`
}

// Snapshot is a point-in-time export of the whole store. Center password
// hashes are never serialized.
type Snapshot struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Summary     SnapshotSummary `json:"summary"`
	Data        SnapshotData    `json:"data"`
}
