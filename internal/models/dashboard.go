package models

import (
	"time"

	"github.com/google/uuid"
)

// DashboardSummary is the per-center overview shown after login
type DashboardSummary struct {
	CenterID              uuid.UUID         `json:"center_id"`
	Inventory             InventoryMetrics  `json:"inventory"`
	ActiveRequests        int               `json:"active_requests"`
	PendingTransactions   int               `json:"pending_transactions"`
	CompletedTransactions int               `json:"completed_transactions"`
	RecentItems           []*InventoryItem  `json:"recent_items"`
	RecentNetworkRequests []*RequestListing `json:"recent_network_requests"`
	GeneratedAt           time.Time         `json:"generated_at"`
}

// SurplusListing is a surplus item joined with its owner's display name
type SurplusListing struct {
	*InventoryItem
	CenterName string `json:"center_name"`
}

// CenterSurplus groups one center's surplus items
type CenterSurplus struct {
	CenterID   uuid.UUID        `json:"center_id"`
	CenterName string           `json:"center_name"`
	Items      []*InventoryItem `json:"items"`
}

// RequestListing is a request joined with its owner's display name
type RequestListing struct {
	*Request
	CenterName string `json:"center_name"`
}

// MyRequests partitions a center's own requests
type MyRequests struct {
	Open      []*Request `json:"open"`
	Fulfilled []*Request `json:"fulfilled"`
}
