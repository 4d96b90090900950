package models

import (
	"time"

	"github.com/google/uuid"
)

// Item classifications
const (
	ClassificationSurplus = "surplus"
	ClassificationInStock = "in_stock"
)

// Item categories
const (
	CategoryMedical  = "Medical"
	CategoryFood     = "Food"
	CategoryClothing = "Clothing"
	CategoryOther    = "Other"
)

// LowStockThreshold is the exclusive upper bound of the "low stock" band (0, 10).
const LowStockThreshold = 10

// Categories lists the accepted item categories in display order
var Categories = []string{CategoryMedical, CategoryFood, CategoryClothing, CategoryOther}

// Units lists the accepted units of measure
var Units = []string{
	"kg", "liters", "pieces", "grams", "meters", "boxes", "bottles",
	"packets", "cartons", "bags", "packs", "sets", "Other",
}

// ItemSearchFilter holds search and filter criteria for a center's own items
type ItemSearchFilter struct {
	Query          string  `json:"query,omitempty" query:"query"`                   // Case-insensitive name substring
	Category       *string `json:"category,omitempty" query:"category"`             // Category filter
	Classification *string `json:"classification,omitempty" query:"classification"` // surplus or in_stock
	MinQuantity    *int    `json:"min_quantity,omitempty" query:"min_quantity"`     // Minimum stock quantity
	SortBy         string  `json:"sort_by,omitempty" query:"sort_by"`               // Sort field: recent, name, quantity
	SortOrder      string  `json:"sort_order,omitempty" query:"sort_order"`         // Sort order: asc, desc
	Limit          int     `json:"limit,omitempty" query:"limit"`                   // Page size (default: 50)
	Offset         int     `json:"offset,omitempty" query:"offset"`                 // Page offset
}

// SurplusFilter holds criteria for the cross-center surplus view
type SurplusFilter struct {
	Query    string  `json:"query,omitempty" query:"query"`       // Case-insensitive name substring
	Category *string `json:"category,omitempty" query:"category"` // Category filter
	SortBy   string  `json:"sort_by,omitempty" query:"sort_by"`   // recent (default), name, quantity
}

// InventoryItem is a stocked or surplus item held by one center.
type InventoryItem struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	CenterID         uuid.UUID  `json:"center_id" db:"center_id"`
	Name             string     `json:"name" db:"name"`
	Category         string     `json:"category" db:"category"`
	Quantity         int        `json:"quantity" db:"quantity"`
	ReservedQuantity int        `json:"reserved_quantity" db:"reserved_quantity"`
	Unit             string     `json:"unit" db:"unit"`
	Classification   string     `json:"classification" db:"classification"`
	Notes            *string    `json:"notes" db:"notes"`
	ExpiryDate       *time.Time `json:"expiry_date" db:"expiry_date"`
	Version          int        `json:"version" db:"version"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// Available is the quantity not held by pending transactions
func (i *InventoryItem) Available() int {
	return i.Quantity - i.ReservedQuantity
}

// IsSurplus reports whether the item is shared with other centers
func (i *InventoryItem) IsSurplus() bool {
	return i.Classification == ClassificationSurplus
}

// ItemPatch is a partial update of an inventory item. Nil fields are left unchanged.
type ItemPatch struct {
	Name           *string    `json:"name,omitempty"`
	Quantity       *int       `json:"quantity,omitempty"`
	Category       *string    `json:"category,omitempty"`
	Unit           *string    `json:"unit,omitempty"`
	Classification *string    `json:"classification,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
}

// InventoryMetrics are dashboard figures derived from a center's items
type InventoryMetrics struct {
	TotalItems        int            `json:"total_items"`
	TotalQuantity     int            `json:"total_quantity"`
	LowStock          int            `json:"low_stock"`
	OutOfStock        int            `json:"out_of_stock"`
	SurplusItems      int            `json:"surplus_items"`
	CategoryBreakdown map[string]int `json:"category_breakdown"`
}

// IsValidCategory reports whether category is accepted
func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// IsValidUnit reports whether unit is accepted
func IsValidUnit(unit string) bool {
	for _, u := range Units {
		if u == unit {
			return true
		}
	}
	return false
}

// IsValidClassification reports whether classification is surplus or in_stock
func IsValidClassification(classification string) bool {
	return classification == ClassificationSurplus || classification == ClassificationInStock
}
