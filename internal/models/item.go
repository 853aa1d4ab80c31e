package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// ItemDB represents an inventory item row in the database
type ItemDB struct {
	ItemID      uuid.UUID      `json:"id" db:"item_id"`              // Unique item identifier
	OwnerID     uuid.UUID      `json:"ownerId" db:"owner_id"`        // User that owns the item
	Name        string         `json:"name" db:"name"`               // Display name
	Category    string         `json:"category" db:"category"`       // Free-form grouping, e.g. Kitchen
	Quantity    int            `json:"quantity" db:"quantity"`       // Units on hand
	Unit        string         `json:"unit" db:"unit"`               // Unit of measure, e.g. pcs, kg
	UnitPrice   float64        `json:"unitPrice" db:"unit_price"`    // Price per unit
	Description string         `json:"description" db:"description"` // Optional notes
	Attributes  types.JSONText `json:"attributes" db:"attributes"`   // Arbitrary JSON object
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`    // Timestamp when the item was created
	UpdatedAt   time.Time      `json:"updatedAt" db:"updated_at"`    // Timestamp of the last item update
}

// ItemInput carries the fields needed to create an item.
type ItemInput struct {
	Name        string
	Category    string
	Quantity    int
	Unit        string
	UnitPrice   float64
	Description string
	Attributes  types.JSONText
}

// ItemUpdate is a partial item change. Nil fields stay unchanged.
type ItemUpdate struct {
	Name        *string
	Category    *string
	Quantity    *int
	Unit        *string
	UnitPrice   *float64
	Description *string
	Attributes  *types.JSONText
}

// IsEmpty reports whether the update changes nothing.
func (u ItemUpdate) IsEmpty() bool {
	return u.Name == nil && u.Category == nil && u.Quantity == nil && u.Unit == nil &&
		u.UnitPrice == nil && u.Description == nil && u.Attributes == nil
}

// CategoryReport aggregates an owner's items for one category
type CategoryReport struct {
	Category   string  `json:"category" db:"category"`      // Category name
	Items      int     `json:"items" db:"items"`            // Number of distinct items
	Quantity   int     `json:"quantity" db:"quantity"`      // Sum of quantities
	TotalValue float64 `json:"totalValue" db:"total_value"` // Sum of quantity * unit price
}
