// Package orderstore implements the Order Store (C2): a session-scoped,
// typed blob store for one OrderAggregate per order_id, with per-key TTL.
// Totals are recomputed by the Command Bus, never here — this package only
// gets, upserts, and deletes.
package orderstore

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the OrderAggregate's lifecycle state.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Line is a single line item within an order.
//
// Invariant: TotalPrice == (UnitPrice + ExtraCost) * Quantity, rounded
// half-up to 2dp.
type Line struct {
	LineID              string          `json:"line_id"`
	MenuItemID          int64           `json:"menu_item_id"`
	Quantity            int             `json:"quantity"`
	Size                string          `json:"size,omitempty"`
	Modifiers           []string        `json:"modifiers"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	ExtraCost           decimal.Decimal `json:"extra_cost"`
	TotalPrice          decimal.Decimal `json:"total_price"`
}

// Aggregate is the mutable order for one session.
//
// Invariants: Total == Subtotal + Tax; every Line.MenuItemID belongs to a
// menu item whose restaurant_id equals RestaurantID; once Status ==
// CONFIRMED, lines are immutable.
type Aggregate struct {
	OrderID      string          `json:"order_id"`
	RestaurantID int64           `json:"restaurant_id"`
	Items        []Line          `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	Status       Status          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	ConfirmedAt  *time.Time      `json:"confirmed_at,omitempty"`
}

// NewAggregate creates an empty, ACTIVE order for a restaurant.
func NewAggregate(orderID string, restaurantID int64, now time.Time) *Aggregate {
	return &Aggregate{
		OrderID:      orderID,
		RestaurantID: restaurantID,
		Items:        []Line{},
		Subtotal:     decimal.Zero,
		Tax:          decimal.Zero,
		Total:        decimal.Zero,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Snapshot is the read-only view of an order returned to callers outside the
// Command Bus (response aggregator, orchestrator, external Turn API).
type Snapshot struct {
	OrderID      string          `json:"order_id"`
	RestaurantID int64           `json:"restaurant_id"`
	Items        []Line          `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	Status       Status          `json:"status"`
}

// ToSnapshot produces the external, read-only view of this aggregate.
func (a *Aggregate) ToSnapshot() Snapshot {
	items := make([]Line, len(a.Items))
	copy(items, a.Items)
	return Snapshot{
		OrderID:      a.OrderID,
		RestaurantID: a.RestaurantID,
		Items:        items,
		Subtotal:     a.Subtotal,
		Tax:          a.Tax,
		Total:        a.Total,
		Status:       a.Status,
	}
}

// LineByID finds a line by its opaque line_id.
func (a *Aggregate) LineByID(lineID string) *Line {
	for i := range a.Items {
		if a.Items[i].LineID == lineID {
			return &a.Items[i]
		}
	}
	return nil
}
