// Package menu implements the Menu Read Model: cache-first, DB-fallback
// access to a restaurant's catalog, ingredients, and inventory. Every read is
// side-effect free except for cache repopulation, and search/lookup never
// return an error to their caller — a failure degrades to an empty result so
// a single menu hiccup never aborts a turn.
package menu

import "github.com/shopspring/decimal"

// Restaurant is immutable within the scope of a turn.
type Restaurant struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Color string `json:"color" db:"color"`
	Logo  string `json:"logo" db:"logo"`
}

// Item is a single sellable product on a restaurant's menu.
type Item struct {
	ID           int64           `json:"id" db:"id"`
	RestaurantID int64           `json:"restaurant_id" db:"restaurant_id"`
	Name         string          `json:"name" db:"name"`
	Category     string          `json:"category" db:"category"`
	Price        decimal.Decimal `json:"price" db:"price"`
	IsAvailable  bool            `json:"is_available" db:"is_available"`
	Tags         []string        `json:"tags" db:"-"`
}

// Ingredient is read-only to the core; the durable store is the source of
// truth, populated by out-of-band menu imports.
type Ingredient struct {
	ID           int64  `json:"id" db:"id"`
	RestaurantID int64  `json:"restaurant_id" db:"restaurant_id"`
	Name         string `json:"name" db:"name"`
	UnitCost     decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	IsAllergen   bool   `json:"is_allergen" db:"is_allergen"`
	AllergenType string `json:"allergen_type,omitempty" db:"allergen_type"`
}

// ItemIngredient associates an ingredient with a menu item and is the basis
// for validating "no X" / "extra X" modifications.
type ItemIngredient struct {
	MenuItemID     int64           `json:"menu_item_id" db:"menu_item_id"`
	IngredientID   int64           `json:"ingredient_id" db:"ingredient_id"`
	Quantity       decimal.Decimal `json:"quantity" db:"quantity"`
	Unit           string          `json:"unit" db:"unit"`
	IsOptional     bool            `json:"is_optional" db:"is_optional"`
	AdditionalCost decimal.Decimal `json:"additional_cost" db:"additional_cost"`
}

// Inventory is consulted but may legitimately be absent for an ingredient;
// whether its absence blocks an ADD_ITEM is governed by the
// ALLOW_NEGATIVE_INVENTORY config flag.
type Inventory struct {
	IngredientID int64 `json:"ingredient_id" db:"ingredient_id"`
	CurrentStock int   `json:"current_stock" db:"current_stock"`
	MinStock     int   `json:"min_stock" db:"min_stock"`
	IsLowStock   bool  `json:"is_low_stock" db:"is_low_stock"`
}
