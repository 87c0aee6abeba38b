package command

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/drivethru-ai/conversation-core/internal/menu"
)

// UnknownIngredientPolicy mirrors internal/config's policy enum without
// importing the config package, keeping the validator free of any
// process-configuration dependency beyond the single flag it needs.
type UnknownIngredientPolicy string

const (
	PolicyWarn   UnknownIngredientPolicy = "warn"
	PolicyReject UnknownIngredientPolicy = "reject"
)

// Validator is the Customization Validator used inside ADD_ITEM/MODIFY_ITEM:
// it decides whether a "remove X" / "add X" modifier is legal against the
// menu's ingredient associations, and derives the extra cost of an addition.
type Validator struct {
	menu   *menu.ReadModel
	policy UnknownIngredientPolicy
}

func NewValidator(m *menu.ReadModel, policy UnknownIngredientPolicy) *Validator {
	if policy == "" {
		policy = PolicyWarn
	}
	return &Validator{menu: m, policy: policy}
}

func sameIngredientName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// ValidateRemove checks that ingredientName is actually an ingredient of
// menuItemID. "Remove X" is valid iff X is an ingredient of the item.
func (v *Validator) ValidateRemove(ctx context.Context, restaurantID, menuItemID int64, ingredientName string) bool {
	assoc := v.menu.IngredientsOf(ctx, menuItemID)
	for _, a := range assoc {
		ingredient := v.menu.IngredientByID(ctx, restaurantID, a.IngredientID)
		if ingredient != nil && sameIngredientName(ingredient.Name, ingredientName) {
			return true
		}
	}
	return false
}

// ValidateAdd resolves the extra cost of adding ingredientName to
// menuItemID. ok=false means the ingredient isn't known to the restaurant at
// all; whether that blocks the command is the caller's policy decision.
// extraCost comes from MenuItemIngredient.AdditionalCost when the ingredient
// is already associated with the item (an upgrade/extra), otherwise from
// Ingredient.UnitCost.
func (v *Validator) ValidateAdd(ctx context.Context, restaurantID, menuItemID int64, ingredientName string) (extraCost decimal.Decimal, ok bool) {
	assoc := v.menu.IngredientsOf(ctx, menuItemID)
	for _, a := range assoc {
		ingredient := v.menu.IngredientByID(ctx, restaurantID, a.IngredientID)
		if ingredient != nil && sameIngredientName(ingredient.Name, ingredientName) {
			return a.AdditionalCost, true
		}
	}

	ingredient := v.menu.IngredientByName(ctx, restaurantID, ingredientName)
	if ingredient == nil {
		return decimal.Zero, false
	}
	return ingredient.UnitCost, true
}

// Policy exposes the configured unknown-ingredient handling so the bus can
// decide between a hard error and a warning.
func (v *Validator) Policy() UnknownIngredientPolicy {
	return v.policy
}

// conflictingChangeSet flags a MODIFY_ITEM command whose add_modifier and
// remove_modifier name the same ingredient (normalized, case-insensitive) —
// a self-contradictory edit. set_size/set_quantity never conflict with
// modifier changes.
func conflictingChangeSet(changes ModifyChanges) bool {
	if changes.AddModifier == "" || changes.RemoveModifier == "" {
		return false
	}
	return sameIngredientName(changes.AddModifier, changes.RemoveModifier)
}
