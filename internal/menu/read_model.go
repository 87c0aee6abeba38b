package menu

import (
	"context"
	"strings"

	"github.com/drivethru-ai/conversation-core/internal/metrics"
	"github.com/drivethru-ai/conversation-core/pkg/cache"
	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

// ReadModel is the public Menu Read Model (C1): cache-first access to a
// restaurant's catalog, ingredients, and inventory, with every read falling
// back transparently to the durable store.
type ReadModel struct {
	source *triedSource
	log    *logger.Logger
}

// NewReadModel wires the cache and direct sources behind a single façade.
func NewReadModel(repo Repository, c cache.Cache, m *metrics.Metrics, log *logger.Logger) *ReadModel {
	return &ReadModel{source: newTriedSource(repo, c, m), log: log}
}

// AvailableItems returns every is_available item for a restaurant.
func (m *ReadModel) AvailableItems(ctx context.Context, restaurantID int64) []Item {
	items, _, err := m.source.MenuItems(ctx, restaurantID)
	if err != nil {
		m.log.WithError(err).Warn("menu read model: failed to load menu items for restaurant %d", restaurantID)
		return nil
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.IsAvailable {
			out = append(out, it)
		}
	}
	return out
}

// AllItems returns every menu item for a restaurant regardless of
// availability, for lookups (e.g. by id) that must distinguish "does not
// exist" from "exists but unavailable".
func (m *ReadModel) AllItems(ctx context.Context, restaurantID int64) []Item {
	items, _, err := m.source.MenuItems(ctx, restaurantID)
	if err != nil {
		m.log.WithError(err).Warn("menu read model: failed to load menu items for restaurant %d", restaurantID)
		return nil
	}
	return items
}

// ItemByID looks up a single item by id, regardless of availability.
func (m *ReadModel) ItemByID(ctx context.Context, restaurantID, itemID int64) *Item {
	items := m.AllItems(ctx, restaurantID)
	for i := range items {
		if items[i].ID == itemID {
			return &items[i]
		}
	}
	return nil
}

// Search performs the normalized, keyword-based search described in the
// read model's contract. It never raises; any underlying failure yields an
// empty result.
func (m *ReadModel) Search(ctx context.Context, restaurantID int64, query string) []Item {
	items := m.AvailableItems(ctx, restaurantID)
	if len(items) == 0 {
		return nil
	}

	queryTokens := normalize(query)

	var exact []Item
	var tokenMatches []Item
	for _, it := range items {
		if normalizedEquals(it.Name, query) {
			exact = append(exact, it)
			continue
		}
		if len(queryTokens) == 0 {
			continue
		}
		nameLower := strings.ToLower(it.Name)
		for _, tok := range queryTokens {
			if strings.Contains(nameLower, tok) {
				tokenMatches = append(tokenMatches, it)
				break
			}
		}
	}

	if len(exact) > 0 {
		return exact
	}
	return tokenMatches
}

// ItemByName returns the single item matching name exactly after
// normalization, or nil if there is no such item.
func (m *ReadModel) ItemByName(ctx context.Context, restaurantID int64, name string) *Item {
	items := m.AvailableItems(ctx, restaurantID)
	for i := range items {
		if normalizedEquals(items[i].Name, name) {
			return &items[i]
		}
	}
	return nil
}

// IngredientsOf returns the ingredient associations for a menu item.
func (m *ReadModel) IngredientsOf(ctx context.Context, menuItemID int64) []ItemIngredient {
	assoc, _, err := m.source.ItemIngredients(ctx, menuItemID)
	if err != nil {
		m.log.WithError(err).Warn("menu read model: failed to load ingredients for item %d", menuItemID)
		return nil
	}
	return assoc
}

// AllIngredientsWithCosts returns every ingredient a restaurant has defined,
// with its unit cost.
func (m *ReadModel) AllIngredientsWithCosts(ctx context.Context, restaurantID int64) []Ingredient {
	ingredients, _, err := m.source.Ingredients(ctx, restaurantID)
	if err != nil {
		m.log.WithError(err).Warn("menu read model: failed to load ingredients for restaurant %d", restaurantID)
		return nil
	}
	return ingredients
}

// IngredientByID finds an ingredient by id within a restaurant's catalog.
func (m *ReadModel) IngredientByID(ctx context.Context, restaurantID, ingredientID int64) *Ingredient {
	ingredients := m.AllIngredientsWithCosts(ctx, restaurantID)
	for i := range ingredients {
		if ingredients[i].ID == ingredientID {
			return &ingredients[i]
		}
	}
	return nil
}

// IngredientByName finds an ingredient by normalized name equality.
func (m *ReadModel) IngredientByName(ctx context.Context, restaurantID int64, name string) *Ingredient {
	ingredients := m.AllIngredientsWithCosts(ctx, restaurantID)
	for i := range ingredients {
		if normalizedEquals(ingredients[i].Name, name) {
			return &ingredients[i]
		}
	}
	return nil
}

// Categories returns the distinct categories a restaurant's menu spans.
func (m *ReadModel) Categories(ctx context.Context, restaurantID int64) []string {
	categories, _, err := m.source.Categories(ctx, restaurantID)
	if err != nil {
		m.log.WithError(err).Warn("menu read model: failed to load categories for restaurant %d", restaurantID)
		return nil
	}
	return categories
}

// ItemsByCategory groups available items by their category.
func (m *ReadModel) ItemsByCategory(ctx context.Context, restaurantID int64) map[string][]Item {
	items := m.AvailableItems(ctx, restaurantID)
	out := make(map[string][]Item)
	for _, it := range items {
		out[it.Category] = append(out[it.Category], it)
	}
	return out
}

// Inventory returns the current stock records for a restaurant's ingredients.
func (m *ReadModel) Inventory(ctx context.Context, restaurantID int64) []Inventory {
	inv, _, err := m.source.Inventory(ctx, restaurantID)
	if err != nil {
		m.log.WithError(err).Warn("menu read model: failed to load inventory for restaurant %d", restaurantID)
		return nil
	}
	return inv
}

// StockFor returns the inventory record for a single ingredient, if any.
func (m *ReadModel) StockFor(ctx context.Context, restaurantID, ingredientID int64) *Inventory {
	inv := m.Inventory(ctx, restaurantID)
	for i := range inv {
		if inv[i].IngredientID == ingredientID {
			return &inv[i]
		}
	}
	return nil
}
