package menu

import (
	"context"
	"regexp"
	"strings"
)

// Repository is the durable store port the core depends on; its
// implementation (schema, migrations, connection details) is out of scope.
type Repository interface {
	GetMenuItems(ctx context.Context, restaurantID int64) ([]Item, error)
	GetIngredients(ctx context.Context, restaurantID int64) ([]Ingredient, error)
	GetInventory(ctx context.Context, restaurantID int64) ([]Inventory, error)
	GetCategories(ctx context.Context, restaurantID int64) ([]string, error)
	GetMenuItemIngredients(ctx context.Context, menuItemID int64) ([]ItemIngredient, error)
}

// Source is the cache-or-direct abstraction behind every read in the Menu
// Read Model. Two implementations exist: a Redis-backed cachedSource and a
// Postgres-backed directSource, composed by triedSource so the read model
// itself never has to know which one answered.
type Source interface {
	MenuItems(ctx context.Context, restaurantID int64) ([]Item, bool, error)
	Ingredients(ctx context.Context, restaurantID int64) ([]Ingredient, bool, error)
	Inventory(ctx context.Context, restaurantID int64) ([]Inventory, bool, error)
	Categories(ctx context.Context, restaurantID int64) ([]string, bool, error)
	ItemIngredients(ctx context.Context, menuItemID int64) ([]ItemIngredient, bool, error)

	StoreMenuItems(ctx context.Context, restaurantID int64, items []Item)
	StoreIngredients(ctx context.Context, restaurantID int64, ingredients []Ingredient)
	StoreInventory(ctx context.Context, restaurantID int64, inventory []Inventory)
	StoreCategories(ctx context.Context, restaurantID int64, categories []string)
	StoreItemIngredients(ctx context.Context, menuItemID int64, assoc []ItemIngredient)
}

// stopwords are dropped during search normalization: articles and ordering
// fillers that never discriminate between menu items.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "please": {}, "meal": {}, "combo": {},
	"some": {}, "with": {}, "and": {}, "of": {},
}

var punctuation = regexp.MustCompile(`[^\w\s]`)
var whitespace = regexp.MustCompile(`\s+`)

// normalize implements the search normalization pipeline: lowercase, strip a
// fixed punctuation set, collapse whitespace, tokenize, drop stopwords and
// tokens shorter than 2 characters.
func normalize(s string) []string {
	lower := strings.ToLower(s)
	stripped := punctuation.ReplaceAllString(lower, " ")
	collapsed := whitespace.ReplaceAllString(stripped, " ")
	tokens := strings.Fields(collapsed)

	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len(t) < 2 {
			continue
		}
		if _, stop := stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// normalizedEquals reports whether a and b are the same after stripping
// punctuation/whitespace and lowercasing, without stopword removal — an
// exact normalized match always wins over token matching.
func normalizedEquals(a, b string) bool {
	na := whitespace.ReplaceAllString(punctuation.ReplaceAllString(strings.ToLower(strings.TrimSpace(a)), " "), " ")
	nb := whitespace.ReplaceAllString(punctuation.ReplaceAllString(strings.ToLower(strings.TrimSpace(b)), " "), " ")
	return strings.TrimSpace(na) == strings.TrimSpace(nb)
}
