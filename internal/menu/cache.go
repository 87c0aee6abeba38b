package menu

import (
	"context"
	"fmt"
	"time"

	"github.com/drivethru-ai/conversation-core/internal/metrics"
	"github.com/drivethru-ai/conversation-core/pkg/cache"
)

// DefaultTTL is how long a cached menu projection is trusted before the next
// read falls through to the durable store again.
const DefaultTTL = 300 * time.Second

// cachedSource is the Redis-backed half of the cache-first-then-direct
// combinator. A miss or any error is reported as (zero, false, nil) — cache
// errors are deliberately swallowed here, not propagated, so triedSource can
// fall through unconditionally.
type cachedSource struct {
	cache cache.Cache
	ttl   time.Duration
}

func newCachedSource(c cache.Cache) *cachedSource {
	return &cachedSource{cache: c, ttl: DefaultTTL}
}

func menuItemsKey(restaurantID int64) string   { return fmt.Sprintf("menu:%d:items", restaurantID) }
func ingredientsKey(restaurantID int64) string  { return fmt.Sprintf("menu:%d:ingredients", restaurantID) }
func inventoryKey(restaurantID int64) string    { return fmt.Sprintf("menu:%d:inventory", restaurantID) }
func categoriesKey(restaurantID int64) string   { return fmt.Sprintf("menu:%d:categories", restaurantID) }
func itemIngredientsKey(menuItemID int64) string { return fmt.Sprintf("menu:item:%d:ingredients", menuItemID) }

func (c *cachedSource) MenuItems(ctx context.Context, restaurantID int64) ([]Item, bool, error) {
	var items []Item
	if err := c.cache.Get(ctx, menuItemsKey(restaurantID), &items); err != nil {
		return nil, false, nil
	}
	return items, true, nil
}

func (c *cachedSource) StoreMenuItems(ctx context.Context, restaurantID int64, items []Item) {
	_ = c.cache.Set(ctx, menuItemsKey(restaurantID), items, c.ttl)
}

func (c *cachedSource) Ingredients(ctx context.Context, restaurantID int64) ([]Ingredient, bool, error) {
	var ingredients []Ingredient
	if err := c.cache.Get(ctx, ingredientsKey(restaurantID), &ingredients); err != nil {
		return nil, false, nil
	}
	return ingredients, true, nil
}

func (c *cachedSource) StoreIngredients(ctx context.Context, restaurantID int64, ingredients []Ingredient) {
	_ = c.cache.Set(ctx, ingredientsKey(restaurantID), ingredients, c.ttl)
}

func (c *cachedSource) Inventory(ctx context.Context, restaurantID int64) ([]Inventory, bool, error) {
	var inv []Inventory
	if err := c.cache.Get(ctx, inventoryKey(restaurantID), &inv); err != nil {
		return nil, false, nil
	}
	return inv, true, nil
}

func (c *cachedSource) StoreInventory(ctx context.Context, restaurantID int64, inventory []Inventory) {
	_ = c.cache.Set(ctx, inventoryKey(restaurantID), inventory, c.ttl)
}

func (c *cachedSource) Categories(ctx context.Context, restaurantID int64) ([]string, bool, error) {
	var categories []string
	if err := c.cache.Get(ctx, categoriesKey(restaurantID), &categories); err != nil {
		return nil, false, nil
	}
	return categories, true, nil
}

func (c *cachedSource) StoreCategories(ctx context.Context, restaurantID int64, categories []string) {
	_ = c.cache.Set(ctx, categoriesKey(restaurantID), categories, c.ttl)
}

func (c *cachedSource) ItemIngredients(ctx context.Context, menuItemID int64) ([]ItemIngredient, bool, error) {
	var assoc []ItemIngredient
	if err := c.cache.Get(ctx, itemIngredientsKey(menuItemID), &assoc); err != nil {
		return nil, false, nil
	}
	return assoc, true, nil
}

func (c *cachedSource) StoreItemIngredients(ctx context.Context, menuItemID int64, assoc []ItemIngredient) {
	_ = c.cache.Set(ctx, itemIngredientsKey(menuItemID), assoc, c.ttl)
}

// directSource reads straight from the Repository port and repopulates the
// cache on every successful read, regardless of whether the cache tier was
// the one that missed.
type directSource struct {
	repo  Repository
	cache *cachedSource
}

func newDirectSource(repo Repository, cached *cachedSource) *directSource {
	return &directSource{repo: repo, cache: cached}
}

func (d *directSource) MenuItems(ctx context.Context, restaurantID int64) ([]Item, bool, error) {
	items, err := d.repo.GetMenuItems(ctx, restaurantID)
	if err != nil {
		return nil, false, err
	}
	d.cache.StoreMenuItems(ctx, restaurantID, items)
	return items, true, nil
}

func (d *directSource) StoreMenuItems(ctx context.Context, restaurantID int64, items []Item) {
	d.cache.StoreMenuItems(ctx, restaurantID, items)
}

func (d *directSource) Ingredients(ctx context.Context, restaurantID int64) ([]Ingredient, bool, error) {
	ingredients, err := d.repo.GetIngredients(ctx, restaurantID)
	if err != nil {
		return nil, false, err
	}
	d.cache.StoreIngredients(ctx, restaurantID, ingredients)
	return ingredients, true, nil
}

func (d *directSource) StoreIngredients(ctx context.Context, restaurantID int64, ingredients []Ingredient) {
	d.cache.StoreIngredients(ctx, restaurantID, ingredients)
}

func (d *directSource) Inventory(ctx context.Context, restaurantID int64) ([]Inventory, bool, error) {
	inv, err := d.repo.GetInventory(ctx, restaurantID)
	if err != nil {
		return nil, false, err
	}
	d.cache.StoreInventory(ctx, restaurantID, inv)
	return inv, true, nil
}

func (d *directSource) StoreInventory(ctx context.Context, restaurantID int64, inventory []Inventory) {
	d.cache.StoreInventory(ctx, restaurantID, inventory)
}

func (d *directSource) Categories(ctx context.Context, restaurantID int64) ([]string, bool, error) {
	categories, err := d.repo.GetCategories(ctx, restaurantID)
	if err != nil {
		return nil, false, err
	}
	d.cache.StoreCategories(ctx, restaurantID, categories)
	return categories, true, nil
}

func (d *directSource) StoreCategories(ctx context.Context, restaurantID int64, categories []string) {
	d.cache.StoreCategories(ctx, restaurantID, categories)
}

func (d *directSource) ItemIngredients(ctx context.Context, menuItemID int64) ([]ItemIngredient, bool, error) {
	assoc, err := d.repo.GetMenuItemIngredients(ctx, menuItemID)
	if err != nil {
		return nil, false, err
	}
	d.cache.StoreItemIngredients(ctx, menuItemID, assoc)
	return assoc, true, nil
}

func (d *directSource) StoreItemIngredients(ctx context.Context, menuItemID int64, assoc []ItemIngredient) {
	d.cache.StoreItemIngredients(ctx, menuItemID, assoc)
}

// triedSource tries the cache first and falls through to direct on a miss or
// any cache error, never surfacing the cache's own failure to the caller —
// the "optional cache, fall through on any failure" pattern.
type triedSource struct {
	cached  *cachedSource
	direct  *directSource
	metrics *metrics.Metrics
}

func newTriedSource(repo Repository, c cache.Cache, m *metrics.Metrics) *triedSource {
	cached := newCachedSource(c)
	return &triedSource{cached: cached, direct: newDirectSource(repo, cached), metrics: m}
}

func (t *triedSource) MenuItems(ctx context.Context, restaurantID int64) ([]Item, bool, error) {
	if items, ok, _ := t.cached.MenuItems(ctx, restaurantID); ok {
		t.metrics.ObserveMenuCacheAccess("menu_items", true)
		return items, true, nil
	}
	t.metrics.ObserveMenuCacheAccess("menu_items", false)
	return t.direct.MenuItems(ctx, restaurantID)
}

func (t *triedSource) Ingredients(ctx context.Context, restaurantID int64) ([]Ingredient, bool, error) {
	if v, ok, _ := t.cached.Ingredients(ctx, restaurantID); ok {
		t.metrics.ObserveMenuCacheAccess("ingredients", true)
		return v, true, nil
	}
	t.metrics.ObserveMenuCacheAccess("ingredients", false)
	return t.direct.Ingredients(ctx, restaurantID)
}

func (t *triedSource) Inventory(ctx context.Context, restaurantID int64) ([]Inventory, bool, error) {
	if v, ok, _ := t.cached.Inventory(ctx, restaurantID); ok {
		t.metrics.ObserveMenuCacheAccess("inventory", true)
		return v, true, nil
	}
	t.metrics.ObserveMenuCacheAccess("inventory", false)
	return t.direct.Inventory(ctx, restaurantID)
}

func (t *triedSource) Categories(ctx context.Context, restaurantID int64) ([]string, bool, error) {
	if v, ok, _ := t.cached.Categories(ctx, restaurantID); ok {
		t.metrics.ObserveMenuCacheAccess("categories", true)
		return v, true, nil
	}
	t.metrics.ObserveMenuCacheAccess("categories", false)
	return t.direct.Categories(ctx, restaurantID)
}

func (t *triedSource) ItemIngredients(ctx context.Context, menuItemID int64) ([]ItemIngredient, bool, error) {
	if v, ok, _ := t.cached.ItemIngredients(ctx, menuItemID); ok {
		t.metrics.ObserveMenuCacheAccess("item_ingredients", true)
		return v, true, nil
	}
	t.metrics.ObserveMenuCacheAccess("item_ingredients", false)
	return t.direct.ItemIngredients(ctx, menuItemID)
}

func (t *triedSource) StoreMenuItems(ctx context.Context, restaurantID int64, items []Item) {
	t.cached.StoreMenuItems(ctx, restaurantID, items)
}
func (t *triedSource) StoreIngredients(ctx context.Context, restaurantID int64, ingredients []Ingredient) {
	t.cached.StoreIngredients(ctx, restaurantID, ingredients)
}
func (t *triedSource) StoreInventory(ctx context.Context, restaurantID int64, inventory []Inventory) {
	t.cached.StoreInventory(ctx, restaurantID, inventory)
}
func (t *triedSource) StoreCategories(ctx context.Context, restaurantID int64, categories []string) {
	t.cached.StoreCategories(ctx, restaurantID, categories)
}
func (t *triedSource) StoreItemIngredients(ctx context.Context, menuItemID int64, assoc []ItemIngredient) {
	t.cached.StoreItemIngredients(ctx, menuItemID, assoc)
}
