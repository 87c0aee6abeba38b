package menu

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	_ "github.com/lib/pq"
)

// PostgresRepository is the durable-store implementation of Repository:
// plain parameterized queries, no ORM, struct tags drive the scan.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository connects to dsn and verifies connectivity.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostgresRepository{db: db}, nil
}

func (p *PostgresRepository) Close() error {
	return p.db.Close()
}

func (p *PostgresRepository) GetMenuItems(ctx context.Context, restaurantID int64) ([]Item, error) {
	var items []Item
	const q = `SELECT id, restaurant_id, name, category, price, is_available
	           FROM menu_items WHERE restaurant_id = $1`
	if err := p.db.SelectContext(ctx, &items, q, restaurantID); err != nil {
		return nil, fmt.Errorf("query menu_items: %w", err)
	}
	return items, nil
}

func (p *PostgresRepository) GetIngredients(ctx context.Context, restaurantID int64) ([]Ingredient, error) {
	var ingredients []Ingredient
	const q = `SELECT id, restaurant_id, name, unit_cost, is_allergen, allergen_type
	           FROM ingredients WHERE restaurant_id = $1`
	if err := p.db.SelectContext(ctx, &ingredients, q, restaurantID); err != nil {
		return nil, fmt.Errorf("query ingredients: %w", err)
	}
	return ingredients, nil
}

func (p *PostgresRepository) GetInventory(ctx context.Context, restaurantID int64) ([]Inventory, error) {
	var inv []Inventory
	const q = `SELECT inv.ingredient_id, inv.current_stock, inv.min_stock, inv.is_low_stock
	           FROM inventory inv
	           JOIN ingredients i ON i.id = inv.ingredient_id
	           WHERE i.restaurant_id = $1`
	if err := p.db.SelectContext(ctx, &inv, q, restaurantID); err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	return inv, nil
}

func (p *PostgresRepository) GetCategories(ctx context.Context, restaurantID int64) ([]string, error) {
	var categories []string
	const q = `SELECT DISTINCT category FROM menu_items WHERE restaurant_id = $1 ORDER BY category`
	if err := p.db.SelectContext(ctx, &categories, q, restaurantID); err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	return categories, nil
}

func (p *PostgresRepository) GetMenuItemIngredients(ctx context.Context, menuItemID int64) ([]ItemIngredient, error) {
	var assoc []ItemIngredient
	const q = `SELECT menu_item_id, ingredient_id, quantity, unit, is_optional, additional_cost
	           FROM menu_item_ingredients WHERE menu_item_id = $1`
	if err := p.db.SelectContext(ctx, &assoc, q, menuItemID); err != nil {
		return nil, fmt.Errorf("query menu_item_ingredients: %w", err)
	}
	return assoc, nil
}
