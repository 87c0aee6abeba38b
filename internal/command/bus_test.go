package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivethru-ai/conversation-core/internal/config"
	"github.com/drivethru-ai/conversation-core/internal/events"
	"github.com/drivethru-ai/conversation-core/internal/menu"
	"github.com/drivethru-ai/conversation-core/internal/metrics"
	"github.com/drivethru-ai/conversation-core/internal/orderstore"
	"github.com/drivethru-ai/conversation-core/internal/types"
	"github.com/drivethru-ai/conversation-core/pkg/apperrors"
	"github.com/drivethru-ai/conversation-core/pkg/cache"
	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

// memOrderStore is an in-memory orderstore.Store, standing in for Redis in
// tests so the bus's logic can be exercised without a live dependency.
type memOrderStore struct {
	mu   sync.Mutex
	data map[string]*orderstore.Aggregate
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{data: make(map[string]*orderstore.Aggregate)}
}

func (m *memOrderStore) Get(ctx context.Context, orderID string) (*orderstore.Aggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.data[orderID]
	if !ok {
		return nil, orderstore.ErrNotFound
	}
	cp := *o
	cp.Items = append([]orderstore.Line{}, o.Items...)
	return &cp, nil
}

func (m *memOrderStore) Upsert(ctx context.Context, order *orderstore.Aggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *order
	cp.Items = append([]orderstore.Line{}, order.Items...)
	m.data[order.OrderID] = &cp
	return nil
}

func (m *memOrderStore) Delete(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, orderID)
	return nil
}

type fakeRepo struct {
	items   []menu.Item
	itemIng map[int64][]menu.ItemIngredient
	ingred  []menu.Ingredient
	inv     []menu.Inventory
}

func (f *fakeRepo) GetMenuItems(ctx context.Context, restaurantID int64) ([]menu.Item, error) {
	return f.items, nil
}
func (f *fakeRepo) GetIngredients(ctx context.Context, restaurantID int64) ([]menu.Ingredient, error) {
	return f.ingred, nil
}
func (f *fakeRepo) GetInventory(ctx context.Context, restaurantID int64) ([]menu.Inventory, error) {
	return f.inv, nil
}
func (f *fakeRepo) GetCategories(ctx context.Context, restaurantID int64) ([]string, error) {
	return nil, nil
}
func (f *fakeRepo) GetMenuItemIngredients(ctx context.Context, menuItemID int64) ([]menu.ItemIngredient, error) {
	return f.itemIng[menuItemID], nil
}

type missCache struct{}

func (missCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}
func (missCache) Get(ctx context.Context, key string, dest interface{}) error { return cache.ErrNotFound }
func (missCache) Delete(ctx context.Context, key string) error               { return nil }
func (missCache) Exists(ctx context.Context, key string) (bool, error)       { return false, nil }
func (missCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}
func (missCache) Keys(ctx context.Context, pattern string) ([]string, error) { return nil, nil }
func (missCache) Health(ctx context.Context) error                          { return nil }

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func testBus(t *testing.T, repo *fakeRepo, cfg config.Settings) (*Bus, *memOrderStore) {
	t.Helper()
	log := logger.New("command-test")
	menuModel := menu.NewReadModel(repo, missCache{}, metrics.New(), log)
	orders := newMemOrderStore()
	if cfg.MaxQuantityPerItem == 0 {
		cfg.MaxQuantityPerItem = 10
		cfg.MaxItemsPerOrder = 50
		cfg.MaxOrderTotal = 200.00
		cfg.EnableOrderLimits = true
		cfg.EnableCustomizationValidation = true
		cfg.EnableInventoryChecking = true
	}
	bus := New(orders, menuModel, events.NoopPublisher{}, fixedClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}, cfg, log)
	return bus, orders
}

func seedOrder(t *testing.T, orders *memOrderStore, restaurantID int64) string {
	t.Helper()
	order := orderstore.NewAggregate("order-1", restaurantID, time.Now())
	require.NoError(t, orders.Upsert(context.Background(), order))
	return order.OrderID
}

func TestExecute_AddItem_Success(t *testing.T) {
	repo := &fakeRepo{items: []menu.Item{
		{ID: 1, RestaurantID: 7, Name: "Quantum Cheeseburger", Price: decimal.NewFromFloat(6.99), IsAvailable: true},
	}}
	bus, orders := testBus(t, repo, config.Settings{})
	orderID := seedOrder(t, orders, 7)

	batch := bus.Execute(context.Background(), []Command{{
		Intent: types.IntentAddItem,
		AddItem: &AddItemSlots{MenuItemID: 1, Quantity: 2},
	}}, TurnContext{OrderID: orderID, RestaurantID: 7})

	require.Equal(t, OutcomeAllSuccess, batch.BatchOutcome)
	require.Equal(t, 1, batch.Successful)

	order, err := orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, order.Total.Equal(decimal.NewFromFloat(13.98)))
}

func TestExecute_AddItem_UnavailableIsBusinessError(t *testing.T) {
	repo := &fakeRepo{items: []menu.Item{
		{ID: 1, RestaurantID: 7, Name: "Retired Shake", Price: decimal.NewFromFloat(4.00), IsAvailable: false},
	}}
	bus, orders := testBus(t, repo, config.Settings{})
	orderID := seedOrder(t, orders, 7)

	batch := bus.Execute(context.Background(), []Command{{
		Intent: types.IntentAddItem, AddItem: &AddItemSlots{MenuItemID: 1, Quantity: 1},
	}}, TurnContext{OrderID: orderID, RestaurantID: 7})

	require.Equal(t, OutcomeAllFailed, batch.BatchOutcome)
	assert.Equal(t, "ITEM_UNAVAILABLE", string(batch.Results[0].ErrorCode))
}

func TestExecute_AddItem_QuantityExceedsLimit(t *testing.T) {
	repo := &fakeRepo{items: []menu.Item{
		{ID: 1, RestaurantID: 7, Name: "Fries", Price: decimal.NewFromFloat(2.00), IsAvailable: true},
	}}
	bus, orders := testBus(t, repo, config.Settings{})
	orderID := seedOrder(t, orders, 7)

	batch := bus.Execute(context.Background(), []Command{{
		Intent: types.IntentAddItem, AddItem: &AddItemSlots{MenuItemID: 1, Quantity: 99},
	}}, TurnContext{OrderID: orderID, RestaurantID: 7})

	require.Equal(t, OutcomeAllFailed, batch.BatchOutcome)
	assert.Equal(t, "QUANTITY_EXCEEDS_LIMIT", string(batch.Results[0].ErrorCode))
}

// TestExecute_AddItem_UnknownIngredientWarning exercises the default `warn`
// UnknownIngredientPolicy: the item still gets added (with the unrecognized
// modifier attached) instead of the whole command failing, and the batch
// classifies as PARTIAL_SUCCESS so the customer hears about it.
func TestExecute_AddItem_UnknownIngredientWarning(t *testing.T) {
	repo := &fakeRepo{items: []menu.Item{
		{ID: 1, RestaurantID: 7, Name: "Quantum Burger", Price: decimal.NewFromFloat(6.99), IsAvailable: true},
	}}
	bus, orders := testBus(t, repo, config.Settings{})
	orderID := seedOrder(t, orders, 7)

	batch := bus.Execute(context.Background(), []Command{{
		Intent: types.IntentAddItem,
		AddItem: &AddItemSlots{MenuItemID: 1, Quantity: 1, Modifiers: []string{"extra unobtainium"}},
	}}, TurnContext{OrderID: orderID, RestaurantID: 7})

	require.Equal(t, OutcomePartialSuccess, batch.BatchOutcome)
	require.Equal(t, FollowUpAsk, batch.FollowUpAction)
	require.Equal(t, StatusWarning, batch.Results[0].Status)
	assert.Equal(t, "MODIFIER_ADD_NOT_ALLOWED", string(batch.Results[0].ErrorCode))

	order, err := orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1, "the item must still be added under the warn policy")
	assert.Contains(t, order.Items[0].Modifiers, "extra unobtainium")
}

func TestExecute_AddItem_Idempotent_TwoCallsAppendTwoLines(t *testing.T) {
	repo := &fakeRepo{items: []menu.Item{
		{ID: 1, RestaurantID: 7, Name: "Fries", Price: decimal.NewFromFloat(2.00), IsAvailable: true},
	}}
	bus, orders := testBus(t, repo, config.Settings{})
	orderID := seedOrder(t, orders, 7)

	cmd := Command{Intent: types.IntentAddItem, AddItem: &AddItemSlots{MenuItemID: 1, Quantity: 1}}
	bus.Execute(context.Background(), []Command{cmd}, TurnContext{OrderID: orderID, RestaurantID: 7})
	bus.Execute(context.Background(), []Command{cmd}, TurnContext{OrderID: orderID, RestaurantID: 7})

	order, err := orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Len(t, order.Items, 2, "two identical ADD_ITEM commands must append two lines, not dedupe")
}

func TestExecute_ModifierRemoveNotPresent(t *testing.T) {
	repo := &fakeRepo{
		items: []menu.Item{{ID: 1, RestaurantID: 7, Name: "Quantum Burger", Price: decimal.NewFromFloat(6.99), IsAvailable: true}},
		itemIng: map[int64][]menu.ItemIngredient{
			1: {{MenuItemID: 1, IngredientID: 10}},
		},
		ingred: []menu.Ingredient{{ID: 10, RestaurantID: 7, Name: "Cheese"}},
	}
	bus, orders := testBus(t, repo, config.Settings{})
	orderID := seedOrder(t, orders, 7)

	batch := bus.Execute(context.Background(), []Command{{
		Intent: types.IntentAddItem,
		AddItem: &AddItemSlots{MenuItemID: 1, Quantity: 1, Modifiers: []string{"no foie gras"}},
	}}, TurnContext{OrderID: orderID, RestaurantID: 7})

	require.Equal(t, OutcomeAllFailed, batch.BatchOutcome)
	assert.Equal(t, "MODIFIER_REMOVE_NOT_PRESENT", string(batch.Results[0].ErrorCode))
}

func TestExecute_RemoveItem_LastItem(t *testing.T) {
	repo := &fakeRepo{items: []menu.Item{
		{ID: 1, RestaurantID: 7, Name: "Fries", Price: decimal.NewFromFloat(2.00), IsAvailable: true},
	}}
	bus, orders := testBus(t, repo, config.Settings{})
	orderID := seedOrder(t, orders, 7)

	bus.Execute(context.Background(), []Command{{
		Intent: types.IntentAddItem, AddItem: &AddItemSlots{MenuItemID: 1, Quantity: 1},
	}}, TurnContext{OrderID: orderID, RestaurantID: 7})

	batch := bus.Execute(context.Background(), []Command{{
		Intent: types.IntentRemoveItem, RemoveItem: &RemoveItemSlots{TargetRef: "last_item"},
	}}, TurnContext{OrderID: orderID, RestaurantID: 7})

	require.Equal(t, OutcomeAllSuccess, batch.BatchOutcome)
	order, err := orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Empty(t, order.Items)
}

func TestExecute_ConfirmEmptyOrder_BusinessError(t *testing.T) {
	bus, orders := testBus(t, &fakeRepo{}, config.Settings{})
	orderID := seedOrder(t, orders, 7)

	batch := bus.Execute(context.Background(), []Command{{Intent: types.IntentConfirmOrder}},
		TurnContext{OrderID: orderID, RestaurantID: 7})

	require.Equal(t, OutcomeAllFailed, batch.BatchOutcome)
	assert.Equal(t, FollowUpAsk, batch.FollowUpAction)
}

func TestExecute_ConfirmOrder_Success(t *testing.T) {
	repo := &fakeRepo{items: []menu.Item{
		{ID: 1, RestaurantID: 7, Name: "Fries", Price: decimal.NewFromFloat(2.00), IsAvailable: true},
	}}
	bus, orders := testBus(t, repo, config.Settings{})
	orderID := seedOrder(t, orders, 7)

	bus.Execute(context.Background(), []Command{{
		Intent: types.IntentAddItem, AddItem: &AddItemSlots{MenuItemID: 1, Quantity: 1},
	}}, TurnContext{OrderID: orderID, RestaurantID: 7})

	batch := bus.Execute(context.Background(), []Command{{Intent: types.IntentConfirmOrder}},
		TurnContext{OrderID: orderID, RestaurantID: 7})

	require.Equal(t, OutcomeAllSuccess, batch.BatchOutcome)
	order, err := orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, orderstore.StatusConfirmed, order.Status)
	require.NotNil(t, order.ConfirmedAt)
}

func TestExecute_PartialSuccess_MixedBatch(t *testing.T) {
	repo := &fakeRepo{items: []menu.Item{
		{ID: 1, RestaurantID: 7, Name: "Quantum Burger", Price: decimal.NewFromFloat(6.99), IsAvailable: true},
		{ID: 2, RestaurantID: 7, Name: "Nebula Wrap", Price: decimal.NewFromFloat(5.49), IsAvailable: true},
	}}
	bus, orders := testBus(t, repo, config.Settings{})
	orderID := seedOrder(t, orders, 7)

	batch := bus.Execute(context.Background(), []Command{
		{Intent: types.IntentAddItem, AddItem: &AddItemSlots{MenuItemID: 1, Quantity: 1}},
		{Intent: types.IntentAddItem, AddItem: &AddItemSlots{MenuItemID: 2, Quantity: 1}},
		{Intent: types.IntentItemUnavailable, ItemUnavailable: &ItemUnavailableSlots{RequestedItem: "galaxy pie"}},
	}, TurnContext{OrderID: orderID, RestaurantID: 7})

	assert.Equal(t, 3, batch.Total)
	assert.Equal(t, 2, batch.Successful)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, OutcomePartialSuccess, batch.BatchOutcome)
	assert.Equal(t, FollowUpAsk, batch.FollowUpAction)
	assert.Equal(t, 1, batch.ErrorsByCode[apperrors.CodeItemUnavailable])
	assert.Equal(t, "added Quantum Burger and added Nebula Wrap Sorry, we don't have galaxy pie", batch.SummaryMessage,
		"summary must list acknowledgements first, joined with \"and\", then the unavailable item")
}

func TestExecute_Question_MenuCategory_ListsAvailableItems(t *testing.T) {
	repo := &fakeRepo{items: []menu.Item{
		{ID: 1, RestaurantID: 7, Name: "Quantum Burger", Price: decimal.NewFromFloat(6.99), IsAvailable: true},
		{ID: 2, RestaurantID: 7, Name: "Nebula Wrap", Price: decimal.NewFromFloat(5.49), IsAvailable: true},
		{ID: 3, RestaurantID: 7, Name: "Retired Shake", Price: decimal.NewFromFloat(4.00), IsAvailable: false},
	}}
	bus, orders := testBus(t, repo, config.Settings{})
	orderID := seedOrder(t, orders, 7)

	batch := bus.Execute(context.Background(), []Command{{
		Intent:   types.IntentQuestion,
		Question: &QuestionSlots{Question: "what do you have", Category: "menu"},
	}}, TurnContext{OrderID: orderID, RestaurantID: 7})

	require.Equal(t, OutcomeAllSuccess, batch.BatchOutcome)
	msg := batch.Results[0].Message
	assert.Contains(t, msg, "Quantum Burger")
	assert.Contains(t, msg, "Nebula Wrap")
	assert.NotContains(t, msg, "Retired Shake")
}

func TestExecute_Question_PricingCategory_QuotesSingleMatch(t *testing.T) {
	repo := &fakeRepo{items: []menu.Item{
		{ID: 1, RestaurantID: 7, Name: "Quantum Burger", Price: decimal.NewFromFloat(6.99), IsAvailable: true},
	}}
	bus, orders := testBus(t, repo, config.Settings{})
	orderID := seedOrder(t, orders, 7)

	batch := bus.Execute(context.Background(), []Command{{
		Intent:   types.IntentQuestion,
		Question: &QuestionSlots{Question: "how much is the quantum burger", Category: "pricing"},
	}}, TurnContext{OrderID: orderID, RestaurantID: 7})

	require.Equal(t, OutcomeAllSuccess, batch.BatchOutcome)
	assert.Contains(t, batch.Results[0].Message, "$6.99")
}

func TestExecute_SystemErrorStopsFollowUp(t *testing.T) {
	repo := &fakeRepo{items: []menu.Item{
		{ID: 1, RestaurantID: 7, Name: "Fries", Price: decimal.NewFromFloat(2.00), IsAvailable: true},
	}}
	bus, _ := testBus(t, repo, config.Settings{})

	batch := bus.Execute(context.Background(), []Command{{
		Intent: types.IntentAddItem, AddItem: &AddItemSlots{MenuItemID: 1, Quantity: 1},
	}}, TurnContext{OrderID: "missing-order", RestaurantID: 7})

	require.Equal(t, OutcomeFatalSystem, batch.BatchOutcome)
	assert.Equal(t, FollowUpStop, batch.FollowUpAction)
}
