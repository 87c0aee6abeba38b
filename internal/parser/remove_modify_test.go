package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivethru-ai/conversation-core/internal/llmport"
	"github.com/drivethru-ai/conversation-core/internal/menu"
	"github.com/drivethru-ai/conversation-core/internal/metrics"
	"github.com/drivethru-ai/conversation-core/internal/orderstore"
	"github.com/drivethru-ai/conversation-core/internal/types"
	"github.com/drivethru-ai/conversation-core/pkg/cache"
	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

// scriptedParserLLM replays a fixed sequence of Chat responses, keeping the
// most recent request so a test can assert what the parser told the model
// about the order after a get_order_items tool call.
type scriptedParserLLM struct {
	responses []llmport.ChatResponse
	errs      []error
	calls     int
	lastReq   llmport.ChatRequest
}

func (f *scriptedParserLLM) Chat(ctx context.Context, req llmport.ChatRequest) (llmport.ChatResponse, error) {
	f.lastReq = req
	idx := f.calls
	f.calls++
	var err error
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	if idx >= len(f.responses) {
		return llmport.ChatResponse{}, errors.New("scriptedParserLLM: no response queued")
	}
	return f.responses[idx], err
}

func testMenuModel(t *testing.T) *menu.ReadModel {
	t.Helper()
	repo := &fakeMenuRepoForParser{
		items: []menu.Item{{ID: 1, RestaurantID: 7, Name: "Quantum Burger", IsAvailable: true}},
	}
	return menu.NewReadModel(repo, missCacheForParser{}, metrics.New(), logger.New("remove-modify-test"))
}

type fakeMenuRepoForParser struct {
	items []menu.Item
}

func (f *fakeMenuRepoForParser) GetMenuItems(ctx context.Context, restaurantID int64) ([]menu.Item, error) {
	return f.items, nil
}
func (f *fakeMenuRepoForParser) GetIngredients(ctx context.Context, restaurantID int64) ([]menu.Ingredient, error) {
	return nil, nil
}
func (f *fakeMenuRepoForParser) GetInventory(ctx context.Context, restaurantID int64) ([]menu.Inventory, error) {
	return nil, nil
}
func (f *fakeMenuRepoForParser) GetCategories(ctx context.Context, restaurantID int64) ([]string, error) {
	return nil, nil
}
func (f *fakeMenuRepoForParser) GetMenuItemIngredients(ctx context.Context, menuItemID int64) ([]menu.ItemIngredient, error) {
	return nil, nil
}

type missCacheForParser struct{}

func (missCacheForParser) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}
func (missCacheForParser) Get(ctx context.Context, key string, dest interface{}) error {
	return cache.ErrNotFound
}
func (missCacheForParser) Delete(ctx context.Context, key string) error         { return nil }
func (missCacheForParser) Exists(ctx context.Context, key string) (bool, error) { return false, nil }
func (missCacheForParser) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}
func (missCacheForParser) Keys(ctx context.Context, pattern string) ([]string, error) {
	return nil, nil
}
func (missCacheForParser) Health(ctx context.Context) error { return nil }

func TestRemoveItemParser_DirectMatch_NoToolCall(t *testing.T) {
	llm := &scriptedParserLLM{responses: []llmport.ChatResponse{
		{JSON: map[string]any{"order_item_id": "line-1", "found": true, "confidence": 0.95}},
	}}
	p := NewRemoveItemParser(llm, "test-model", time.Second, testMenuModel(t), logger.New("t"))

	cmds, err := p.Parse(context.Background(), "take off the burger", TurnContext{RestaurantID: 7})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, types.IntentRemoveItem, cmds[0].Intent)
	require.NotNil(t, cmds[0].RemoveItem)
	assert.Equal(t, "line-1", cmds[0].RemoveItem.OrderItemID)
	assert.Equal(t, 1, llm.calls)
}

func TestRemoveItemParser_ToolCallThenResolve(t *testing.T) {
	llm := &scriptedParserLLM{responses: []llmport.ChatResponse{
		{ToolCalls: []llmport.ToolCall{{ID: "tc-1", ToolName: toolGetOrderItems}}},
		{JSON: map[string]any{"order_item_id": "line-1", "found": true, "confidence": 0.9}},
	}}
	p := NewRemoveItemParser(llm, "test-model", time.Second, testMenuModel(t), logger.New("t"))

	turnCtx := TurnContext{RestaurantID: 7, Order: orderstore.Snapshot{
		Items: []orderstore.Line{{LineID: "line-1", MenuItemID: 1, Quantity: 2}},
	}}

	cmds, err := p.Parse(context.Background(), "remove the one I just ordered", turnCtx)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, types.IntentRemoveItem, cmds[0].Intent)
	assert.Equal(t, 2, llm.calls)
	assert.Contains(t, llm.lastReq.Messages[len(llm.lastReq.Messages)-1].Content, "Quantum Burger")
}

func TestRemoveItemParser_NotFound_RequestsClarification(t *testing.T) {
	llm := &scriptedParserLLM{responses: []llmport.ChatResponse{
		{JSON: map[string]any{"found": false, "confidence": 0.3}},
	}}
	p := NewRemoveItemParser(llm, "test-model", time.Second, testMenuModel(t), logger.New("t"))

	cmds, err := p.Parse(context.Background(), "remove the thing", TurnContext{RestaurantID: 7})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, types.IntentClarificationNeeded, cmds[0].Intent)
	assert.True(t, cmds[0].NeedsClarification)
}

func TestModifyItemParser_SizeChange(t *testing.T) {
	llm := &scriptedParserLLM{responses: []llmport.ChatResponse{
		{JSON: map[string]any{"order_item_id": "line-1", "found": true, "confidence": 0.9, "set_size": "large"}},
	}}
	p := NewModifyItemParser(llm, "test-model", time.Second, testMenuModel(t), logger.New("t"))

	cmds, err := p.Parse(context.Background(), "make it large", TurnContext{RestaurantID: 7})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, types.IntentModifyItem, cmds[0].Intent)
	require.NotNil(t, cmds[0].ModifyItem)
	assert.True(t, cmds[0].ModifyItem.Changes.HasSetSize)
	assert.Equal(t, "large", cmds[0].ModifyItem.Changes.SetSize)
}

func TestModifyItemParser_AddAndRemoveModifier(t *testing.T) {
	llm := &scriptedParserLLM{responses: []llmport.ChatResponse{
		{JSON: map[string]any{
			"order_item_id":   "line-1",
			"found":           true,
			"confidence":      0.88,
			"add_modifier":    "extra cheese",
			"remove_modifier": "onions",
		}},
	}}
	p := NewModifyItemParser(llm, "test-model", time.Second, testMenuModel(t), logger.New("t"))

	cmds, err := p.Parse(context.Background(), "add cheese, no onions", TurnContext{RestaurantID: 7})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	changes := cmds[0].ModifyItem.Changes
	assert.Equal(t, "extra cheese", changes.AddModifier)
	assert.Equal(t, "onions", changes.RemoveModifier)
}

func TestRemoveModifyParser_ExceedsToolCallBudget(t *testing.T) {
	responses := make([]llmport.ChatResponse, maxToolCalls)
	for i := range responses {
		responses[i] = llmport.ChatResponse{ToolCalls: []llmport.ToolCall{{ID: "tc", ToolName: toolGetOrderItems}}}
	}
	llm := &scriptedParserLLM{responses: responses}
	p := NewRemoveItemParser(llm, "test-model", time.Second, testMenuModel(t), logger.New("t"))

	_, err := p.Parse(context.Background(), "remove something", TurnContext{RestaurantID: 7})
	assert.Error(t, err)
	assert.Equal(t, maxToolCalls, llm.calls)
}

func TestRemoveModifyParser_ChatError_Propagates(t *testing.T) {
	llm := &scriptedParserLLM{
		responses: []llmport.ChatResponse{{}},
		errs:      []error{errors.New("transport down")},
	}
	p := NewRemoveItemParser(llm, "test-model", time.Second, testMenuModel(t), logger.New("t"))

	_, err := p.Parse(context.Background(), "remove something", TurnContext{RestaurantID: 7})
	assert.Error(t, err)
}
