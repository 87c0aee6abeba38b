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
	"github.com/drivethru-ai/conversation-core/internal/types"
	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

func testMenuModelWithItems(t *testing.T, items []menu.Item) *menu.ReadModel {
	t.Helper()
	repo := &fakeMenuRepoForParser{items: items}
	return menu.NewReadModel(repo, missCacheForParser{}, metrics.New(), logger.New("add-item-test"))
}

func extraction(items ...map[string]any) llmport.ChatResponse {
	raw := make([]any, len(items))
	for i, it := range items {
		raw[i] = it
	}
	return llmport.ChatResponse{JSON: map[string]any{
		"success":         true,
		"confidence":      0.9,
		"extracted_items": raw,
	}}
}

func extractionItem(name string, quantity float64) map[string]any {
	return map[string]any{"item_name": name, "quantity": quantity, "confidence": 0.9}
}

func TestAddItemParser_SingleHit_NoDisambiguation(t *testing.T) {
	menuModel := testMenuModelWithItems(t, []menu.Item{{ID: 1, RestaurantID: 7, Name: "Quantum Burger", IsAvailable: true}})
	llm := &scriptedParserLLM{responses: []llmport.ChatResponse{
		extraction(extractionItem("Quantum Burger", 2)),
	}}
	p := NewAddItemParser(llm, "test-model", time.Second, menuModel, logger.New("t"))

	cmds, err := p.Parse(context.Background(), "two quantum burgers", TurnContext{RestaurantID: 7})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, types.IntentAddItem, cmds[0].Intent)
	require.NotNil(t, cmds[0].AddItem)
	assert.Equal(t, int64(1), cmds[0].AddItem.MenuItemID)
	assert.Equal(t, 2, cmds[0].AddItem.Quantity)
	assert.Equal(t, 1, llm.calls, "a single menu hit must resolve without a second LLM call")
}

func TestAddItemParser_ZeroHits_ItemUnavailable(t *testing.T) {
	menuModel := testMenuModelWithItems(t, []menu.Item{{ID: 1, RestaurantID: 7, Name: "Quantum Burger", IsAvailable: true}})
	llm := &scriptedParserLLM{responses: []llmport.ChatResponse{
		extraction(extractionItem("Nebula Shake", 1)),
	}}
	p := NewAddItemParser(llm, "test-model", time.Second, menuModel, logger.New("t"))

	cmds, err := p.Parse(context.Background(), "a nebula shake", TurnContext{RestaurantID: 7})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, types.IntentItemUnavailable, cmds[0].Intent)
	require.NotNil(t, cmds[0].ItemUnavailable)
	assert.Equal(t, "Nebula Shake", cmds[0].ItemUnavailable.RequestedItem)
}

func TestAddItemParser_MultipleHits_Disambiguates(t *testing.T) {
	menuModel := testMenuModelWithItems(t, []menu.Item{
		{ID: 1, RestaurantID: 7, Name: "Quantum Burger Classic", IsAvailable: true},
		{ID: 2, RestaurantID: 7, Name: "Quantum Burger Deluxe", IsAvailable: true},
	})
	llm := &scriptedParserLLM{responses: []llmport.ChatResponse{
		extraction(extractionItem("quantum burger", 1)),
		{JSON: map[string]any{"chosen_item_name": "Quantum Burger Deluxe", "confidence": 0.8}},
	}}
	p := NewAddItemParser(llm, "test-model", time.Second, menuModel, logger.New("t"))

	cmds, err := p.Parse(context.Background(), "a quantum burger", TurnContext{RestaurantID: 7})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, types.IntentAddItem, cmds[0].Intent)
	assert.Equal(t, int64(2), cmds[0].AddItem.MenuItemID)
	assert.Equal(t, 2, llm.calls)
}

func TestAddItemParser_MultipleHits_DisambiguationMisses_AsksClarification(t *testing.T) {
	menuModel := testMenuModelWithItems(t, []menu.Item{
		{ID: 1, RestaurantID: 7, Name: "Quantum Burger Classic", IsAvailable: true},
		{ID: 2, RestaurantID: 7, Name: "Quantum Burger Deluxe", IsAvailable: true},
	})
	llm := &scriptedParserLLM{responses: []llmport.ChatResponse{
		extraction(extractionItem("quantum burger", 1)),
		{JSON: map[string]any{"chosen_item_name": "Something Else Entirely", "confidence": 0.4}},
	}}
	p := NewAddItemParser(llm, "test-model", time.Second, menuModel, logger.New("t"))

	cmds, err := p.Parse(context.Background(), "a quantum burger", TurnContext{RestaurantID: 7})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, types.IntentClarificationNeeded, cmds[0].Intent)
	assert.True(t, cmds[0].NeedsClarification)
}

func TestAddItemParser_NoItemsExtracted_AsksClarification(t *testing.T) {
	menuModel := testMenuModelWithItems(t, nil)
	llm := &scriptedParserLLM{responses: []llmport.ChatResponse{
		{JSON: map[string]any{"success": false, "confidence": 0.1, "extracted_items": []any{}}},
	}}
	p := NewAddItemParser(llm, "test-model", time.Second, menuModel, logger.New("t"))

	cmds, err := p.Parse(context.Background(), "uh", TurnContext{RestaurantID: 7})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, types.IntentUnknown, cmds[0].Intent)
	assert.True(t, cmds[0].NeedsClarification)
}

func TestAddItemParser_MultipleExtractedItems_EachResolvedIndependently(t *testing.T) {
	menuModel := testMenuModelWithItems(t, []menu.Item{
		{ID: 1, RestaurantID: 7, Name: "Quantum Burger", IsAvailable: true},
	})
	llm := &scriptedParserLLM{responses: []llmport.ChatResponse{
		extraction(extractionItem("Quantum Burger", 1), extractionItem("Nebula Shake", 1)),
	}}
	p := NewAddItemParser(llm, "test-model", time.Second, menuModel, logger.New("t"))

	cmds, err := p.Parse(context.Background(), "a quantum burger and a nebula shake", TurnContext{RestaurantID: 7})
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, types.IntentAddItem, cmds[0].Intent)
	assert.Equal(t, types.IntentItemUnavailable, cmds[1].Intent)
}

func TestAddItemParser_ExtractionTransportError_Propagates(t *testing.T) {
	menuModel := testMenuModelWithItems(t, nil)
	llm := &scriptedParserLLM{
		responses: []llmport.ChatResponse{{}},
		errs:      []error{errors.New("transport down")},
	}
	p := NewAddItemParser(llm, "test-model", time.Second, menuModel, logger.New("t"))

	_, err := p.Parse(context.Background(), "anything", TurnContext{RestaurantID: 7})
	assert.Error(t, err)
}

func TestAddItemParser_DefaultsQuantityToOne(t *testing.T) {
	menuModel := testMenuModelWithItems(t, []menu.Item{{ID: 1, RestaurantID: 7, Name: "Quantum Burger", IsAvailable: true}})
	llm := &scriptedParserLLM{responses: []llmport.ChatResponse{
		extraction(map[string]any{"item_name": "Quantum Burger", "confidence": 0.9}),
	}}
	p := NewAddItemParser(llm, "test-model", time.Second, menuModel, logger.New("t"))

	cmds, err := p.Parse(context.Background(), "a quantum burger", TurnContext{RestaurantID: 7})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, 1, cmds[0].AddItem.Quantity)
}
