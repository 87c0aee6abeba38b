package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/drivethru-ai/conversation-core/internal/command"
	"github.com/drivethru-ai/conversation-core/internal/llmport"
	"github.com/drivethru-ai/conversation-core/internal/menu"
	"github.com/drivethru-ai/conversation-core/internal/types"
	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

// maxToolCalls bounds the LLM tool-use loop: at most 5 tool calls per
// parser call.
const maxToolCalls = 5

const toolGetOrderItems = "get_order_items"

var orderItemsTool = llmport.Tool{
	Name:        toolGetOrderItems,
	Description: "Returns the current order's line items: order_item_id, item_name, quantity, modifiers.",
}

// mode distinguishes REMOVE_ITEM from MODIFY_ITEM resolution; both share the
// same tool-use discipline against the current order as the candidate set,
// differing only in what the final schema captures.
type mode int

const (
	modeRemove mode = iota
	modeModify
)

var targetSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"order_item_id":             map[string]any{"type": "string"},
		"found":                      map[string]any{"type": "boolean"},
		"confidence":                 map[string]any{"type": "number"},
		"add_modifier":               map[string]any{"type": "string"},
		"remove_modifier":            map[string]any{"type": "string"},
		"set_size":                   map[string]any{"type": "string"},
		"set_quantity":               map[string]any{"type": "integer"},
		"special_instructions":       map[string]any{"type": "string"},
		"clear_special_instructions": map[string]any{"type": "boolean"},
	},
	"required": []string{"order_item_id", "found", "confidence"},
}

// RemoveModifyParser implements the REMOVE_ITEM/MODIFY_ITEM parsers: a
// bounded LLM tool-use loop that may call get_order_items to see the
// current order before committing to a target_ref and, for modify, a set
// of changes.
type RemoveModifyParser struct {
	mode    mode
	llm     llmport.Client
	model   string
	timeout time.Duration
	menu    *menu.ReadModel
	log     *logger.Logger
}

func NewRemoveItemParser(llm llmport.Client, model string, timeout time.Duration, menuModel *menu.ReadModel, log *logger.Logger) *RemoveModifyParser {
	return &RemoveModifyParser{mode: modeRemove, llm: llm, model: model, timeout: timeout, menu: menuModel, log: log}
}

func NewModifyItemParser(llm llmport.Client, model string, timeout time.Duration, menuModel *menu.ReadModel, log *logger.Logger) *RemoveModifyParser {
	return &RemoveModifyParser{mode: modeModify, llm: llm, model: model, timeout: timeout, menu: menuModel, log: log}
}

func (p *RemoveModifyParser) systemPrompt() string {
	if p.mode == modeRemove {
		return `You resolve which item in a drive-thru customer's current order they want removed.
Call get_order_items to see the order if you need to. Respond with exactly one JSON object matching
the schema: order_item_id of the matching line, found=true if one clearly matches, and a confidence.`
	}
	return `You resolve which item in a drive-thru customer's current order they want changed, and how.
Call get_order_items to see the order if you need to. Respond with exactly one JSON object matching
the schema: order_item_id of the matching line, found=true if one clearly matches, the modifier/size/
quantity/special_instructions changes requested, and a confidence.`
}

func (p *RemoveModifyParser) Parse(ctx context.Context, cleansedInput string, turnCtx TurnContext) ([]command.Command, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	messages := []llmport.Message{
		{Role: llmport.RoleSystem, Content: p.systemPrompt()},
		{Role: llmport.RoleUser, Content: cleansedInput},
	}

	for step := 0; step < maxToolCalls; step++ {
		resp, err := p.llm.Chat(ctx, llmport.ChatRequest{
			Model:          p.model,
			Messages:       messages,
			Tools:          []llmport.Tool{orderItemsTool},
			ResponseSchema: targetSchema,
		})
		if err != nil {
			return nil, fmt.Errorf("chat: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			return p.toCommands(resp, cleansedInput)
		}

		messages = append(messages, llmport.Message{Role: llmport.RoleAssistant, Content: resp.Text})
		for _, tc := range resp.ToolCalls {
			messages = append(messages, llmport.Message{
				Role:       llmport.RoleTool,
				Content:    p.executeTool(ctx, tc, turnCtx),
				ToolCallID: tc.ID,
			})
		}
	}
	return nil, fmt.Errorf("exceeded %d tool calls", maxToolCalls)
}

func (p *RemoveModifyParser) executeTool(ctx context.Context, tc llmport.ToolCall, turnCtx TurnContext) string {
	if tc.ToolName != toolGetOrderItems {
		return fmt.Sprintf(`{"error":"unknown tool %s"}`, tc.ToolName)
	}

	type lineView struct {
		OrderItemID string   `json:"order_item_id"`
		ItemName    string   `json:"item_name"`
		Quantity    int      `json:"quantity"`
		Modifiers   []string `json:"modifiers"`
	}
	views := make([]lineView, 0, len(turnCtx.Order.Items))
	for _, l := range turnCtx.Order.Items {
		name := "item"
		if item := p.menu.ItemByID(ctx, turnCtx.RestaurantID, l.MenuItemID); item != nil {
			name = item.Name
		}
		views = append(views, lineView{OrderItemID: l.LineID, ItemName: name, Quantity: l.Quantity, Modifiers: l.Modifiers})
	}
	data, err := json.Marshal(views)
	if err != nil {
		return `{"error":"failed to encode order items"}`
	}
	return string(data)
}

func (p *RemoveModifyParser) toCommands(resp llmport.ChatResponse, cleansedInput string) ([]command.Command, error) {
	if resp.JSON == nil {
		return nil, fmt.Errorf("no structured response")
	}

	found, _ := resp.JSON["found"].(bool)
	orderItemID, _ := resp.JSON["order_item_id"].(string)
	confidence := clamp01(firstFloat(resp.JSON["confidence"]))

	if !found || orderItemID == "" {
		question := "Which item in your order do you mean?"
		return []command.Command{{
			Intent:             types.IntentClarificationNeeded,
			Confidence:         0.5,
			NeedsClarification: true,
			ClarifyingQuestion: question,
			ClarificationNeeded: &command.ClarificationNeededSlots{
				AmbiguousItem:         cleansedInput,
				ClarificationQuestion: question,
			},
		}}, nil
	}

	if p.mode == modeRemove {
		return []command.Command{{
			Intent:     types.IntentRemoveItem,
			Confidence: confidence,
			RemoveItem: &command.RemoveItemSlots{OrderItemID: orderItemID},
		}}, nil
	}

	changes := command.ModifyChanges{}
	if v, ok := resp.JSON["add_modifier"].(string); ok && v != "" {
		changes.AddModifier = v
	}
	if v, ok := resp.JSON["remove_modifier"].(string); ok && v != "" {
		changes.RemoveModifier = v
	}
	if v, ok := resp.JSON["set_size"].(string); ok && v != "" {
		changes.SetSize = v
		changes.HasSetSize = true
	}
	if v, ok := resp.JSON["set_quantity"].(float64); ok && v > 0 {
		changes.SetQuantity = int(v)
		changes.HasSetQuantity = true
	}
	if v, ok := resp.JSON["special_instructions"].(string); ok && v != "" {
		changes.SetSpecialInstructions = v
		changes.HasSetSpecialInstructions = true
	}
	if v, ok := resp.JSON["clear_special_instructions"].(bool); ok && v {
		changes.ClearSpecialInstructions = true
	}

	return []command.Command{{
		Intent:     types.IntentModifyItem,
		Confidence: confidence,
		ModifyItem: &command.ModifyItemSlots{OrderItemID: orderItemID, Changes: changes},
	}}, nil
}

func firstFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}
