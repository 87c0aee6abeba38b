package parser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/drivethru-ai/conversation-core/internal/command"
	"github.com/drivethru-ai/conversation-core/internal/llmport"
	"github.com/drivethru-ai/conversation-core/internal/menu"
	"github.com/drivethru-ai/conversation-core/internal/types"
	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

const extractionSystemPrompt = `You extract menu order items from a drive-thru customer's utterance.
Surface every distinct item the customer mentioned, even ones you don't recognize by name.
For each item capture: item_name, quantity (default 1), size if stated, modifiers as short
phrases ("no pickles", "extra cheese"), and special_instructions if any free-text note remains.
Respond with exactly one JSON object matching the provided schema.`

var extractionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"success":    map[string]any{"type": "boolean"},
		"confidence": map[string]any{"type": "number"},
		"extracted_items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"item_name":            map[string]any{"type": "string"},
					"quantity":             map[string]any{"type": "integer"},
					"size":                 map[string]any{"type": "string"},
					"modifiers":            map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"special_instructions": map[string]any{"type": "string"},
					"confidence":           map[string]any{"type": "number"},
				},
				"required": []string{"item_name", "quantity", "confidence"},
			},
		},
	},
	"required": []string{"success", "confidence", "extracted_items"},
}

const disambiguationSystemPrompt = `A customer named an item that matches more than one item on the menu.
Given the customer's phrase and the list of candidate menu item names, choose the single candidate
that best matches. Respond with exactly one JSON object matching the provided schema; chosen_item_name
must be copied verbatim from the candidate list, or left empty if none of them fit.`

var disambiguationSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"chosen_item_name": map[string]any{"type": "string"},
		"confidence":       map[string]any{"type": "number"},
	},
	"required": []string{"chosen_item_name", "confidence"},
}

type extractedItem struct {
	ItemName            string
	Quantity            int
	Size                string
	Modifiers           []string
	SpecialInstructions string
}

// AddItemParser implements the ADD_ITEM two-stage pipeline: an LLM
// extraction call with no tools, followed by menu resolution per extracted
// item via the Menu Read Model's own search, escalating to a second LLM
// call only when resolution is genuinely ambiguous.
type AddItemParser struct {
	llm     llmport.Client
	model   string
	timeout time.Duration
	menu    *menu.ReadModel
	log     *logger.Logger
}

func NewAddItemParser(llm llmport.Client, model string, timeout time.Duration, menuModel *menu.ReadModel, log *logger.Logger) *AddItemParser {
	return &AddItemParser{llm: llm, model: model, timeout: timeout, menu: menuModel, log: log}
}

func (p *AddItemParser) Parse(ctx context.Context, cleansedInput string, turnCtx TurnContext) ([]command.Command, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	items, err := p.extract(ctx, cleansedInput)
	if err != nil {
		return nil, fmt.Errorf("add_item parser: extraction: %w", err)
	}
	if len(items) == 0 {
		return []command.Command{{
			Intent:             types.IntentUnknown,
			Confidence:         0.3,
			NeedsClarification: true,
			ClarifyingQuestion: "Sorry, what would you like to add?",
			Unknown: &command.UnknownSlots{
				UserInput:          cleansedInput,
				ClarifyingQuestion: "Sorry, what would you like to add?",
			},
		}}, nil
	}

	out := make([]command.Command, 0, len(items))
	for _, item := range items {
		cmd, err := p.resolve(ctx, item, turnCtx)
		if err != nil {
			return nil, fmt.Errorf("add_item parser: resolve %q: %w", item.ItemName, err)
		}
		out = append(out, cmd)
	}
	return out, nil
}

func (p *AddItemParser) extract(ctx context.Context, cleansedInput string) ([]extractedItem, error) {
	resp, err := p.llm.Chat(ctx, llmport.ChatRequest{
		Model: p.model,
		Messages: []llmport.Message{
			{Role: llmport.RoleSystem, Content: extractionSystemPrompt},
			{Role: llmport.RoleUser, Content: cleansedInput},
		},
		ResponseSchema: extractionSchema,
	})
	if err != nil {
		return nil, err
	}
	if resp.JSON == nil {
		return nil, fmt.Errorf("no structured response")
	}

	success, _ := resp.JSON["success"].(bool)
	if !success {
		return nil, nil
	}

	raw, _ := resp.JSON["extracted_items"].([]any)
	items := make([]extractedItem, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["item_name"].(string)
		if strings.TrimSpace(name) == "" {
			continue
		}
		quantity := 1
		if q, ok := m["quantity"].(float64); ok && q > 0 {
			quantity = int(q)
		}
		size, _ := m["size"].(string)
		special, _ := m["special_instructions"].(string)
		var modifiers []string
		if rawMods, ok := m["modifiers"].([]any); ok {
			for _, rm := range rawMods {
				if s, ok := rm.(string); ok && strings.TrimSpace(s) != "" {
					modifiers = append(modifiers, s)
				}
			}
		}
		items = append(items, extractedItem{
			ItemName:            name,
			Quantity:            quantity,
			Size:                size,
			Modifiers:           modifiers,
			SpecialInstructions: special,
		})
	}
	return items, nil
}

func (p *AddItemParser) resolve(ctx context.Context, item extractedItem, turnCtx TurnContext) (command.Command, error) {
	hits := p.menu.Search(ctx, turnCtx.RestaurantID, item.ItemName)

	switch {
	case len(hits) == 0:
		return command.Command{
			Intent:     types.IntentItemUnavailable,
			Confidence: 0.9,
			ItemUnavailable: &command.ItemUnavailableSlots{
				RequestedItem: item.ItemName,
			},
		}, nil

	case len(hits) == 1:
		return p.addItemCommand(hits[0].ID, 0.9, item), nil

	default:
		names := make([]string, len(hits))
		for i, h := range hits {
			names[i] = h.Name
		}
		chosen, err := p.disambiguate(ctx, item.ItemName, names)
		if err != nil {
			return command.Command{}, err
		}
		for _, h := range hits {
			if strings.EqualFold(h.Name, chosen) {
				return p.addItemCommand(h.ID, 0.8, item), nil
			}
		}
		return command.Command{
			Intent:             types.IntentClarificationNeeded,
			Confidence:         0.5,
			NeedsClarification: true,
			ClarifyingQuestion: fmt.Sprintf("Which one did you mean: %s?", strings.Join(names, ", ")),
			ClarificationNeeded: &command.ClarificationNeededSlots{
				AmbiguousItem:         item.ItemName,
				SuggestedOptions:      names,
				ClarificationQuestion: fmt.Sprintf("Which one did you mean: %s?", strings.Join(names, ", ")),
			},
		}, nil
	}
}

func (p *AddItemParser) addItemCommand(menuItemID int64, confidence float64, item extractedItem) command.Command {
	return command.Command{
		Intent:     types.IntentAddItem,
		Confidence: confidence,
		AddItem: &command.AddItemSlots{
			MenuItemID:          menuItemID,
			Quantity:            item.Quantity,
			Size:                item.Size,
			Modifiers:           item.Modifiers,
			SpecialInstructions: item.SpecialInstructions,
		},
	}
}

func (p *AddItemParser) disambiguate(ctx context.Context, requested string, candidates []string) (string, error) {
	prompt := fmt.Sprintf("Customer said: %q\nCandidates: %s", requested, strings.Join(candidates, ", "))
	resp, err := p.llm.Chat(ctx, llmport.ChatRequest{
		Model: p.model,
		Messages: []llmport.Message{
			{Role: llmport.RoleSystem, Content: disambiguationSystemPrompt},
			{Role: llmport.RoleUser, Content: prompt},
		},
		ResponseSchema: disambiguationSchema,
	})
	if err != nil {
		return "", err
	}
	if resp.JSON == nil {
		return "", fmt.Errorf("no structured response")
	}
	chosen, _ := resp.JSON["chosen_item_name"].(string)
	return chosen, nil
}
