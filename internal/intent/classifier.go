// Package intent implements the Intent Classifier (C4): a single LLM call
// that turns one utterance, plus recent history and the current order, into
// (intent, confidence, cleansed_input). It has no side effects beyond the
// LLM call itself.
package intent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/drivethru-ai/conversation-core/internal/llmport"
	"github.com/drivethru-ai/conversation-core/internal/orderstore"
	"github.com/drivethru-ai/conversation-core/internal/types"
	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

// Result is the classifier's structured output.
type Result struct {
	Intent        types.IntentType
	Confidence    float64
	CleansedInput string
}

var knownIntents = map[string]types.IntentType{
	"ADD_ITEM":      types.IntentAddItem,
	"REMOVE_ITEM":   types.IntentRemoveItem,
	"MODIFY_ITEM":   types.IntentModifyItem,
	"CLEAR_ORDER":   types.IntentClearOrder,
	"CONFIRM_ORDER": types.IntentConfirmOrder,
	"QUESTION":      types.IntentQuestion,
	"SMALL_TALK":    types.IntentSmallTalk,
	"REPEAT":        types.IntentRepeat,
	"UNKNOWN":       types.IntentUnknown,
}

var responseSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"intent": map[string]any{
			"type": "string",
			"enum": []string{
				"ADD_ITEM", "REMOVE_ITEM", "MODIFY_ITEM", "CLEAR_ORDER",
				"CONFIRM_ORDER", "QUESTION", "SMALL_TALK", "REPEAT", "UNKNOWN",
			},
		},
		"confidence":     map[string]any{"type": "number"},
		"cleansed_input": map[string]any{"type": "string"},
	},
	"required": []string{"intent", "confidence", "cleansed_input"},
}

const systemPrompt = `You are the intent classifier for a drive-thru ordering assistant.
Given the customer's utterance, recent conversation history, and the current order,
classify the single dominant intent of the utterance and produce a cleansed version
of the utterance with background chatter removed.

Rules:
- Preserve every substring that names a menu item, quantity, size, or modifier into cleansed_input.
- When unsure between two intents, prefer the lower confidence score over guessing; never omit a domain token to raise confidence.
- Respond with exactly one JSON object matching the provided schema.`

// Classifier wraps one LLMClient.Chat call behind the Intent Classifier
// contract, rate-limited per restaurant (golang.org/x/time/rate) so one
// noisy tenant cannot starve the shared LLM quota.
type Classifier struct {
	llm     llmport.Client
	model   string
	timeout time.Duration
	log     *logger.Logger

	perRestaurant rate.Limit
	burst         int

	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
}

// NewClassifier builds a Classifier. ratePerSecond/burst size every
// restaurant's outbound LLM calls equally.
func NewClassifier(llm llmport.Client, model string, timeout time.Duration, ratePerSecond float64, burst int, log *logger.Logger) *Classifier {
	if ratePerSecond <= 0 {
		ratePerSecond = 5
	}
	if burst <= 0 {
		burst = 5
	}
	return &Classifier{
		llm:           llm,
		model:         model,
		timeout:       timeout,
		log:           log,
		perRestaurant: rate.Limit(ratePerSecond),
		burst:         burst,
		limiters:      make(map[int64]*rate.Limiter),
	}
}

func (c *Classifier) limiterFor(restaurantID int64) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[restaurantID]
	if !ok {
		l = rate.NewLimiter(c.perRestaurant, c.burst)
		c.limiters[restaurantID] = l
	}
	return l
}

func historyBlock(history []types.Turn) string {
	var b strings.Builder
	for _, t := range history {
		fmt.Fprintf(&b, "customer: %s\nassistant: %s\n", t.UserInput, t.ResponseText)
	}
	return b.String()
}

func orderBlock(order orderstore.Snapshot) string {
	if len(order.Items) == 0 {
		return "order is empty"
	}
	var b strings.Builder
	for _, it := range order.Items {
		fmt.Fprintf(&b, "- qty %d, menu_item_id %d\n", it.Quantity, it.MenuItemID)
	}
	return b.String()
}

// Classify performs the single LLM call. On any transport/parse failure it
// returns an error; the orchestrator is responsible for converting that into
// a FATAL_SYSTEM turn, not this package.
func (c *Classifier) Classify(ctx context.Context, utterance string, history []types.Turn, order orderstore.Snapshot, restaurantID int64) (Result, error) {
	if err := c.limiterFor(restaurantID).Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("intent classifier: rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	userPrompt := fmt.Sprintf("Conversation history:\n%s\nCurrent order:\n%s\nCustomer utterance: %q",
		historyBlock(history), orderBlock(order), utterance)

	resp, err := c.llm.Chat(ctx, llmport.ChatRequest{
		Model: c.model,
		Messages: []llmport.Message{
			{Role: llmport.RoleSystem, Content: systemPrompt},
			{Role: llmport.RoleUser, Content: userPrompt},
		},
		ResponseSchema: responseSchema,
	})
	if err != nil {
		return Result{}, fmt.Errorf("intent classifier: chat: %w", err)
	}

	return parseResult(resp, utterance)
}

func parseResult(resp llmport.ChatResponse, utterance string) (Result, error) {
	if resp.JSON == nil {
		return Result{}, fmt.Errorf("intent classifier: no structured response")
	}

	intentStr, _ := resp.JSON["intent"].(string)
	intent, ok := knownIntents[intentStr]
	if !ok {
		intent = types.IntentUnknown
	}

	confidence, _ := resp.JSON["confidence"].(float64)
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	cleansed, _ := resp.JSON["cleansed_input"].(string)
	if strings.TrimSpace(cleansed) == "" {
		cleansed = utterance
	}

	return Result{Intent: intent, Confidence: confidence, CleansedInput: cleansed}, nil
}
