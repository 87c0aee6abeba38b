package parser

import (
	"context"
	"strings"

	"github.com/drivethru-ai/conversation-core/internal/command"
	"github.com/drivethru-ai/conversation-core/internal/types"
)

// clearOrderParser and confirmOrderParser emit zero-slot commands: no
// extraction needed, the intent alone is the payload.
type clearOrderParser struct{}

func (clearOrderParser) Parse(_ context.Context, _ string, _ TurnContext) ([]command.Command, error) {
	return []command.Command{{Intent: types.IntentClearOrder, Confidence: 1.0}}, nil
}

type confirmOrderParser struct{}

func (confirmOrderParser) Parse(_ context.Context, _ string, _ TurnContext) ([]command.Command, error) {
	return []command.Command{{Intent: types.IntentConfirmOrder, Confidence: 1.0}}, nil
}

// questionParser infers a coarse category by keyword rather than spending
// an LLM call on something a word list settles.
type questionParser struct{}

var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"pricing", []string{"price", "cost", "how much", "$", "dollar"}},
	{"hours", []string{"hour", "open", "close", "closing", "opening"}},
	{"allergens", []string{"allerg", "gluten", "nut", "dairy", "vegan", "vegetarian"}},
	{"menu", []string{"menu", "have", "offer", "sell", "serve"}},
}

func inferCategory(question string) string {
	lower := strings.ToLower(question)
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.category
			}
		}
	}
	return "other"
}

func (questionParser) Parse(_ context.Context, cleansedInput string, _ TurnContext) ([]command.Command, error) {
	return []command.Command{{
		Intent:     types.IntentQuestion,
		Confidence: 0.9,
		Question: &command.QuestionSlots{
			Question: cleansedInput,
			Category: inferCategory(cleansedInput),
		},
	}}, nil
}

// unknownParser emits a canned clarifying question for an utterance the
// classifier itself could not place.
type unknownParser struct{}

func (unknownParser) Parse(_ context.Context, cleansedInput string, _ TurnContext) ([]command.Command, error) {
	return []command.Command{{
		Intent:             types.IntentUnknown,
		Confidence:         0.3,
		NeedsClarification: true,
		ClarifyingQuestion: "Sorry, I didn't catch that — could you say it again?",
		Unknown: &command.UnknownSlots{
			UserInput:          cleansedInput,
			ClarifyingQuestion: "Sorry, I didn't catch that — could you say it again?",
		},
	}}, nil
}
