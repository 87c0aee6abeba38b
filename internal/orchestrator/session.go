package orchestrator

import (
	"time"

	"github.com/drivethru-ai/conversation-core/internal/command"
	"github.com/drivethru-ai/conversation-core/internal/types"
)

// lastItemRef extracts the most recently mutated line_id from a batch
// result, if any, for SessionContext.Expectation — the concrete target a
// later "last_item" reference in REMOVE_ITEM/MODIFY_ITEM resolves against.
func lastItemRef(batch command.BatchResult) string {
	for i := len(batch.Results) - 1; i >= 0; i-- {
		r := batch.Results[i]
		if r.Status != command.StatusSuccess {
			continue
		}
		if lineID, ok := r.Data["line_id"].(string); ok && lineID != "" {
			return lineID
		}
	}
	return ""
}

func newTurn(userInput, responseText string, intent types.IntentType, state types.ConversationState, now time.Time) types.Turn {
	return types.Turn{
		UserInput:    userInput,
		ResponseText: responseText,
		Intent:       intent,
		State:        state,
		Timestamp:    now,
	}
}

// lastResponseText returns the previous turn's response text, for REPEAT.
func lastResponseText(session *types.SessionContext) string {
	if len(session.ConversationHistory) == 0 {
		return ""
	}
	return session.ConversationHistory[len(session.ConversationHistory)-1].ResponseText
}
