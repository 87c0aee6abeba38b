// Package types holds the small set of enums and value objects shared across
// the conversation pipeline's otherwise independent packages (intent names,
// conversation states, turn history) so that internal/fsm, internal/intent,
// internal/command, and internal/parser can agree on them without an import
// cycle.
package types

import "time"

// IntentType is the closed set of intents the Intent Classifier can produce
// and the State Machine and Parser Router key their tables on.
type IntentType string

const (
	IntentAddItem     IntentType = "ADD_ITEM"
	IntentRemoveItem  IntentType = "REMOVE_ITEM"
	IntentModifyItem  IntentType = "MODIFY_ITEM"
	IntentClearOrder  IntentType = "CLEAR_ORDER"
	IntentConfirmOrder IntentType = "CONFIRM_ORDER"
	IntentQuestion    IntentType = "QUESTION"
	IntentSmallTalk   IntentType = "SMALL_TALK"
	IntentRepeat      IntentType = "REPEAT"
	IntentUnknown     IntentType = "UNKNOWN"

	// IntentClarificationNeeded and IntentItemUnavailable are not produced by
	// the Intent Classifier; they are command-family labels used by C3/C7
	// when a parser emits those descriptor kinds.
	IntentClarificationNeeded IntentType = "CLARIFICATION_NEEDED"
	IntentItemUnavailable     IntentType = "ITEM_UNAVAILABLE"

	// IntentMixed is the command_family value when a batch contains more than
	// one distinct intent.
	IntentMixed IntentType = "MIXED"
)

// ConversationState is the State Machine's state domain.
type ConversationState string

const (
	StateIdle       ConversationState = "IDLE"
	StateOrdering   ConversationState = "ORDERING"
	StateThinking   ConversationState = "THINKING"
	StateClarifying ConversationState = "CLARIFYING"
	StateConfirming ConversationState = "CONFIRMING"
	StateClosing    ConversationState = "CLOSING"
)

// Turn is one exchange in a session's history, the unit conversation_history
// is made of.
type Turn struct {
	UserInput    string            `json:"user_input"`
	ResponseText string            `json:"response_text"`
	Intent       IntentType        `json:"intent"`
	State        ConversationState `json:"state"`
	Timestamp    time.Time         `json:"timestamp"`
}

// SessionContext is the mutable per-conversation state the orchestrator reads
// and advances at the end of every turn. It is consumed through a
// SessionStore port, never held in memory across turns.
type SessionContext struct {
	SessionID          string            `json:"session_id"`
	RestaurantID        int64             `json:"restaurant_id"`
	OrderID            string            `json:"order_id"`
	ConversationState  ConversationState `json:"conversation_state"`
	TurnCounter        int               `json:"turn_counter"`
	ConversationHistory []Turn           `json:"conversation_history"`
	Expectation        string            `json:"expectation,omitempty"`
}

// HistoryLimit is the number of trailing turns the Intent Classifier is given
// as context.
const HistoryLimit = 8

// RecentHistory returns up to the last HistoryLimit turns, oldest first.
func (s *SessionContext) RecentHistory() []Turn {
	if len(s.ConversationHistory) <= HistoryLimit {
		return s.ConversationHistory
	}
	return s.ConversationHistory[len(s.ConversationHistory)-HistoryLimit:]
}

// AppendTurn records a turn and advances the session to the given state.
func (s *SessionContext) AppendTurn(t Turn, target ConversationState) {
	s.ConversationHistory = append(s.ConversationHistory, t)
	s.ConversationState = target
	s.TurnCounter++
}
