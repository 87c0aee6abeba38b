// Package fsm implements the State Machine (C5): a pure, table-driven
// function (state, intent) -> transition. It performs no I/O and holds no
// dependency on any other component, so it can be tested exhaustively over
// its entire domain.
package fsm

import "github.com/drivethru-ai/conversation-core/internal/types"

// Machine evaluates transitions against the fully populated table built once
// at construction.
type Machine struct {
	table map[types.ConversationState]map[types.IntentType]Transition
}

// New builds a Machine with the complete state x intent table.
func New() *Machine {
	return &Machine{table: BuildTable()}
}

// Transition looks up the cell for (state, intent). Every (state, intent)
// pair in the domain resolves to a Transition; an intent outside the known
// domain resolves to an invalid transition that leaves the state unchanged.
func (m *Machine) Transition(state types.ConversationState, intent types.IntentType) Transition {
	byIntent, ok := m.table[state]
	if !ok {
		return Transition{Target: state, IsValid: false, InvalidPhrase: PhraseNoActiveOrder}
	}
	t, ok := byIntent[intent]
	if !ok {
		return Transition{Target: state, IsValid: false, InvalidPhrase: PhraseNoActiveOrder}
	}
	return t
}
