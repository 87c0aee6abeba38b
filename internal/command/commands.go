// Package command implements the Command Bus (C3): executes one or more
// commands against an order, applies every domain invariant, categorizes
// every result, and aggregates a deterministic batch outcome.
package command

import "github.com/drivethru-ai/conversation-core/internal/types"

// AddItemSlots is the slot schema for ADD_ITEM.
type AddItemSlots struct {
	MenuItemID          int64
	Quantity            int
	Size                string
	Modifiers           []string
	SpecialInstructions string
}

// RemoveItemSlots is the slot schema for REMOVE_ITEM. Exactly one of
// OrderItemID or TargetRef is expected to resolve a line.
type RemoveItemSlots struct {
	OrderItemID string
	TargetRef   string
}

// ModifyChanges is the per-line mutation set for MODIFY_ITEM; any subset may
// be populated in a single command.
type ModifyChanges struct {
	AddModifier              string
	RemoveModifier           string
	SetSpecialInstructions   string
	HasSetSpecialInstructions bool
	ClearSpecialInstructions bool
	SetSize                  string
	HasSetSize               bool
	SetQuantity              int
	HasSetQuantity           bool
}

// ModifyItemSlots is the slot schema for MODIFY_ITEM.
type ModifyItemSlots struct {
	OrderItemID string
	Changes     ModifyChanges
}

// QuestionSlots is the slot schema for QUESTION.
type QuestionSlots struct {
	Question string
	Category string // menu | pricing | hours | allergens | other
}

// ItemUnavailableSlots is the slot schema for the pure ITEM_UNAVAILABLE
// response command emitted by C6's menu resolution stage.
type ItemUnavailableSlots struct {
	RequestedItem string
	Message       string
}

// ClarificationNeededSlots is the slot schema for the pure
// CLARIFICATION_NEEDED response command.
type ClarificationNeededSlots struct {
	AmbiguousItem         string
	SuggestedOptions      []string
	ClarificationQuestion string
}

// UnknownSlots is the slot schema for the pure UNKNOWN response command.
type UnknownSlots struct {
	UserInput          string
	ClarifyingQuestion string
}

// Command is a validated, value-object command ready for the bus. It is a
// tagged union over Intent: exactly the slot field matching Intent is
// populated, the rest are nil/zero. Commands are constructed by parsers and
// never mutated once built.
type Command struct {
	Intent             types.IntentType
	Confidence         float64
	NeedsClarification bool
	ClarifyingQuestion string
	Notes              string

	AddItem             *AddItemSlots
	RemoveItem          *RemoveItemSlots
	ModifyItem          *ModifyItemSlots
	Question            *QuestionSlots
	ItemUnavailable     *ItemUnavailableSlots
	ClarificationNeeded *ClarificationNeededSlots
	Unknown             *UnknownSlots
}
