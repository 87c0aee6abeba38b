// Package parser implements the Intent Parser Router (C6): turns
// (intent, cleansed_input, context) into one or more command.Command
// descriptors ready for the Command Bus. Dispatch is an explicit registry
// keyed by intent, so adding an intent without a parser is a compile-time
// nil-map-entry away from being caught by Route, not a silent fallthrough.
package parser

import (
	"context"
	"fmt"

	"github.com/drivethru-ai/conversation-core/internal/command"
	"github.com/drivethru-ai/conversation-core/internal/orderstore"
	"github.com/drivethru-ai/conversation-core/internal/types"
	"github.com/drivethru-ai/conversation-core/pkg/apperrors"
	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

// TurnContext is what a Parser needs beyond the utterance itself.
type TurnContext struct {
	RestaurantID int64
	Order        orderstore.Snapshot
}

// Parser turns one cleansed utterance into a batch of command descriptors.
type Parser interface {
	Parse(ctx context.Context, cleansedInput string, turnCtx TurnContext) ([]command.Command, error)
}

// Router dispatches to one Parser per intent and schema-validates every
// descriptor it returns before handing it to the Command Bus.
type Router struct {
	parsers map[types.IntentType]Parser
	log     *logger.Logger
}

// NewRouter wires the full registry: rule-based parsers for CLEAR_ORDER,
// CONFIRM_ORDER, QUESTION, UNKNOWN, and the LLM-backed parsers for ADD_ITEM,
// REMOVE_ITEM, MODIFY_ITEM.
func NewRouter(addItem *AddItemParser, removeItem, modifyItem *RemoveModifyParser, log *logger.Logger) *Router {
	return &Router{
		log: log,
		parsers: map[types.IntentType]Parser{
			types.IntentClearOrder:   clearOrderParser{},
			types.IntentConfirmOrder: confirmOrderParser{},
			types.IntentQuestion:     questionParser{},
			types.IntentUnknown:      unknownParser{},
			types.IntentAddItem:      addItem,
			types.IntentRemoveItem:   removeItem,
			types.IntentModifyItem:  modifyItem,
		},
	}
}

// Route dispatches to the registered parser for intent and validates every
// descriptor it returns. An unregistered intent (SMALL_TALK, REPEAT — these
// never set requires_command, so they never reach the parser router) or a
// schema violation is a System/INTERNAL_ERROR, never surfaced to the
// customer as a business failure.
func (r *Router) Route(ctx context.Context, intent types.IntentType, cleansedInput string, turnCtx TurnContext) ([]command.Command, error) {
	p, ok := r.parsers[intent]
	if !ok {
		return nil, apperrors.NewSystem(apperrors.CodeInternalError, fmt.Sprintf("parser: no parser registered for intent %s", intent))
	}

	descriptors, err := p.Parse(ctx, cleansedInput, turnCtx)
	if err != nil {
		r.log.WithError(err).Error("parser: %s parse failed", intent)
		return nil, apperrors.NewSystem(apperrors.CodeInternalError, fmt.Sprintf("parser: %s: %v", intent, err))
	}

	for i := range descriptors {
		if err := Validate(descriptors[i]); err != nil {
			return nil, apperrors.NewSystem(apperrors.CodeInternalError, fmt.Sprintf("parser: schema validation: %v", err))
		}
	}
	return descriptors, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
