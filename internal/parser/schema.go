package parser

import (
	"fmt"

	"github.com/drivethru-ai/conversation-core/internal/command"
	"github.com/drivethru-ai/conversation-core/internal/types"
)

// Validate is the Command Schema Validator: every descriptor a parser emits
// must carry a confidence in [0,1], a clarifying question iff
// needs_clarification is set, and exactly the one slot struct matching its
// Intent populated. Violating this is a parser bug, not a business error —
// callers should wrap a failure as a System/INTERNAL_ERROR AppError.
func Validate(d command.Command) error {
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("command %s: confidence %f out of range [0,1]", d.Intent, d.Confidence)
	}
	if d.NeedsClarification && d.ClarifyingQuestion == "" {
		return fmt.Errorf("command %s: needs_clarification set without a clarifying_question", d.Intent)
	}

	populated := 0
	for _, present := range []bool{
		d.AddItem != nil,
		d.RemoveItem != nil,
		d.ModifyItem != nil,
		d.Question != nil,
		d.ItemUnavailable != nil,
		d.ClarificationNeeded != nil,
		d.Unknown != nil,
	} {
		if present {
			populated++
		}
	}

	switch d.Intent {
	case types.IntentAddItem:
		if d.AddItem == nil || populated != 1 {
			return fmt.Errorf("command %s: expected exactly AddItem slots populated", d.Intent)
		}
		if d.AddItem.Quantity < 0 {
			return fmt.Errorf("command %s: negative quantity", d.Intent)
		}
	case types.IntentRemoveItem:
		if d.RemoveItem == nil || populated != 1 {
			return fmt.Errorf("command %s: expected exactly RemoveItem slots populated", d.Intent)
		}
	case types.IntentModifyItem:
		if d.ModifyItem == nil || populated != 1 {
			return fmt.Errorf("command %s: expected exactly ModifyItem slots populated", d.Intent)
		}
	case types.IntentQuestion:
		if d.Question == nil || populated != 1 {
			return fmt.Errorf("command %s: expected exactly Question slots populated", d.Intent)
		}
	case types.IntentItemUnavailable:
		if d.ItemUnavailable == nil || populated != 1 {
			return fmt.Errorf("command %s: expected exactly ItemUnavailable slots populated", d.Intent)
		}
	case types.IntentClarificationNeeded:
		if d.ClarificationNeeded == nil || populated != 1 {
			return fmt.Errorf("command %s: expected exactly ClarificationNeeded slots populated", d.Intent)
		}
	case types.IntentUnknown:
		if d.Unknown == nil || populated != 1 {
			return fmt.Errorf("command %s: expected exactly Unknown slots populated", d.Intent)
		}
	case types.IntentClearOrder, types.IntentConfirmOrder:
		if populated != 0 {
			return fmt.Errorf("command %s: zero-slot command carries slot data", d.Intent)
		}
	default:
		return fmt.Errorf("command %s: not a valid parser output intent", d.Intent)
	}

	return nil
}
