// Package aggregator implements the Response Aggregator (C7): turns a
// CommandBatchResult (or an earlier pipeline skip — low confidence, an
// invalid state transition) into exactly one {response_text,
// phrase_category, phrase_id?} triple, deterministically.
package aggregator

import (
	"strings"

	"github.com/drivethru-ai/conversation-core/internal/command"
	"github.com/drivethru-ai/conversation-core/internal/types"
)

// PhraseCategory tells the Audio Dispatcher whether to look up a
// pre-rendered object or synthesize dynamic text.
type PhraseCategory string

const (
	CANNED  PhraseCategory = "CANNED"
	DYNAMIC PhraseCategory = "DYNAMIC"
)

// Response is the aggregator's single output shape.
type Response struct {
	Text     string
	Category PhraseCategory
	PhraseID PhraseID // set iff Category == CANNED
}

// successPhrase maps a lone, successful, order-mutating command to its
// canned acknowledgement: a single, successful, order-mutating command
// gets a fixed phrase rather than a composed sentence.
var successPhrase = map[types.IntentType]PhraseID{
	types.IntentAddItem:      PhraseItemAddedSuccess,
	types.IntentRemoveItem:   PhraseItemRemovedSuccess,
	types.IntentModifyItem:   PhraseItemModifiedSuccess,
	types.IntentClearOrder:   PhraseOrderCleared,
	types.IntentConfirmOrder: PhraseOrderConfirmed,
}

// Aggregator has no state; every method is a pure function of its inputs so
// identical inputs always produce identical text.
type Aggregator struct{}

func New() *Aggregator { return &Aggregator{} }

// FromLowConfidence builds the response for a turn skipped for low
// classifier confidence.
func (a *Aggregator) FromLowConfidence() Response {
	return Response{Text: Text(PhraseDidntUnderstand), Category: CANNED, PhraseID: PhraseDidntUnderstand}
}

// FromInvalidTransition builds the response for a turn skipped at step 3
// (the state machine rejected the transition). invalidPhrase is the
// Transition's own phrase id; an empty one falls back to DIDNT_UNDERSTAND.
func (a *Aggregator) FromInvalidTransition(invalidPhrase string) Response {
	id := PhraseID(invalidPhrase)
	if invalidPhrase == "" {
		id = PhraseDidntUnderstand
	}
	return Response{Text: Text(id), Category: CANNED, PhraseID: id}
}

// FromBatch builds the response for a completed CommandBatchResult,
// following the response-composition policy exactly.
func (a *Aggregator) FromBatch(batch command.BatchResult) Response {
	if batch.BatchOutcome == command.OutcomeFatalSystem {
		return Response{Text: Text(PhraseSystemErrorRetry), Category: CANNED, PhraseID: PhraseSystemErrorRetry}
	}

	if batch.BatchOutcome == command.OutcomeAllSuccess && batch.Total == 1 {
		r := batch.Results[0]
		if r.Intent == types.IntentQuestion {
			return Response{Text: r.Message, Category: DYNAMIC}
		}
		if id, ok := successPhrase[r.Intent]; ok {
			return Response{Text: Text(id), Category: CANNED, PhraseID: id}
		}
	}

	// The batch's SummaryMessage already carries the composed text in the
	// fixed order (acknowledgements, unavailable items, clarification).
	text := batch.SummaryMessage
	if strings.TrimSpace(text) == "" {
		text = Text(PhraseDidntUnderstand)
	}
	return Response{Text: text, Category: DYNAMIC}
}
