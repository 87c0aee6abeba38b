package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drivethru-ai/conversation-core/internal/command"
	"github.com/drivethru-ai/conversation-core/internal/types"
	"github.com/drivethru-ai/conversation-core/pkg/apperrors"
)

func batchOf(results ...command.Result) command.BatchResult {
	return command.DeriveBatchOutcome(results)
}

func TestFromBatch_SingleSuccessfulAddItem_IsCanned(t *testing.T) {
	agg := New()
	batch := batchOf(command.Result{Status: command.StatusSuccess, Intent: types.IntentAddItem, Message: "added fries"})

	resp := agg.FromBatch(batch)

	assert.Equal(t, CANNED, resp.Category)
	assert.Equal(t, PhraseItemAddedSuccess, resp.PhraseID)
	assert.Equal(t, Text(PhraseItemAddedSuccess), resp.Text)
}

func TestFromBatch_SingleQuestion_IsDynamicWithMessageVerbatim(t *testing.T) {
	agg := New()
	batch := batchOf(command.Result{Status: command.StatusSuccess, Intent: types.IntentQuestion, Message: "we're open until 10pm"})

	resp := agg.FromBatch(batch)

	assert.Equal(t, DYNAMIC, resp.Category)
	assert.Equal(t, "we're open until 10pm", resp.Text)
}

func TestFromBatch_FatalSystem_IsCannedSystemError(t *testing.T) {
	agg := New()
	batch := batchOf(command.Result{Status: command.StatusError, ErrorCategory: apperrors.System, Intent: types.IntentAddItem})

	resp := agg.FromBatch(batch)

	assert.Equal(t, CANNED, resp.Category)
	assert.Equal(t, PhraseSystemErrorRetry, resp.PhraseID)
}

func TestFromBatch_MixedSuccessAndUnavailable_ComposesInFixedOrder(t *testing.T) {
	agg := New()
	batch := batchOf(
		command.Result{Status: command.StatusSuccess, Intent: types.IntentAddItem, Message: "added a burger"},
		command.Result{Status: command.StatusSuccess, Intent: types.IntentItemUnavailable, Message: "sorry, we're out of shakes"},
	)

	resp := agg.FromBatch(batch)

	assert.Equal(t, DYNAMIC, resp.Category)
	assert.Equal(t, "added a burger sorry, we're out of shakes", resp.Text)
}

func TestFromBatch_MultipleAcks_JoinedWithAnd(t *testing.T) {
	agg := New()
	batch := batchOf(
		command.Result{Status: command.StatusSuccess, Intent: types.IntentAddItem, Message: "added fries"},
		command.Result{Status: command.StatusSuccess, Intent: types.IntentAddItem, Message: "added a shake"},
		command.Result{Status: command.StatusSuccess, Intent: types.IntentAddItem, Message: "added a burger"},
	)

	resp := agg.FromBatch(batch)

	assert.Equal(t, "added fries, added a shake and added a burger", resp.Text)
}

func TestFromBatch_IsDeterministic(t *testing.T) {
	agg := New()
	batch := batchOf(
		command.Result{Status: command.StatusSuccess, Intent: types.IntentAddItem, Message: "added fries"},
		command.Result{Status: command.StatusSuccess, Intent: types.IntentItemUnavailable, Message: "no shakes today"},
	)

	first := agg.FromBatch(batch)
	second := agg.FromBatch(batch)

	assert.Equal(t, first, second)
}

func TestFromLowConfidence_IsCannedDidntUnderstand(t *testing.T) {
	agg := New()
	resp := agg.FromLowConfidence()
	assert.Equal(t, CANNED, resp.Category)
	assert.Equal(t, PhraseDidntUnderstand, resp.PhraseID)
}

func TestFromInvalidTransition_UsesSuppliedPhrase(t *testing.T) {
	agg := New()
	resp := agg.FromInvalidTransition(string(PhraseOrderAlreadyConfirmed))
	assert.Equal(t, PhraseOrderAlreadyConfirmed, resp.PhraseID)
}

func TestFromInvalidTransition_EmptyFallsBackToDidntUnderstand(t *testing.T) {
	agg := New()
	resp := agg.FromInvalidTransition("")
	assert.Equal(t, PhraseDidntUnderstand, resp.PhraseID)
}
