package fsm

import "github.com/drivethru-ai/conversation-core/internal/types"

// Transition is the result of looking up a (state, intent) cell.
type Transition struct {
	Target         types.ConversationState
	RequiresCommand bool
	IsValid        bool
	InvalidPhrase  string
}

// Canned phrase ids used for invalid transitions, consumed by the Response
// Aggregator / Audio Dispatcher without further interpretation.
const (
	PhraseNoActiveOrder       = "NO_ACTIVE_ORDER"
	PhraseOrderAlreadyConfirmed = "ORDER_ALREADY_CONFIRMED"
	PhraseNothingToConfirm    = "NOTHING_TO_CONFIRM"
)

type cell struct {
	state  types.ConversationState
	intent types.IntentType
}

// table holds every populated (state, intent) cell; any cell absent from this
// map is invalid by construction, and BuildTable fills those defaults in
// explicitly so the resulting table is exhaustive over every state x intent
// pair.
var table = map[cell]Transition{
	// ORDERING is the steady state: mutating intents stay in ORDERING.
	{types.StateOrdering, types.IntentAddItem}:    {types.StateOrdering, true, true, ""},
	{types.StateOrdering, types.IntentRemoveItem}: {types.StateOrdering, true, true, ""},
	{types.StateOrdering, types.IntentModifyItem}: {types.StateOrdering, true, true, ""},
	{types.StateOrdering, types.IntentClearOrder}: {types.StateOrdering, true, true, ""},
	// Confirming from ORDERING runs the CONFIRM_ORDER command immediately so
	// an empty-order business error can roll the state back (see scenario 6
	// in the turn orchestrator's rollback handling); CONFIRMING -> CLOSING is
	// then a plain acknowledgement of an already-confirmed order.
	{types.StateOrdering, types.IntentConfirmOrder}: {types.StateConfirming, true, true, ""},
	{types.StateOrdering, types.IntentQuestion}:     {types.StateOrdering, true, true, ""},
	{types.StateOrdering, types.IntentSmallTalk}:    {types.StateOrdering, false, true, ""},
	{types.StateOrdering, types.IntentRepeat}:       {types.StateOrdering, false, true, ""},
	{types.StateOrdering, types.IntentUnknown}:      {types.StateOrdering, true, true, ""},

	// CLARIFYING: the customer is resolving an ambiguous item; treat order
	// mutations the same as ORDERING once resolved.
	{types.StateClarifying, types.IntentAddItem}:     {types.StateOrdering, true, true, ""},
	{types.StateClarifying, types.IntentRemoveItem}:  {types.StateOrdering, true, true, ""},
	{types.StateClarifying, types.IntentModifyItem}:  {types.StateOrdering, true, true, ""},
	{types.StateClarifying, types.IntentClearOrder}:  {types.StateOrdering, true, true, ""},
	{types.StateClarifying, types.IntentConfirmOrder}: {types.StateConfirming, true, true, ""},
	{types.StateClarifying, types.IntentQuestion}:    {types.StateClarifying, true, true, ""},
	{types.StateClarifying, types.IntentSmallTalk}:   {types.StateClarifying, false, true, ""},
	{types.StateClarifying, types.IntentRepeat}:      {types.StateClarifying, false, true, ""},
	{types.StateClarifying, types.IntentUnknown}:     {types.StateClarifying, true, true, ""},

	// THINKING: customer asked for a moment; CONFIRM_ORDER is explicitly
	// invalid here ("no order" rule) but everything else behaves as ORDERING.
	{types.StateThinking, types.IntentAddItem}:     {types.StateOrdering, true, true, ""},
	{types.StateThinking, types.IntentRemoveItem}:  {types.StateOrdering, true, true, ""},
	{types.StateThinking, types.IntentModifyItem}:  {types.StateOrdering, true, true, ""},
	{types.StateThinking, types.IntentClearOrder}:  {types.StateOrdering, true, true, ""},
	{types.StateThinking, types.IntentConfirmOrder}: {types.StateThinking, false, false, PhraseNothingToConfirm},
	{types.StateThinking, types.IntentQuestion}:     {types.StateThinking, true, true, ""},
	{types.StateThinking, types.IntentSmallTalk}:    {types.StateThinking, false, true, ""},
	{types.StateThinking, types.IntentRepeat}:       {types.StateThinking, false, true, ""},
	{types.StateThinking, types.IntentUnknown}:      {types.StateThinking, true, true, ""},

	// IDLE: no order has been started; mutating/confirming intents other
	// than ADD_ITEM have nothing to act on.
	{types.StateIdle, types.IntentAddItem}:     {types.StateOrdering, true, true, ""},
	{types.StateIdle, types.IntentRemoveItem}:  {types.StateIdle, false, false, PhraseNoActiveOrder},
	{types.StateIdle, types.IntentModifyItem}:  {types.StateIdle, false, false, PhraseNoActiveOrder},
	{types.StateIdle, types.IntentClearOrder}:  {types.StateIdle, false, false, PhraseNoActiveOrder},
	{types.StateIdle, types.IntentConfirmOrder}: {types.StateIdle, false, false, PhraseNothingToConfirm},
	{types.StateIdle, types.IntentQuestion}:    {types.StateIdle, true, true, ""},
	{types.StateIdle, types.IntentSmallTalk}:   {types.StateIdle, false, true, ""},
	{types.StateIdle, types.IntentRepeat}:      {types.StateIdle, false, true, ""},
	{types.StateIdle, types.IntentUnknown}:     {types.StateIdle, true, true, ""},

	// CONFIRMING: the order was just confirmed (status=CONFIRMED); lines are
	// frozen, so remove/modify/clear/confirm are invalid the same way they
	// are in CLOSING. ADD_ITEM moves the conversation back to ORDERING and
	// runs its command, but the Command Bus rejects an add to a CONFIRMED
	// order ("order is no longer active"), so no line is added.
	{types.StateConfirming, types.IntentAddItem}:     {types.StateOrdering, true, true, ""},
	{types.StateConfirming, types.IntentRemoveItem}:  {types.StateConfirming, false, false, PhraseOrderAlreadyConfirmed},
	{types.StateConfirming, types.IntentModifyItem}:  {types.StateConfirming, false, false, PhraseOrderAlreadyConfirmed},
	{types.StateConfirming, types.IntentClearOrder}:  {types.StateConfirming, false, false, PhraseOrderAlreadyConfirmed},
	{types.StateConfirming, types.IntentConfirmOrder}: {types.StateClosing, false, true, ""},
	{types.StateConfirming, types.IntentQuestion}:    {types.StateConfirming, true, true, ""},
	{types.StateConfirming, types.IntentSmallTalk}:   {types.StateConfirming, false, true, ""},
	{types.StateConfirming, types.IntentRepeat}:      {types.StateConfirming, false, true, ""},
	{types.StateConfirming, types.IntentUnknown}:     {types.StateConfirming, true, true, ""},

	// CLOSING: order is being prepared; remove/modify/clear/confirm are
	// invalid, but ADD_ITEM starts a new round of ordering here too.
	{types.StateClosing, types.IntentAddItem}:     {types.StateOrdering, true, true, ""},
	{types.StateClosing, types.IntentRemoveItem}:  {types.StateClosing, false, false, PhraseOrderAlreadyConfirmed},
	{types.StateClosing, types.IntentModifyItem}:  {types.StateClosing, false, false, PhraseOrderAlreadyConfirmed},
	{types.StateClosing, types.IntentClearOrder}:  {types.StateClosing, false, false, PhraseOrderAlreadyConfirmed},
	{types.StateClosing, types.IntentConfirmOrder}: {types.StateClosing, false, false, PhraseOrderAlreadyConfirmed},
	{types.StateClosing, types.IntentQuestion}:    {types.StateClosing, true, true, ""},
	{types.StateClosing, types.IntentSmallTalk}:   {types.StateClosing, false, true, ""},
	{types.StateClosing, types.IntentRepeat}:      {types.StateClosing, false, true, ""},
	{types.StateClosing, types.IntentUnknown}:     {types.StateClosing, true, true, ""},
}

// allStates and allIntents enumerate the domain BuildTable closes over, so
// every state x intent cell is populated, including ones left out of the
// literal table above (defaulted to invalid with a generic phrase).
var allStates = []types.ConversationState{
	types.StateIdle, types.StateOrdering, types.StateThinking,
	types.StateClarifying, types.StateConfirming, types.StateClosing,
}

var allIntents = []types.IntentType{
	types.IntentAddItem, types.IntentRemoveItem, types.IntentModifyItem,
	types.IntentClearOrder, types.IntentConfirmOrder, types.IntentQuestion,
	types.IntentSmallTalk, types.IntentRepeat, types.IntentUnknown,
}

// BuildTable returns the fully populated state x intent transition table.
func BuildTable() map[types.ConversationState]map[types.IntentType]Transition {
	out := make(map[types.ConversationState]map[types.IntentType]Transition, len(allStates))
	for _, s := range allStates {
		out[s] = make(map[types.IntentType]Transition, len(allIntents))
		for _, i := range allIntents {
			if t, ok := table[cell{s, i}]; ok {
				out[s][i] = t
				continue
			}
			out[s][i] = Transition{Target: s, RequiresCommand: false, IsValid: false, InvalidPhrase: PhraseNoActiveOrder}
		}
	}
	return out
}
