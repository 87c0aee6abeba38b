package aggregator

// PhraseID is a canned phrase's stable identifier. Pre-rendered audio for a
// phrase lives at restaurants/<restaurant_id>/canned/<phrase_id>.mp3.
type PhraseID string

const (
	PhraseItemAddedSuccess     PhraseID = "ITEM_ADDED_SUCCESS"
	PhraseItemRemovedSuccess   PhraseID = "ITEM_REMOVED_SUCCESS"
	PhraseItemModifiedSuccess  PhraseID = "ITEM_MODIFIED_SUCCESS"
	PhraseOrderCleared         PhraseID = "ORDER_CLEARED"
	PhraseOrderConfirmed       PhraseID = "ORDER_CONFIRMED"
	PhraseSystemErrorRetry     PhraseID = "SYSTEM_ERROR_RETRY"
	PhraseDidntUnderstand      PhraseID = "DIDNT_UNDERSTAND"
	PhraseOrderAlreadyConfirmed PhraseID = "ORDER_ALREADY_CONFIRMED"
	PhraseNoActiveOrder         PhraseID = "NO_ACTIVE_ORDER"
	PhraseNothingToConfirm      PhraseID = "NOTHING_TO_CONFIRM"
	PhraseGreeting             PhraseID = "GREETING"
	PhraseSmallTalkAck         PhraseID = "SMALL_TALK_ACK"
	PhraseNothingToRepeat      PhraseID = "NOTHING_TO_REPEAT"
)

// cannedText is the source text canned phrases are synthesized or
// pre-rendered from; the Audio Dispatcher treats the phrase_id, not this
// text, as the cache key, but the orchestrator still needs text to return in
// response_text.
var cannedText = map[PhraseID]string{
	PhraseItemAddedSuccess:      "Got it, I've added that to your order.",
	PhraseItemRemovedSuccess:    "Done, I've taken that off your order.",
	PhraseItemModifiedSuccess:   "Got it, I've updated that for you.",
	PhraseOrderCleared:          "Okay, I've cleared your order.",
	PhraseOrderConfirmed:        "Your order is confirmed, please pull forward.",
	PhraseSystemErrorRetry:      "Sorry, something went wrong on our end. Could you try that again?",
	PhraseDidntUnderstand:       "Sorry, I didn't quite catch that.",
	PhraseOrderAlreadyConfirmed: "That order's already confirmed, so it can't be changed here.",
	PhraseNoActiveOrder:         "You don't have an order going yet — what can I get you?",
	PhraseNothingToConfirm:      "There's nothing in your order to confirm yet. What would you like?",
	PhraseGreeting:              "Welcome, what can I get started for you?",
	PhraseSmallTalkAck:          "Happy to chat, but let's get your order sorted — what would you like?",
	PhraseNothingToRepeat:       "I don't have anything to repeat just yet.",
}

// Text returns the canned phrase's text, or a generic fallback for an
// unregistered id (should never happen for a phrase this package itself
// produced).
func Text(id PhraseID) string {
	if t, ok := cannedText[id]; ok {
		return t
	}
	return "Sorry, could you repeat that?"
}
