package command

import (
	"strings"

	"github.com/drivethru-ai/conversation-core/internal/types"
	"github.com/drivethru-ai/conversation-core/pkg/apperrors"
)

// Status is a single command's outcome.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusWarning Status = "WARNING"
	StatusError   Status = "ERROR"
)

// Result is the outcome of executing exactly one command.
type Result struct {
	Status        Status
	Message       string
	Data          map[string]interface{}
	ErrorCategory apperrors.ErrorType // empty unless Status == StatusError/Warning
	ErrorCode     apperrors.Code
	Intent        types.IntentType
}

// BatchOutcome is the deterministic classification of a batch of Results.
type BatchOutcome string

const (
	OutcomeAllSuccess     BatchOutcome = "ALL_SUCCESS"
	OutcomePartialSuccess BatchOutcome = "PARTIAL_SUCCESS"
	OutcomeAllFailed      BatchOutcome = "ALL_FAILED"
	OutcomeFatalSystem    BatchOutcome = "FATAL_SYSTEM"
)

// FollowUpAction tells the orchestrator/aggregator what should happen next.
type FollowUpAction string

const (
	FollowUpContinue FollowUpAction = "CONTINUE"
	FollowUpAsk      FollowUpAction = "ASK"
	FollowUpStop     FollowUpAction = "STOP"
)

// BatchResult aggregates every Result in a command batch.
type BatchResult struct {
	Results         []Result
	Total           int
	Successful      int
	Failed          int
	ErrorsByCategory map[apperrors.ErrorType]int
	ErrorsByCode     map[apperrors.Code]int
	BatchOutcome    BatchOutcome
	FollowUpAction  FollowUpAction
	SummaryMessage  string
	CommandFamily   types.IntentType
}

// DeriveBatchOutcome implements the deterministic, order-independent
// derivation rules: a SYSTEM error always yields FATAL_SYSTEM/STOP; any
// VALIDATION error forces follow_up=ASK; a WARNING counts as executed (it
// counts toward Successful, not Failed) but still forces PARTIAL_SUCCESS/ASK
// since the customer needs to hear about it. Otherwise the outcome is
// ALL_SUCCESS, PARTIAL_SUCCESS, or ALL_FAILED by counting successes against
// failures.
func DeriveBatchOutcome(results []Result) BatchResult {
	br := BatchResult{
		Results:          results,
		Total:            len(results),
		ErrorsByCategory: make(map[apperrors.ErrorType]int),
		ErrorsByCode:     make(map[apperrors.Code]int),
	}

	var hasSystem, hasValidation, hasWarning bool
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			br.Successful++
			continue
		case StatusWarning:
			br.Successful++
			hasWarning = true
		default:
			br.Failed++
		}
		if r.ErrorCategory != "" {
			br.ErrorsByCategory[r.ErrorCategory]++
		}
		if r.ErrorCode != "" {
			br.ErrorsByCode[r.ErrorCode]++
		}
		switch r.ErrorCategory {
		case apperrors.System:
			hasSystem = true
		case apperrors.Validation:
			hasValidation = true
		}
	}

	switch {
	case hasSystem:
		br.BatchOutcome = OutcomeFatalSystem
		br.FollowUpAction = FollowUpStop
	case br.Failed == 0:
		if hasWarning {
			br.BatchOutcome = OutcomePartialSuccess
			br.FollowUpAction = FollowUpAsk
			break
		}
		br.BatchOutcome = OutcomeAllSuccess
		br.FollowUpAction = FollowUpContinue
		if hasValidation {
			// Unreachable in practice (a validation failure always counts
			// against Failed), kept for defensiveness against future result
			// shapes that report validation without marking failure.
			br.FollowUpAction = FollowUpAsk
		}
	case br.Successful > 0:
		br.BatchOutcome = OutcomePartialSuccess
		br.FollowUpAction = FollowUpAsk
	default:
		br.BatchOutcome = OutcomeAllFailed
		br.FollowUpAction = FollowUpAsk
	}

	br.CommandFamily = dominantIntent(results)
	br.SummaryMessage = composeSummary(results)
	return br
}

// composeSummary builds the batch's customer-facing summary in a fixed
// order: acknowledgements for executed commands first, then one sentence per
// unavailable item, then the clarification question if any. The Response
// Aggregator reads this verbatim when it composes a DYNAMIC reply, so the
// ordering here is the ordering the customer hears.
func composeSummary(results []Result) string {
	var acks []string
	var unavailable []string
	var clarification string

	for _, r := range results {
		if r.Message == "" {
			continue
		}
		switch r.Intent {
		case types.IntentItemUnavailable:
			unavailable = append(unavailable, r.Message)
		case types.IntentClarificationNeeded:
			if clarification == "" {
				clarification = r.Message
			}
		default:
			acks = append(acks, r.Message)
		}
	}

	var parts []string
	if len(acks) > 0 {
		parts = append(parts, joinWithAnd(acks))
	}
	parts = append(parts, unavailable...)
	if clarification != "" {
		parts = append(parts, clarification)
	}
	return strings.Join(parts, " ")
}

func joinWithAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

// dominantIntent returns the batch's single intent if every command shares
// one, or IntentMixed otherwise.
func dominantIntent(results []Result) types.IntentType {
	if len(results) == 0 {
		return ""
	}
	first := results[0].Intent
	for _, r := range results[1:] {
		if r.Intent != first {
			return types.IntentMixed
		}
	}
	return first
}
