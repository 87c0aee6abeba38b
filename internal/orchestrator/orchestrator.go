// Package orchestrator implements the Turn Orchestrator: an 8-step sequence
// tying every other component together behind one call, with a per-session
// advisory lock and fatal-error recovery so a well-formed response is
// always returned.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/drivethru-ai/conversation-core/internal/aggregator"
	"github.com/drivethru-ai/conversation-core/internal/audio"
	"github.com/drivethru-ai/conversation-core/internal/command"
	"github.com/drivethru-ai/conversation-core/internal/config"
	"github.com/drivethru-ai/conversation-core/internal/fsm"
	"github.com/drivethru-ai/conversation-core/internal/intent"
	"github.com/drivethru-ai/conversation-core/internal/metrics"
	"github.com/drivethru-ai/conversation-core/internal/orderstore"
	"github.com/drivethru-ai/conversation-core/internal/parser"
	"github.com/drivethru-ai/conversation-core/internal/sessionstore"
	"github.com/drivethru-ai/conversation-core/internal/types"
	"github.com/drivethru-ai/conversation-core/pkg/apperrors"
	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

// TurnRequest is the Turn API's inbound call. RestaurantID is only consulted
// the first time a session is seen; afterward the session's own stamped
// value is authoritative.
type TurnRequest struct {
	SessionID    string
	RestaurantID int64
	Utterance    string
}

// TurnResponse is the Turn API's outbound call, the pipeline's final step.
type TurnResponse struct {
	ResponseText string
	AudioURL     string
	Intent       types.IntentType
	State        types.ConversationState
	Order        orderstore.Snapshot
}

// Orchestrator wires every other component behind one TurnFn.
type Orchestrator struct {
	locks      *SessionLocks
	sessions   sessionstore.Store
	orders     orderstore.Store
	classifier *intent.Classifier
	machine    *fsm.Machine
	router     *parser.Router
	bus        *command.Bus
	aggregator *aggregator.Aggregator
	audio      *audio.Dispatcher
	clock      command.Clock
	cfg        config.Settings
	metrics    *metrics.Metrics
	log        *logger.Logger
}

func New(
	sessions sessionstore.Store,
	orders orderstore.Store,
	classifier *intent.Classifier,
	machine *fsm.Machine,
	router *parser.Router,
	bus *command.Bus,
	agg *aggregator.Aggregator,
	dispatcher *audio.Dispatcher,
	clock command.Clock,
	cfg config.Settings,
	m *metrics.Metrics,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		locks:      NewSessionLocks(cfg.PerSessionTurnDeadline),
		sessions:   sessions,
		orders:     orders,
		classifier: classifier,
		machine:    machine,
		router:     router,
		bus:        bus,
		aggregator: agg,
		audio:      dispatcher,
		clock:      clock,
		cfg:        cfg,
		metrics:    m,
		log:        log,
	}
}

// HandleTurn runs the full sequence for one utterance in one session,
// serialized against any concurrent turn for the same session_id.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (TurnResponse, error) {
	turnStart := time.Now()

	release, err := o.locks.Acquire(ctx, req.SessionID)
	if err != nil {
		return TurnResponse{}, apperrors.NewSystem(apperrors.CodeInternalError, fmt.Sprintf("turn orchestrator: %v", err))
	}
	defer release()

	session, err := o.loadOrCreateSession(ctx, req)
	if err != nil {
		return TurnResponse{}, err
	}

	now := o.clock.Now()

	var (
		batch      command.BatchResult
		resp       aggregator.Response
		result     intent.Result
		transition fsm.Transition
		fatal      bool
	)

	func() {
		defer func() {
			if r := recover(); r != nil {
				o.log.Error("turn orchestrator: recovered panic: %v", r)
				fatal = true
			}
		}()

		order := o.loadOrderSnapshot(ctx, session)

		classifyResult, err := o.classifier.Classify(ctx, req.Utterance, session.RecentHistory(), order, session.RestaurantID)
		if err != nil {
			o.log.WithError(err).Error("turn orchestrator: intent classifier failed")
			fatal = true
			return
		}
		result = classifyResult

		if result.Confidence < o.cfg.ConfidenceThreshold {
			resp = o.aggregator.FromLowConfidence()
			return
		}

		t := o.machine.Transition(session.ConversationState, result.Intent)
		if !t.IsValid {
			transition = t
			resp = o.aggregator.FromInvalidTransition(t.InvalidPhrase)
			return
		}

		switch result.Intent {
		case types.IntentRepeat:
			transition = t
			text := lastResponseText(session)
			if text == "" {
				resp = aggregator.Response{Text: aggregator.Text(aggregator.PhraseNothingToRepeat), Category: aggregator.CANNED, PhraseID: aggregator.PhraseNothingToRepeat}
			} else {
				resp = aggregator.Response{Text: text, Category: aggregator.DYNAMIC}
			}
			return
		case types.IntentSmallTalk:
			transition = t
			resp = aggregator.Response{Text: aggregator.Text(aggregator.PhraseSmallTalkAck), Category: aggregator.CANNED, PhraseID: aggregator.PhraseSmallTalkAck}
			return
		}

		if !t.RequiresCommand {
			// The only valid no-command cell left after the REPEAT/SMALL_TALK
			// special cases is the CONFIRMING -> CLOSING acknowledgement.
			transition = t
			if result.Intent == types.IntentConfirmOrder {
				resp = aggregator.Response{Text: aggregator.Text(aggregator.PhraseOrderConfirmed), Category: aggregator.CANNED, PhraseID: aggregator.PhraseOrderConfirmed}
			} else {
				resp = o.aggregator.FromInvalidTransition(t.InvalidPhrase)
			}
			return
		}

		descriptors, err := o.router.Route(ctx, result.Intent, result.CleansedInput, parser.TurnContext{
			RestaurantID: session.RestaurantID,
			Order:        order,
		})
		if err != nil {
			o.log.WithError(err).Error("turn orchestrator: parser route failed")
			fatal = true
			return
		}

		batch = o.bus.Execute(ctx, descriptors, command.TurnContext{
			OrderID:      session.OrderID,
			RestaurantID: session.RestaurantID,
			LastItemRef:  session.Expectation,
		})

		// An empty-order CONFIRM_ORDER business error rolls the target state
		// back to ORDERING instead of CONFIRMING.
		if result.Intent == types.IntentConfirmOrder && batch.BatchOutcome != command.OutcomeAllSuccess {
			t.Target = types.StateOrdering
		}
		transition = t

		resp = o.aggregator.FromBatch(batch)
	}()

	if fatal {
		batch = command.DeriveBatchOutcome([]command.Result{{
			Status:        command.StatusError,
			ErrorCategory: apperrors.System,
			ErrorCode:     apperrors.CodeInternalError,
			Message:       "internal error, please try again",
		}})
		resp = o.aggregator.FromBatch(batch)
	}

	audioURL := o.audio.Resolve(ctx, session.RestaurantID, resp, o.cfg.TTSVoice, o.cfg.TTSLanguage)

	target := session.ConversationState
	if transition.Target != "" {
		target = transition.Target
	}

	turn := newTurn(req.Utterance, resp.Text, result.Intent, target, now)
	session.AppendTurn(turn, target)
	if ref := lastItemRef(batch); ref != "" {
		session.Expectation = ref
	}

	if err := o.sessions.Put(ctx, req.SessionID, session, o.cfg.SessionTTL); err != nil {
		o.log.WithError(err).Warn("turn orchestrator: failed to persist session %s", req.SessionID)
	}

	finalOrder := o.loadOrderSnapshot(ctx, session)

	o.metrics.ObserveTurn(string(result.Intent), turnOutcome(fatal, batch), time.Since(turnStart))

	return TurnResponse{
		ResponseText: resp.Text,
		AudioURL:     audioURL,
		Intent:       result.Intent,
		State:        target,
		Order:        finalOrder,
	}, nil
}

// turnOutcome labels a turn for the turn_total/turn_duration_seconds
// metrics: a batch's own outcome when one was derived, FATAL_SYSTEM on a
// fatal turn (classifier or parser error, or a recovered panic), or
// NO_COMMAND for the SMALL_TALK/REPEAT/low-confidence/invalid-transition/
// CONFIRMING-acknowledgement short-circuits that never reach the Command Bus.
func turnOutcome(fatal bool, batch command.BatchResult) string {
	if fatal {
		return string(command.OutcomeFatalSystem)
	}
	if batch.BatchOutcome != "" {
		return string(batch.BatchOutcome)
	}
	return "NO_COMMAND"
}

func (o *Orchestrator) loadOrCreateSession(ctx context.Context, req TurnRequest) (*types.SessionContext, error) {
	session, err := o.sessions.Get(ctx, req.SessionID)
	if err == nil {
		return session, nil
	}
	if err != sessionstore.ErrNotFound {
		return nil, apperrors.NewSystem(apperrors.CodeDatabaseError, "failed to load session").WithContext("cause", err.Error())
	}

	return &types.SessionContext{
		SessionID:          req.SessionID,
		RestaurantID:       req.RestaurantID,
		OrderID:            uuid.New().String(),
		ConversationState:  types.StateIdle,
		ConversationHistory: []types.Turn{},
	}, nil
}

func (o *Orchestrator) loadOrderSnapshot(ctx context.Context, session *types.SessionContext) orderstore.Snapshot {
	order, err := o.orders.Get(ctx, session.OrderID)
	if err == nil {
		return order.ToSnapshot()
	}
	if err != orderstore.ErrNotFound {
		o.log.WithError(err).Warn("turn orchestrator: failed to load order %s", session.OrderID)
	}

	fresh := orderstore.NewAggregate(session.OrderID, session.RestaurantID, o.clock.Now())
	if putErr := o.orders.Upsert(ctx, fresh); putErr != nil {
		o.log.WithError(putErr).Warn("turn orchestrator: failed to seed order %s", session.OrderID)
	}
	return fresh.ToSnapshot()
}
