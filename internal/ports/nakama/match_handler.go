package nakama

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"kitchenrush/internal/app"
	"kitchenrush/internal/app/identity"
	"kitchenrush/internal/config"
	"kitchenrush/internal/domain"
	"kitchenrush/internal/ports"
)

// SignalSnapshot asks a running match for its read model over MatchSignal.
const SignalSnapshot = "snapshot"

var errUnknownOpCode = errors.New("unknown opcode")

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Tick         int64                       // Current tick of the match loop
	Presences    map[string]runtime.Presence // Map UserId -> Presence for targeted messaging
	App          *app.Service
	Match        *app.Match
	Metrics      ports.Metrics
	TickInterval time.Duration // Simulated time advanced per loop call

	label    string
	finished bool
}

// newMatchState builds a match from the runtime environment.
func newMatchState(env map[string]string, metrics ports.Metrics, newID func() domain.InstanceID) (*MatchState, int, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, 0, err
	}
	kitchen, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, 0, err
	}

	var verifier ports.IdentityVerifier
	if cfg.IdentityEnabled() {
		verifier = identity.NewService(cfg.IdentitySecret, cfg.IdentityIssuer, cfg.IdentityTTL)
	}

	svc := app.NewService(app.Options{
		Catalog: kitchen.Catalog,
		Layout:  kitchen.Layout,
		Orders: domain.OrderBookConfig{
			Interval:       cfg.OrderInterval,
			MaxOutstanding: cfg.MaxOrders,
		},
		Countdown:     cfg.Countdown,
		MatchDuration: cfg.MatchDuration,
		Colors:        len(cfg.Colors),
		Verifier:      verifier,
		NewID:         newID,
	})
	match, err := svc.NewMatch()
	if err != nil {
		return nil, 0, err
	}

	return &MatchState{
		Presences:    make(map[string]runtime.Presence),
		App:          svc,
		Match:        match,
		Metrics:      metrics,
		TickInterval: cfg.TickInterval(),
	}, cfg.TickRate, nil
}

type matchHandler struct {
	metrics ports.Metrics
	newID   func() domain.InstanceID
}

func newMatchHandler(metrics ports.Metrics) *matchHandler {
	return &matchHandler{metrics: metrics}
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)

	state, tickRate, err := newMatchState(env, mh.metrics, mh.newID)
	if err != nil {
		logger.Error("MatchInit: Failed to build match: %v", err)
		return nil, 0, ""
	}

	label, err := encodeLabel(state.App.Label(state.Match))
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	state.label = label
	state.Metrics.MatchStarted()

	logger.Debug("MatchInit: Kitchen ready, tick rate %d.", tickRate)
	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	if err := matchState.App.CanJoin(matchState.Match, presence.GetUserId()); err != nil {
		matchState.Metrics.JoinRejected(joinRejectReason(err))
		logger.Debug("MatchJoinAttempt: Rejected %s: %v", presence.GetUserId(), err)
		return state, false, err.Error()
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p

		participant, events, err := matchState.App.Join(matchState.Match, p.GetUserId(), p.GetUsername())
		if err != nil {
			// A concurrent join took the last slot between attempt and join.
			logger.Warn("MatchJoin: User %s could not be admitted: %v", p.GetUserId(), err)
			matchState.Metrics.JoinRejected(joinRejectReason(err))
			delete(matchState.Presences, p.GetUserId())
			if kickErr := dispatcher.MatchKick([]runtime.Presence{p}); kickErr != nil {
				logger.Error("MatchJoin: Failed to kick %s: %v", p.GetUserId(), kickErr)
			}
			continue
		}
		matchState.Metrics.JoinAccepted()
		logger.Debug("MatchJoin: User %s took slot %d.", p.GetUserId(), participant.Slot)

		mh.broadcastEvents(matchState, dispatcher, logger, events)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
		events := matchState.App.Leave(matchState.Match, p.GetUserId())
		logger.Debug("MatchLeave: User %s left.", p.GetUserId())
		mh.broadcastEvents(matchState, dispatcher, logger, events)
	}

	if matchState.Match.Roster.Len() == 0 {
		logger.Info("MatchLeave: Terminating empty match.")
		mh.finish(matchState)
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		events, err := mh.handleMessage(matchState, dispatcher, msg)
		mh.broadcastEvents(matchState, dispatcher, logger, events)
		mh.report(matchState, dispatcher, logger, msg, err)
	}

	events := matchState.App.Tick(matchState.Match, matchState.TickInterval)
	mh.broadcastEvents(matchState, dispatcher, logger, events)

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) handleMessage(state *MatchState, dispatcher runtime.MatchDispatcher, msg runtime.MatchData) ([]app.Event, error) {
	userID := msg.GetUserId()

	switch msg.GetOpCode() {
	case OpCodeInteract, OpCodeInteractAlternate:
		in, err := decodeIntent(userID, msg.GetData())
		if err != nil {
			return nil, err
		}
		if msg.GetOpCode() == OpCodeInteract {
			return state.App.Interact(state.Match, in)
		}
		return state.App.InteractAlternate(state.Match, in)
	case OpCodeReady:
		return state.App.SetReady(state.Match, userID)
	case OpCodePause:
		paused, err := decodePause(msg.GetData())
		if err != nil {
			return nil, err
		}
		return state.App.SetPaused(state.Match, userID, paused)
	case OpCodeProfile:
		req, err := decodeProfile(msg.GetData())
		if err != nil {
			return nil, err
		}
		return state.App.SetProfile(state.Match, userID, req.Name, req.Token)
	case OpCodeColor:
		color, err := decodeColor(msg.GetData())
		if err != nil {
			return nil, err
		}
		return state.App.ChangeColor(state.Match, userID, color)
	case OpCodeKick:
		target, err := decodeKick(msg.GetData())
		if err != nil {
			return nil, err
		}
		if err := state.App.Kick(state.Match, userID, target); err != nil {
			return nil, err
		}
		// The disconnect is reported back through MatchLeave.
		if presence, ok := state.Presences[target]; ok {
			if err := dispatcher.MatchKick([]runtime.Presence{presence}); err != nil {
				return nil, fmt.Errorf("kick %s: %w", target, err)
			}
		}
		return nil, nil
	case OpCodeResync:
		return state.App.Resync(state.Match, userID), nil
	}
	return nil, fmt.Errorf("%w: %d", errUnknownOpCode, msg.GetOpCode())
}

// report classifies the outcome of one client message. Stale requests are dropped quietly;
// policy rejections are answered to the sender.
func (mh *matchHandler) report(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData, err error) {
	kind, ok := intentNames[msg.GetOpCode()]
	if !ok {
		kind = "unknown"
	}
	if err == nil {
		state.Metrics.IntentApplied(kind)
		return
	}
	state.Metrics.IntentDropped(kind)

	log := logger.WithFields(map[string]interface{}{
		"user_id": msg.GetUserId(),
		"intent":  kind,
	})

	switch {
	case errors.Is(err, domain.ErrHolderOccupied):
		log.Error("Ownership invariant violated: %v", err)
	case errors.Is(err, ErrMalformedMessage), errors.Is(err, errUnknownOpCode):
		log.Warn("Malformed message: %v", err)
	case errors.Is(err, domain.ErrUnknownStation), errors.Is(err, domain.ErrUnknownHolder):
		log.Warn("Unresolved reference: %v", err)
	case app.IsDropped(err):
		log.Debug("Dropped: %v", err)
	default:
		log.Info("Rejected: %v", err)
		mh.broadcastEvent(state, dispatcher, logger, app.Event{
			Kind:       app.EventRejected,
			Payload:    app.RejectedPayload{Action: kind, Reason: err.Error()},
			Recipients: []string{msg.GetUserId()},
		})
	}
}

func (mh *matchHandler) broadcastEvents(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	switch p := ev.Payload.(type) {
	case app.OrdersChangedPayload:
		if p.Spawned != "" {
			state.Metrics.OrderSpawned()
		}
	case app.DeliveryPayload:
		state.Metrics.Delivery(p.Success)
	case app.GameOverPayload:
		logger.Info("Match over: %d delivered, %d failed.", p.Successes, p.Failures)
	}

	opCode, data, err := encodeEvent(ev)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}

		// Targeted events never fall back to a broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, data, recipients, nil, true); err != nil {
		logger.Error("Failed to broadcast event %v: %v", ev.Kind, err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := encodeLabel(state.App.Label(state.Match))
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if label == state.label {
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
		return
	}
	state.label = label
}

func (mh *matchHandler) finish(state *MatchState) {
	if state.finished {
		return
	}
	state.finished = true
	state.Metrics.MatchEnded()
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d seconds grace", graceSeconds)
	if matchState, ok := state.(*MatchState); ok {
		mh.finish(matchState)
	}
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok || data != SignalSnapshot {
		return state, ""
	}
	body, err := encodeFields(snapshotFields(matchState.App.Snapshot(matchState.Match)))
	if err != nil {
		logger.Error("MatchSignal: Failed to marshal snapshot: %v", err)
		return state, ""
	}
	return state, string(body)
}

func joinRejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMatchFull):
		return "full"
	case errors.Is(err, domain.ErrGameStarted):
		return "started"
	case errors.Is(err, domain.ErrAlreadyJoined):
		return "duplicate"
	}
	return "error"
}
