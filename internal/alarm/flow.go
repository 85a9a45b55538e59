package alarm

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/edgard/alarmbot/internal/config"
	"github.com/edgard/alarmbot/internal/conversation"
	"github.com/edgard/alarmbot/internal/database"
)

// anyStage keys transitions that apply regardless of the current stage.
const anyStage conversation.Stage = -1

type transitionKey struct {
	stage conversation.Stage
	kind  InputKind
}

// action computes the next state and the reply for one event.
type action func(ctx context.Context, ev Event, st conversation.State) (conversation.State, Reply)

// FlowDeps are the collaborators of a Flow.
type FlowDeps struct {
	Logger     *slog.Logger
	States     *conversation.Store
	Registry   Registry
	Transport  Transport
	Dispatcher *Dispatcher
	Messages   config.MessagesConfig
	// DBTimeout bounds every registry call made by the flow itself.
	DBTimeout time.Duration
}

// Flow is the conversation state machine. It is safe for concurrent use;
// events of one user are handled one at a time.
type Flow struct {
	logger     *slog.Logger
	states     *conversation.Store
	registry   Registry
	transport  Transport
	dispatcher *Dispatcher
	msgs       config.MessagesConfig
	dbTimeout  time.Duration
	table      map[transitionKey]action
}

// NewFlow builds a Flow and its transition table.
func NewFlow(deps FlowDeps) *Flow {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbTimeout := deps.DBTimeout
	if dbTimeout <= 0 {
		dbTimeout = config.DefaultDBOperationTimeout
	}

	f := &Flow{
		logger:     logger.With("component", "flow"),
		states:     deps.States,
		registry:   deps.Registry,
		transport:  deps.Transport,
		dispatcher: deps.Dispatcher,
		msgs:       deps.Messages,
		dbTimeout:  dbTimeout,
	}

	f.table = map[transitionKey]action{
		{anyStage, InputCancel}:       f.cancel,
		{anyStage, InputStartSession}: f.startSession,
		{anyStage, InputShowHelp}:     f.showHelp,
		{anyStage, InputChangeGroup}:  f.requestGroupChange,
		{anyStage, InputRequestAlarm}: f.requestAlarm,

		// Skip labels typed while a code is expected are just malformed codes.
		{conversation.StageAwaitingGroupCode, InputText}:      f.registerGroup,
		{conversation.StageAwaitingGroupCode, InputSkipText}:  f.registerGroup,
		{conversation.StageAwaitingGroupCode, InputSkipMedia}: f.registerGroup,

		{conversation.StageAwaitingAlarmText, InputText}:      f.captureText,
		{conversation.StageAwaitingAlarmText, InputSkipMedia}: f.captureText,
		{conversation.StageAwaitingAlarmText, InputSkipText}:  f.skipText,

		{conversation.StageAwaitingAlarmMedia, InputSkipMedia}: f.skipMedia,
		{conversation.StageAwaitingAlarmMedia, InputMedia}:     f.captureMedia,
	}

	return f
}

// Handle runs one event through the state machine and returns the reply
// for the sender. It never fails: every error is turned into a reply and
// the user's state is left either unchanged or idle.
func (f *Flow) Handle(ctx context.Context, ev Event) Reply {
	unlock := f.states.Lock(ev.Sender.ID)
	defer unlock()

	current := f.states.Get(ev.Sender.ID)
	next, reply := f.lookup(current.Stage, ev.Kind)(ctx, ev, current)
	f.states.Set(ev.Sender.ID, next)

	f.logger.DebugContext(ctx, "Handled event",
		"user_id", ev.Sender.ID,
		"input", ev.Kind.String(),
		"from_stage", current.Stage.String(),
		"to_stage", next.Stage.String())

	return reply
}

// State returns the user's current conversation state.
func (f *Flow) State(userID int64) conversation.State {
	return f.states.Get(userID)
}

func (f *Flow) lookup(stage conversation.Stage, kind InputKind) action {
	if act, ok := f.table[transitionKey{stage, kind}]; ok {
		return act
	}
	if act, ok := f.table[transitionKey{anyStage, kind}]; ok {
		return act
	}
	return f.reprompt
}

// reprompt answers input the current stage does not accept.
func (f *Flow) reprompt(_ context.Context, _ Event, st conversation.State) (conversation.State, Reply) {
	switch st.Stage {
	case conversation.StageAwaitingGroupCode:
		return st, Reply{Text: f.msgs.InvalidGroupCode, Keyboard: KeyboardCancel}
	case conversation.StageAwaitingAlarmText:
		return st, Reply{Text: f.msgs.AlarmTextInvalid, Keyboard: KeyboardTextStep}
	case conversation.StageAwaitingAlarmMedia:
		return st, Reply{Text: f.msgs.AlarmMediaInvalid, Keyboard: KeyboardMediaStep}
	default:
		return idle(), Reply{Text: f.msgs.UseMenu, Keyboard: KeyboardMain}
	}
}

func (f *Flow) cancel(_ context.Context, _ Event, _ conversation.State) (conversation.State, Reply) {
	return idle(), Reply{Text: f.msgs.Cancelled, Keyboard: KeyboardMain}
}

func (f *Flow) startSession(_ context.Context, _ Event, _ conversation.State) (conversation.State, Reply) {
	return idle(), Reply{Text: f.msgs.Welcome, Keyboard: KeyboardMain}
}

// showHelp leaves the conversation where it is.
func (f *Flow) showHelp(ctx context.Context, ev Event, st conversation.State) (conversation.State, Reply) {
	group := f.msgs.GroupNotSet
	if g, err := f.lookupGroup(ctx, ev.Sender.ID); err != nil {
		f.logger.ErrorContext(ctx, "Failed to read group for help", "user_id", ev.Sender.ID, "error", err)
	} else if g != "" {
		group = g
	}

	botName, err := f.transport.SelfIdentity(ctx)
	if err != nil {
		f.logger.ErrorContext(ctx, "Failed to resolve bot identity", "error", err)
	}

	text := strings.NewReplacer(
		"{group}", html.EscapeString(group),
		"{bot}", html.EscapeString(botName),
	).Replace(f.msgs.Help)

	return st, Reply{Text: text, Keyboard: keyboardFor(st.Stage)}
}

func (f *Flow) requestGroupChange(_ context.Context, _ Event, _ conversation.State) (conversation.State, Reply) {
	return conversation.State{Stage: conversation.StageAwaitingGroupCode},
		Reply{Text: f.msgs.ChangeGroupPrompt, Keyboard: KeyboardCancel}
}

func (f *Flow) registerGroup(ctx context.Context, ev Event, st conversation.State) (conversation.State, Reply) {
	code := ev.Raw
	if err := ValidateGroupCode(code); err != nil {
		f.logger.DebugContext(ctx, "Rejected group code", "user_id", ev.Sender.ID, "error", err)
		return st, Reply{Text: f.msgs.InvalidGroupCode, Keyboard: KeyboardCancel}
	}

	dbCtx, cancel := context.WithTimeout(ctx, f.dbTimeout)
	defer cancel()

	err := f.registry.UpsertUser(dbCtx, &database.User{
		UserID:      ev.Sender.ID,
		DisplayName: ev.Sender.DisplayName,
		GroupID:     code,
	})
	if err != nil {
		f.logger.ErrorContext(ctx, "Failed to change group",
			"user_id", ev.Sender.ID, "group_id", code, "error", errors.Join(ErrRegistryWrite, err))
		// Stay in the stage so the user can resend the same code.
		return st, Reply{Text: f.msgs.GroupChangeError, Keyboard: KeyboardCancel}
	}

	f.logger.InfoContext(ctx, "User group changed", "user_id", ev.Sender.ID, "group_id", code)
	text := strings.ReplaceAll(f.msgs.GroupChanged, "{group}", html.EscapeString(code))
	return idle(), Reply{Text: text, Keyboard: KeyboardMain}
}

func (f *Flow) requestAlarm(ctx context.Context, ev Event, _ conversation.State) (conversation.State, Reply) {
	group, err := f.lookupGroup(ctx, ev.Sender.ID)
	if err != nil {
		f.logger.ErrorContext(ctx, "Failed to read group for alarm request", "user_id", ev.Sender.ID, "error", err)
		return idle(), Reply{Text: f.msgs.GeneralError, Keyboard: KeyboardMain}
	}
	if group == "" {
		f.logger.InfoContext(ctx, "Alarm requested without group", "user_id", ev.Sender.ID, "error", ErrNoGroupSet)
		return idle(), Reply{Text: f.msgs.NoGroupSet, Keyboard: KeyboardMain}
	}

	return conversation.State{Stage: conversation.StageAwaitingAlarmText},
		Reply{Text: f.msgs.AlarmTextPrompt, Keyboard: KeyboardTextStep}
}

func (f *Flow) captureText(_ context.Context, ev Event, _ conversation.State) (conversation.State, Reply) {
	return conversation.State{Stage: conversation.StageAwaitingAlarmMedia, Text: ev.Text, TextSet: true},
		Reply{Text: f.msgs.AlarmMediaPrompt, Keyboard: KeyboardMediaStep}
}

func (f *Flow) skipText(_ context.Context, _ Event, _ conversation.State) (conversation.State, Reply) {
	return conversation.State{Stage: conversation.StageAwaitingAlarmMedia, TextSet: true},
		Reply{Text: f.msgs.AlarmMediaPrompt, Keyboard: KeyboardMediaStep}
}

func (f *Flow) skipMedia(ctx context.Context, ev Event, st conversation.State) (conversation.State, Reply) {
	return f.dispatch(ctx, ev, st, nil)
}

func (f *Flow) captureMedia(ctx context.Context, ev Event, st conversation.State) (conversation.State, Reply) {
	if ev.Media == nil || ev.Media.FileID == "" {
		return f.reprompt(ctx, ev, st)
	}
	media := *ev.Media
	return f.dispatch(ctx, ev, st, &media)
}

// dispatch hands the finished draft to the dispatcher. The conversation
// ends here whatever the outcome.
func (f *Flow) dispatch(ctx context.Context, ev Event, st conversation.State, media *conversation.Media) (conversation.State, Reply) {
	group, err := f.lookupGroup(ctx, ev.Sender.ID)
	if err != nil {
		// The dispatcher re-reads the group and decides.
		f.logger.WarnContext(ctx, "Failed to read group before dispatch", "user_id", ev.Sender.ID, "error", err)
	}

	payload := Payload{
		SenderID:   ev.Sender.ID,
		SenderName: ev.Sender.DisplayName,
		GroupID:    group,
		Text:       st.Text,
		Media:      media,
	}

	res, err := f.dispatcher.Dispatch(ctx, payload)
	switch {
	case errors.Is(err, ErrNoGroup):
		return idle(), Reply{Text: f.msgs.NoGroup, Keyboard: KeyboardMain}
	case errors.Is(err, ErrNoRecipients):
		return idle(), Reply{Text: f.msgs.NoRecipients, Keyboard: KeyboardMain}
	case err != nil:
		f.logger.ErrorContext(ctx, "Alarm dispatch failed", "user_id", ev.Sender.ID, "error", err)
		return idle(), Reply{Text: f.msgs.DispatchError, Keyboard: KeyboardMain}
	}

	return idle(), Reply{Text: formatSent(f.msgs.AlarmSent, res), Keyboard: KeyboardMain}
}

func (f *Flow) lookupGroup(ctx context.Context, userID int64) (string, error) {
	dbCtx, cancel := context.WithTimeout(ctx, f.dbTimeout)
	defer cancel()
	return f.registry.GetUserGroup(dbCtx, userID)
}

func idle() conversation.State {
	return conversation.State{Stage: conversation.StageIdle}
}

// keyboardFor is the keyboard matching a stage's prompt.
func keyboardFor(stage conversation.Stage) Keyboard {
	switch stage {
	case conversation.StageAwaitingGroupCode:
		return KeyboardCancel
	case conversation.StageAwaitingAlarmText:
		return KeyboardTextStep
	case conversation.StageAwaitingAlarmMedia:
		return KeyboardMediaStep
	default:
		return KeyboardMain
	}
}
