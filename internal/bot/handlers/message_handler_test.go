package handlers

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"

	"github.com/edgard/alarmbot/internal/alarm"
	"github.com/edgard/alarmbot/internal/config"
	"github.com/edgard/alarmbot/internal/conversation"
	"github.com/edgard/alarmbot/internal/database"
	"github.com/edgard/alarmbot/internal/logger"
)

var alice = &models.User{ID: 1, Username: "alice", FirstName: "Alice"}

func privateMessage(m models.Message) *models.Message {
	m.From = alice
	m.Chat = models.Chat{ID: alice.ID, Type: "private"}
	return &m
}

func TestClassifyMessage(t *testing.T) {
	t.Parallel()

	b := config.DefaultButtons

	tests := []struct {
		name      string
		msg       *models.Message
		wantKind  alarm.InputKind
		wantText  string
		wantMedia *conversation.Media
	}{
		{
			name:     "free text",
			msg:      privateMessage(models.Message{Text: "123456789"}),
			wantKind: alarm.InputText,
			wantText: "123456789",
		},
		{
			name: "formatted text is rendered",
			msg: privateMessage(models.Message{
				Text:     "fire <now>",
				Entities: []models.MessageEntity{{Type: "bold", Offset: 0, Length: 4}},
			}),
			wantKind: alarm.InputText,
			wantText: "<b>fire</b> &lt;now&gt;",
		},
		{name: "alarm button", msg: privateMessage(models.Message{Text: b.Alarm}), wantKind: alarm.InputRequestAlarm, wantText: b.Alarm},
		{name: "help button", msg: privateMessage(models.Message{Text: b.Help}), wantKind: alarm.InputShowHelp, wantText: b.Help},
		{name: "cancel button", msg: privateMessage(models.Message{Text: b.Cancel}), wantKind: alarm.InputCancel, wantText: b.Cancel},
		{name: "skip text button", msg: privateMessage(models.Message{Text: b.SkipText}), wantKind: alarm.InputSkipText, wantText: b.SkipText},
		{name: "skip media button", msg: privateMessage(models.Message{Text: b.SkipMedia}), wantKind: alarm.InputSkipMedia, wantText: b.SkipMedia},
		{
			name: "largest photo size is used",
			msg: privateMessage(models.Message{
				Photo:   []models.PhotoSize{{FileID: "small"}, {FileID: "medium"}, {FileID: "large"}},
				Caption: "smoke",
			}),
			wantKind:  alarm.InputMedia,
			wantText:  "smoke",
			wantMedia: &conversation.Media{Kind: conversation.MediaPhoto, FileID: "large"},
		},
		{
			name:      "video",
			msg:       privateMessage(models.Message{Video: &models.Video{FileID: "vid"}}),
			wantKind:  alarm.InputMedia,
			wantMedia: &conversation.Media{Kind: conversation.MediaVideo, FileID: "vid"},
		},
		{
			name: "photo wins over video",
			msg: privateMessage(models.Message{
				Photo: []models.PhotoSize{{FileID: "p"}},
				Video: &models.Video{FileID: "v"},
			}),
			wantKind:  alarm.InputMedia,
			wantMedia: &conversation.Media{Kind: conversation.MediaPhoto, FileID: "p"},
		},
		{
			name:     "unsupported content has no media reference",
			msg:      privateMessage(models.Message{Sticker: &models.Sticker{FileID: "s"}}),
			wantKind: alarm.InputMedia,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ev := ClassifyMessage(tt.msg, b)
			require.Equal(t, tt.wantKind, ev.Kind)
			require.Equal(t, tt.wantText, ev.Text)
			require.Equal(t, tt.wantMedia, ev.Media)
			require.Equal(t, alarm.Sender{ID: 1, DisplayName: "@alice"}, ev.Sender)
		})
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "@bob", DisplayName(&models.User{Username: "bob", FirstName: "Bob"}))
	require.Equal(t, "Bob Smith", DisplayName(&models.User{FirstName: "Bob", LastName: "Smith"}))
	require.Equal(t, "Bob", DisplayName(&models.User{FirstName: "Bob"}))
	require.Empty(t, DisplayName(nil))
}

func TestMatchMessage(t *testing.T) {
	t.Parallel()

	match := MatchMessage("start", "help", "change_grp")

	tests := []struct {
		text string
		want bool
	}{
		{"hello", true},
		{"123456789", true},
		{"/start", false},
		{"/help@alarm_relay_bot", false},
		{"/change_grp 123", false},
		{"/unknown", true},
		{"", true},
	}

	for _, tt := range tests {
		update := &models.Update{Message: privateMessage(models.Message{Text: tt.text})}
		require.Equal(t, tt.want, match(update), tt.text)
	}

	require.False(t, match(&models.Update{}))
	require.False(t, match(&models.Update{Message: &models.Message{Text: "x"}}))
}

type fakeFlow struct {
	events []alarm.Event
	reply  alarm.Reply
}

func (f *fakeFlow) Handle(_ context.Context, ev alarm.Event) alarm.Reply {
	f.events = append(f.events, ev)
	return f.reply
}

type sentReply struct {
	chatID int64
	reply  alarm.Reply
}

type fakeReplier struct {
	sent []sentReply
	err  error
}

func (r *fakeReplier) Reply(_ context.Context, chatID int64, reply alarm.Reply) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sentReply{chatID: chatID, reply: reply})
	return nil
}

func newTestDeps() (HandlerDeps, *fakeFlow, *fakeReplier) {
	flow := &fakeFlow{reply: alarm.Reply{Text: "ok", Keyboard: alarm.KeyboardCancel}}
	replier := &fakeReplier{}
	cfg := &config.Config{Buttons: config.DefaultButtons, Messages: config.DefaultMessages}
	return HandlerDeps{Logger: logger.Discard(), Config: cfg, Flow: flow, Replier: replier}, flow, replier
}

func TestRegisterAllCommands(t *testing.T) {
	t.Parallel()

	deps, _, _ := newTestDeps()
	registered := RegisterAllCommands(deps)
	require.Len(t, registered, 4)

	var patterns []string
	for _, h := range registered[:3] {
		patterns = append(patterns, h.Pattern)
		require.NotEmpty(t, h.Description)
		require.Nil(t, h.MatchFunc)
	}
	require.Equal(t, []string{"start", "help", "change_grp"}, patterns)

	last := registered[3]
	require.NotNil(t, last.MatchFunc)
	require.Empty(t, last.Description)
	require.False(t, last.MatchFunc(&models.Update{Message: privateMessage(models.Message{Text: "/help"})}))
	require.True(t, last.MatchFunc(&models.Update{Message: privateMessage(models.Message{Text: "fire"})}))
}

func TestCommandHandlers(t *testing.T) {
	t.Parallel()

	deps, flow, replier := newTestDeps()

	cases := map[string]alarm.InputKind{
		"/start":      alarm.InputStartSession,
		"/help":       alarm.InputShowHelp,
		"/change_grp": alarm.InputChangeGroup,
	}

	NewStartHandler(deps)(context.Background(), nil, &models.Update{Message: privateMessage(models.Message{Text: "/start"})})
	NewHelpHandler(deps)(context.Background(), nil, &models.Update{Message: privateMessage(models.Message{Text: "/help"})})
	NewChangeGroupHandler(deps)(context.Background(), nil, &models.Update{Message: privateMessage(models.Message{Text: "/change_grp"})})

	require.Len(t, flow.events, 3)
	for _, ev := range flow.events {
		require.Equal(t, cases[ev.Text], ev.Kind, ev.Text)
		require.Equal(t, int64(1), ev.Sender.ID)
	}

	require.Len(t, replier.sent, 3)
	for _, s := range replier.sent {
		require.Equal(t, int64(1), s.chatID)
		require.Equal(t, flow.reply, s.reply)
	}
}

func TestMessageHandler(t *testing.T) {
	t.Parallel()

	deps, flow, replier := newTestDeps()
	h := NewMessageHandler(deps)

	h(context.Background(), nil, &models.Update{Message: privateMessage(models.Message{Text: config.DefaultButtons.Alarm})})
	require.Len(t, flow.events, 1)
	require.Equal(t, alarm.InputRequestAlarm, flow.events[0].Kind)
	require.Len(t, replier.sent, 1)

	// Updates without a sender never reach the flow.
	h(context.Background(), nil, &models.Update{Message: &models.Message{Text: "x"}})
	h(context.Background(), nil, &models.Update{})
	require.Len(t, flow.events, 1)

	// A failed reply is logged, not retried.
	replier.err = errors.New("network down")
	h(context.Background(), nil, &models.Update{Message: privateMessage(models.Message{Text: "hi"})})
	require.Len(t, flow.events, 2)
	require.Len(t, replier.sent, 1)
}

func TestPrivateChatOnly(t *testing.T) {
	t.Parallel()

	deps, _, _ := newTestDeps()
	calls := 0
	next := func(context.Context, *tgbot.Bot, *models.Update) { calls++ }

	h := PrivateChatOnly(deps)(next)

	h(context.Background(), nil, &models.Update{Message: privateMessage(models.Message{Text: "hi"})})
	require.Equal(t, 1, calls)

	group := privateMessage(models.Message{Text: "123456789"})
	group.Chat.Type = "group"
	h(context.Background(), nil, &models.Update{Message: group})
	require.Equal(t, 1, calls)

	h(context.Background(), nil, &models.Update{})
	require.Equal(t, 2, calls)
}

type nopTransport struct{}

func (nopTransport) SendText(context.Context, int64, string) error          { return nil }
func (nopTransport) SendPhoto(context.Context, int64, string, string) error { return nil }
func (nopTransport) SendVideo(context.Context, int64, string, string) error { return nil }
func (nopTransport) SelfIdentity(context.Context) (string, error)           { return "alarm_relay_bot", nil }

func TestMessageHandler_FormattedGroupCodeRegisters(t *testing.T) {
	t.Parallel()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })
	store := database.NewStore(db, logger.Discard())

	tr := nopTransport{}
	flow := alarm.NewFlow(alarm.FlowDeps{
		Logger:     logger.Discard(),
		States:     conversation.NewStore(),
		Registry:   store,
		Transport:  tr,
		Dispatcher: alarm.NewDispatcher(logger.Discard(), store, tr, config.BroadcastConfig{}, config.DefaultMessages.AlarmHeader),
		Messages:   config.DefaultMessages,
		DBTimeout:  time.Second,
	})

	deps, _, replier := newTestDeps()
	deps.Flow = flow

	// Monospace text copied from the help message keeps its code entity.
	code := privateMessage(models.Message{
		Text:     "123456789",
		Entities: []models.MessageEntity{{Type: "code", Offset: 0, Length: 9}},
	})
	ev := ClassifyMessage(code, config.DefaultButtons)
	require.Equal(t, "<code>123456789</code>", ev.Text)
	require.Equal(t, "123456789", ev.Raw)

	ctx := context.Background()
	NewChangeGroupHandler(deps)(ctx, nil, &models.Update{Message: privateMessage(models.Message{Text: "/change_grp"})})
	NewMessageHandler(deps)(ctx, nil, &models.Update{Message: code})

	require.Len(t, replier.sent, 2)
	require.Equal(t, "✅ Group changed to <code>123456789</code>!", replier.sent[1].reply.Text)
	require.Equal(t, conversation.StageIdle, flow.State(alice.ID).Stage)

	group, err := store.GetUserGroup(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "123456789", group)
}
