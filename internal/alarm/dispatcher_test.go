package alarm_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edgard/alarmbot/internal/alarm"
	"github.com/edgard/alarmbot/internal/config"
	"github.com/edgard/alarmbot/internal/conversation"
	"github.com/edgard/alarmbot/internal/logger"
)

const testGroup = "123456789"

func newTestDispatcher(reg alarm.Registry, tr alarm.Transport, sendTimeout time.Duration) *alarm.Dispatcher {
	cfg := config.BroadcastConfig{Workers: 4, RatePerSec: 30, SendTimeout: sendTimeout}
	return alarm.NewDispatcher(logger.Discard(), reg, tr, cfg, config.DefaultMessages.AlarmHeader)
}

func seedGroup(reg *fakeRegistry, n int) {
	reg.add(1, "@sender", testGroup)
	for i := 0; i < n; i++ {
		reg.add(int64(100+i), fmt.Sprintf("member%d", i), testGroup)
	}
	reg.add(999, "@stranger", "555555555")
}

func TestDispatch_AllSucceed(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	seedGroup(reg, 5)
	tr := newFakeTransport()

	res, err := newTestDispatcher(reg, tr, time.Second).Dispatch(context.Background(), alarm.Payload{
		SenderID: 1, SenderName: "@sender", GroupID: testGroup, Text: "fire",
	})
	require.NoError(t, err)
	require.Equal(t, 5, res.Total)
	require.Equal(t, 5, res.Succeeded)
	require.Zero(t, res.Failed())
	require.NotEmpty(t, res.ID)

	msgs := tr.sentMessages()
	require.Len(t, msgs, 5)
	for _, m := range msgs {
		require.NotEqual(t, int64(1), m.RecipientID, "sender must not receive own alarm")
		require.NotEqual(t, int64(999), m.RecipientID, "other groups must not receive the alarm")
		require.Equal(t, "text", m.Method)
	}
}

func TestDispatch_PartialFailuresAreIsolated(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	seedGroup(reg, 6)
	tr := newFakeTransport()
	tr.fail[100] = true
	tr.fail[103] = true

	res, err := newTestDispatcher(reg, tr, time.Second).Dispatch(context.Background(), alarm.Payload{
		SenderID: 1, SenderName: "@sender", Text: "fire",
	})
	require.NoError(t, err)
	require.Equal(t, 6, res.Total)
	require.Equal(t, 4, res.Succeeded)
	require.Equal(t, 2, res.Failed())

	for i := 0; i < 6; i++ {
		require.Equal(t, 1, tr.attemptCount(int64(100+i)), "every recipient gets exactly one attempt")
	}
}

func TestDispatch_TimeoutCountsAsFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ignoreCtx bool
	}{
		{name: "transport honours context"},
		{name: "transport ignores context", ignoreCtx: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reg := newFakeRegistry()
			seedGroup(reg, 3)
			tr := newFakeTransport()
			tr.hang[101] = true
			tr.ignoreCtx = tt.ignoreCtx
			t.Cleanup(func() { close(tr.release) })

			start := time.Now()
			res, err := newTestDispatcher(reg, tr, 100*time.Millisecond).Dispatch(context.Background(), alarm.Payload{SenderID: 1})
			require.NoError(t, err)
			require.Less(t, time.Since(start), 5*time.Second)
			require.Equal(t, 3, res.Total)
			require.Equal(t, 2, res.Succeeded)
		})
	}
}

func TestDispatch_NoRecipients(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	reg.add(1, "@alone", testGroup)
	tr := newFakeTransport()

	res, err := newTestDispatcher(reg, tr, time.Second).Dispatch(context.Background(), alarm.Payload{SenderID: 1})
	require.ErrorIs(t, err, alarm.ErrNoRecipients)
	require.Zero(t, res.Total)
	require.Zero(t, tr.totalAttempts())
}

func TestDispatch_NoGroup(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	reg.add(2, "@other", testGroup)
	tr := newFakeTransport()

	// The payload still carries the group seen while composing; the sender's
	// registry entry is what counts.
	_, err := newTestDispatcher(reg, tr, time.Second).Dispatch(context.Background(), alarm.Payload{
		SenderID: 1, GroupID: testGroup,
	})
	require.ErrorIs(t, err, alarm.ErrNoGroup)
	require.Zero(t, tr.totalAttempts())
}

func TestDispatch_RegistryFailure(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	reg.lookupErr = errors.New("database is locked")
	tr := newFakeTransport()

	_, err := newTestDispatcher(reg, tr, time.Second).Dispatch(context.Background(), alarm.Payload{SenderID: 1})
	require.Error(t, err)
	require.NotErrorIs(t, err, alarm.ErrNoGroup)
	require.Zero(t, tr.totalAttempts())
}

func TestDispatch_StalledRegistryTimesOut(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	seedGroup(reg, 2)
	reg.stall = true
	tr := newFakeTransport()

	cfg := config.BroadcastConfig{Workers: 4, RatePerSec: 30, SendTimeout: time.Second, LookupTimeout: 50 * time.Millisecond}
	d := alarm.NewDispatcher(logger.Discard(), reg, tr, cfg, config.DefaultMessages.AlarmHeader)

	done := make(chan error, 1)
	go func() {
		_, err := d.Dispatch(context.Background(), alarm.Payload{SenderID: 1, Text: "fire"})
		done <- err
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch did not give up on a stalled registry")
	}
	require.Zero(t, tr.totalAttempts())
}

func TestDispatch_MediaUsesCaption(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		media  *conversation.Media
		method string
	}{
		{name: "photo", media: &conversation.Media{Kind: conversation.MediaPhoto, FileID: "p1"}, method: "photo"},
		{name: "video", media: &conversation.Media{Kind: conversation.MediaVideo, FileID: "v1"}, method: "video"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reg := newFakeRegistry()
			seedGroup(reg, 2)
			tr := newFakeTransport()

			res, err := newTestDispatcher(reg, tr, time.Second).Dispatch(context.Background(), alarm.Payload{
				SenderID: 1, SenderName: "@sender", Text: "smoke", Media: tt.media,
			})
			require.NoError(t, err)
			require.Equal(t, 2, res.Succeeded)

			for _, m := range tr.sentMessages() {
				require.Equal(t, tt.method, m.Method)
				require.Equal(t, tt.media.FileID, m.FileID)
				require.Contains(t, m.Text, "smoke")
				require.Contains(t, m.Text, "@sender")
			}
		})
	}
}

func TestDispatch_DetachedFromCallerCancellation(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	seedGroup(reg, 3)
	tr := newFakeTransport()

	// The fake registry ignores ctx, so recipients resolve; deliveries must
	// then run to completion despite the cancelled caller.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestDispatcher(reg, tr, time.Second).Dispatch(ctx, alarm.Payload{SenderID: 1})
	require.NoError(t, err)
	require.Equal(t, 3, res.Total)
	require.Equal(t, 3, res.Succeeded)
}

func TestFormatAlarm(t *testing.T) {
	t.Parallel()

	header := "🚨 <b>ALARM from {sender} (group {group})!</b>"

	tests := []struct {
		name   string
		sender string
		text   string
		want   string
	}{
		{
			name:   "with body",
			sender: "@alice",
			text:   "<b>fire</b> on floor 3",
			want:   "🚨 <b>ALARM from @alice (group 123456789)!</b>\n\n<b>fire</b> on floor 3",
		},
		{
			name:   "empty body has no body line",
			sender: "@alice",
			want:   "🚨 <b>ALARM from @alice (group 123456789)!</b>",
		},
		{
			name:   "sender name is escaped",
			sender: "Tom & <Jerry>",
			want:   "🚨 <b>ALARM from Tom &amp; &lt;Jerry&gt; (group 123456789)!</b>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, alarm.FormatAlarm(header, tt.sender, testGroup, tt.text))
		})
	}
}

func TestValidateGroupCode(t *testing.T) {
	t.Parallel()

	valid := []string{"123456789", "000000000", "999999999"}
	for _, code := range valid {
		require.NoError(t, alarm.ValidateGroupCode(code), code)
	}

	invalid := []string{"", "12345678", "1234567890", "12345678a", " 123456789", "123456789\n", "١٢٣٤٥٦٧٨٩", "12345-789"}
	for _, code := range invalid {
		require.ErrorIs(t, alarm.ValidateGroupCode(code), alarm.ErrInvalidGroupCode, code)
	}
}
