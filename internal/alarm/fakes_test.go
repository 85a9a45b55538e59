package alarm_test

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/edgard/alarmbot/internal/alarm"
	"github.com/edgard/alarmbot/internal/database"
)

var errTransport = errors.New("forbidden: bot was blocked by the user")

// fakeRegistry is an in-memory registry with injectable failures.
type fakeRegistry struct {
	mu        sync.Mutex
	users     map[int64]database.User
	upserts   int
	upsertErr error
	lookupErr error
	// stall makes lookups block until their context is done.
	stall bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{users: make(map[int64]database.User)}
}

func (r *fakeRegistry) add(userID int64, name, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID] = database.User{UserID: userID, DisplayName: name, GroupID: group}
}

func (r *fakeRegistry) UpsertUser(_ context.Context, user *database.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserts++
	r.users[user.UserID] = *user
	return nil
}

func (r *fakeRegistry) wait(ctx context.Context) error {
	r.mu.Lock()
	stall := r.stall
	r.mu.Unlock()
	if !stall {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (r *fakeRegistry) GetUserGroup(ctx context.Context, userID int64) (string, error) {
	if err := r.wait(ctx); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return "", r.lookupErr
	}
	return r.users[userID].GroupID, nil
}

func (r *fakeRegistry) GetUsersByGroup(ctx context.Context, groupID string) ([]database.User, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	var out []database.User
	for _, u := range r.users {
		if u.GroupID == groupID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *fakeRegistry) snapshot() map[int64]database.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]database.User, len(r.users))
	for k, v := range r.users {
		out[k] = v
	}
	return out
}

// sent is one recorded transport call.
type sent struct {
	Method      string
	RecipientID int64
	FileID      string
	Text        string
}

// fakeTransport records deliveries. Recipients in fail get an error;
// recipients in hang block until their context is done or never, when
// ignoreCtx is set.
type fakeTransport struct {
	mu        sync.Mutex
	sent      []sent
	attempts  map[int64]int
	fail      map[int64]bool
	hang      map[int64]bool
	ignoreCtx bool
	selfName  string
	selfErr   error
	release   chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		attempts: make(map[int64]int),
		fail:     make(map[int64]bool),
		hang:     make(map[int64]bool),
		selfName: "alarm_relay_bot",
		release:  make(chan struct{}),
	}
}

func (t *fakeTransport) deliver(ctx context.Context, s sent) error {
	t.mu.Lock()
	t.attempts[s.RecipientID]++
	fail := t.fail[s.RecipientID]
	hang := t.hang[s.RecipientID]
	ignoreCtx := t.ignoreCtx
	t.mu.Unlock()

	if hang {
		if ignoreCtx {
			<-t.release
		} else {
			<-ctx.Done()
			return ctx.Err()
		}
	}
	if fail {
		return errTransport
	}

	t.mu.Lock()
	t.sent = append(t.sent, s)
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) SendText(ctx context.Context, recipientID int64, text string) error {
	return t.deliver(ctx, sent{Method: "text", RecipientID: recipientID, Text: text})
}

func (t *fakeTransport) SendPhoto(ctx context.Context, recipientID int64, fileID, caption string) error {
	return t.deliver(ctx, sent{Method: "photo", RecipientID: recipientID, FileID: fileID, Text: caption})
}

func (t *fakeTransport) SendVideo(ctx context.Context, recipientID int64, fileID, caption string) error {
	return t.deliver(ctx, sent{Method: "video", RecipientID: recipientID, FileID: fileID, Text: caption})
}

func (t *fakeTransport) SelfIdentity(context.Context) (string, error) {
	return t.selfName, t.selfErr
}

func (t *fakeTransport) sentMessages() []sent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := append([]sent(nil), t.sent...)
	sort.Slice(out, func(i, j int) bool { return out[i].RecipientID < out[j].RecipientID })
	return out
}

func (t *fakeTransport) attemptCount(recipientID int64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts[recipientID]
}

func (t *fakeTransport) totalAttempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.attempts {
		n += c
	}
	return n
}

var _ alarm.Transport = (*fakeTransport)(nil)
var _ alarm.Registry = (*fakeRegistry)(nil)
