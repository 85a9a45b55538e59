// Package alarm implements the group alarm relay: the conversation flow that
// registers users into groups and composes alarms across several turns, and
// the dispatcher that fans a finished alarm out to the rest of the group.
package alarm

import (
	"context"

	"github.com/edgard/alarmbot/internal/conversation"
	"github.com/edgard/alarmbot/internal/database"
)

// Transport delivers messages to end users. Each call blocks until the
// message is accepted or rejected by the channel.
type Transport interface {
	SendText(ctx context.Context, recipientID int64, text string) error
	SendPhoto(ctx context.Context, recipientID int64, fileID, caption string) error
	SendVideo(ctx context.Context, recipientID int64, fileID, caption string) error

	// SelfIdentity returns the bot's public username.
	SelfIdentity(ctx context.Context) (string, error)
}

// Registry is the subset of the user registry the relay needs.
type Registry interface {
	UpsertUser(ctx context.Context, user *database.User) error
	// GetUserGroup returns "" when the user has no group.
	GetUserGroup(ctx context.Context, userID int64) (string, error)
	GetUsersByGroup(ctx context.Context, groupID string) ([]database.User, error)
}

// Payload is a composed alarm ready to be broadcast.
type Payload struct {
	SenderID   int64
	SenderName string
	GroupID    string
	Text       string // HTML, may be empty
	Media      *conversation.Media
}

// Result summarizes one broadcast.
type Result struct {
	ID        string
	Total     int
	Succeeded int
}

// Failed returns how many recipients did not get the alarm.
func (r Result) Failed() int {
	return r.Total - r.Succeeded
}
