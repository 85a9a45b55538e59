package alarm

import "github.com/edgard/alarmbot/internal/conversation"

// InputKind classifies an inbound user event.
type InputKind int

const (
	InputText InputKind = iota
	InputMedia
	InputStartSession
	InputShowHelp
	InputChangeGroup
	InputRequestAlarm
	InputCancel
	InputSkipText
	InputSkipMedia
)

// String returns a log-friendly input kind name.
func (k InputKind) String() string {
	switch k {
	case InputText:
		return "text"
	case InputMedia:
		return "media"
	case InputStartSession:
		return "start_session"
	case InputShowHelp:
		return "show_help"
	case InputChangeGroup:
		return "change_group"
	case InputRequestAlarm:
		return "request_alarm"
	case InputCancel:
		return "cancel"
	case InputSkipText:
		return "skip_text"
	case InputSkipMedia:
		return "skip_media"
	default:
		return "unknown"
	}
}

// Sender identifies the user behind an event.
type Sender struct {
	ID          int64
	DisplayName string
}

// Event is one inbound user action.
type Event struct {
	Kind   InputKind
	Sender Sender
	// Text is the message text or caption rendered as HTML.
	Text string
	// Raw is the message text exactly as the user typed it, without formatting.
	Raw   string
	Media *conversation.Media
}

// Keyboard selects the reply keyboard shown with a reply.
type Keyboard int

const (
	KeyboardMain Keyboard = iota
	KeyboardCancel
	KeyboardTextStep
	KeyboardMediaStep
)

// Reply tells the caller what to show the user next.
type Reply struct {
	Text     string
	Keyboard Keyboard
}
