// Package conversation keeps the per-user, in-memory state of multi-step
// bot conversations: the current stage and the draft collected so far.
package conversation

import "time"

// Stage is the current step of a user's conversation.
type Stage int

const (
	StageIdle Stage = iota
	StageAwaitingGroupCode
	StageAwaitingAlarmText
	StageAwaitingAlarmMedia
)

// String returns a log-friendly stage name.
func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAwaitingGroupCode:
		return "awaiting_group_code"
	case StageAwaitingAlarmText:
		return "awaiting_alarm_text"
	case StageAwaitingAlarmMedia:
		return "awaiting_alarm_media"
	default:
		return "unknown"
	}
}

// MediaKind tags a transport-level media reference.
type MediaKind int

const (
	MediaPhoto MediaKind = iota + 1
	MediaVideo
)

// String returns a log-friendly media kind name.
func (k MediaKind) String() string {
	switch k {
	case MediaPhoto:
		return "photo"
	case MediaVideo:
		return "video"
	default:
		return "unknown"
	}
}

// Media is a single photo or video attachment referenced by its transport file ID.
type Media struct {
	Kind   MediaKind
	FileID string
}

// State is a user's conversation state. Draft fields are only meaningful
// while Stage is not StageIdle.
type State struct {
	Stage Stage

	// Text is the draft alarm body; TextSet tells an explicit empty text
	// (skipped) apart from a text not collected yet.
	Text    string
	TextSet bool
	Media   *Media

	UpdatedAt time.Time
}

// IsIdle reports whether the user is outside any flow.
func (s State) IsIdle() bool {
	return s.Stage == StageIdle
}

func (s State) clone() State {
	if s.Media != nil {
		m := *s.Media
		s.Media = &m
	}
	return s
}
