package alarm

import (
	"html"
	"strconv"
	"strings"
)

// FormatAlarm renders the message recipients see. header may reference
// {sender} and {group}; both are HTML-escaped. text is already HTML and is
// appended as-is after a blank line, or omitted when empty.
func FormatAlarm(header, senderName, groupID, text string) string {
	msg := strings.NewReplacer(
		"{sender}", html.EscapeString(senderName),
		"{group}", html.EscapeString(groupID),
	).Replace(header)

	if text == "" {
		return msg
	}
	return msg + "\n\n" + text
}

// formatSent renders the sender's delivery report.
func formatSent(tmpl string, res Result) string {
	return strings.NewReplacer(
		"{sent}", strconv.Itoa(res.Succeeded),
		"{total}", strconv.Itoa(res.Total),
	).Replace(tmpl)
}

// senderLabel falls back to the numeric ID when the sender has no name.
func senderLabel(p Payload) string {
	if p.SenderName != "" {
		return p.SenderName
	}
	return "id" + strconv.FormatInt(p.SenderID, 10)
}
