// Package text converts Telegram message formatting into HTML parse mode.
package text

import (
	"html"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/go-telegram/bot/models"
)

// RenderHTML returns text with its formatting entities applied as Telegram
// HTML. Entity offsets and lengths are in UTF-16 code units. Entities with
// no HTML form (mentions, hashtags, plain URLs, commands) and entities out
// of range are dropped, leaving their text escaped.
func RenderHTML(text string, entities []models.MessageEntity) string {
	units := utf16.Encode([]rune(text))
	ents := formattingEntities(entities, len(units))
	if len(ents) == 0 {
		return html.EscapeString(text)
	}

	var b strings.Builder
	b.Grow(len(text) + len(ents)*16)

	var stack []models.MessageEntity
	next := 0
	for pos := 0; ; {
		stack = closeAt(&b, stack, pos)

		for next < len(ents) && ents[next].Offset == pos {
			b.WriteString(openTag(ents[next]))
			stack = append(stack, ents[next])
			next++
		}

		if pos == len(units) {
			break
		}

		end := len(units)
		if next < len(ents) && ents[next].Offset < end {
			end = ents[next].Offset
		}
		for _, e := range stack {
			if e.Offset+e.Length < end {
				end = e.Offset + e.Length
			}
		}

		b.WriteString(html.EscapeString(string(utf16.Decode(units[pos:end]))))
		pos = end
	}

	return b.String()
}

// formattingEntities keeps renderable in-range entities ordered so that an
// outer entity opens before the entities it contains.
func formattingEntities(entities []models.MessageEntity, n int) []models.MessageEntity {
	out := make([]models.MessageEntity, 0, len(entities))
	for _, e := range entities {
		if e.Offset < 0 || e.Length <= 0 || e.Offset+e.Length > n {
			continue
		}
		if openTag(e) == "" {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Offset != out[j].Offset {
			return out[i].Offset < out[j].Offset
		}
		return out[i].Length > out[j].Length
	})
	return out
}

// closeAt closes every open entity ending at pos. Inner entities that are
// still open when an outer one ends are closed and reopened so tags always
// nest.
func closeAt(b *strings.Builder, stack []models.MessageEntity, pos int) []models.MessageEntity {
	for {
		idx := -1
		for i, e := range stack {
			if e.Offset+e.Length == pos {
				idx = i
				break
			}
		}
		if idx < 0 {
			return stack
		}

		var reopen []models.MessageEntity
		for i := len(stack) - 1; i >= idx; i-- {
			b.WriteString(closeTag(stack[i]))
			if i > idx && stack[i].Offset+stack[i].Length != pos {
				reopen = append(reopen, stack[i])
			}
		}
		stack = stack[:idx]
		for i := len(reopen) - 1; i >= 0; i-- {
			b.WriteString(openTag(reopen[i]))
			stack = append(stack, reopen[i])
		}
	}
}

func openTag(e models.MessageEntity) string {
	switch string(e.Type) {
	case "bold":
		return "<b>"
	case "italic":
		return "<i>"
	case "underline":
		return "<u>"
	case "strikethrough":
		return "<s>"
	case "spoiler":
		return "<tg-spoiler>"
	case "code":
		return "<code>"
	case "pre":
		if e.Language != "" {
			return `<pre><code class="language-` + html.EscapeString(e.Language) + `">`
		}
		return "<pre>"
	case "text_link":
		if e.URL == "" {
			return ""
		}
		return `<a href="` + html.EscapeString(e.URL) + `">`
	case "text_mention":
		if e.User == nil {
			return ""
		}
		return `<a href="tg://user?id=` + strconv.FormatInt(e.User.ID, 10) + `">`
	case "blockquote":
		return "<blockquote>"
	case "expandable_blockquote":
		return "<blockquote expandable>"
	default:
		return ""
	}
}

func closeTag(e models.MessageEntity) string {
	switch string(e.Type) {
	case "bold":
		return "</b>"
	case "italic":
		return "</i>"
	case "underline":
		return "</u>"
	case "strikethrough":
		return "</s>"
	case "spoiler":
		return "</tg-spoiler>"
	case "code":
		return "</code>"
	case "pre":
		if e.Language != "" {
			return "</code></pre>"
		}
		return "</pre>"
	case "text_link", "text_mention":
		return "</a>"
	case "blockquote", "expandable_blockquote":
		return "</blockquote>"
	default:
		return ""
	}
}
