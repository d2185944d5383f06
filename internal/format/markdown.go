package format

import (
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ParseResult contains plain text and message entities
type ParseResult struct {
	Text     string
	Entities []tgbotapi.MessageEntity
}

// UTF16Len returns the length of s in UTF-16 code units, which is what
// Telegram entity offsets are measured in.
func UTF16Len(s string) int {
	length := 0
	for _, b := range []byte(s) {
		if (b & 0xc0) != 0x80 {
			if b >= 0xf0 {
				length += 2
			} else {
				length++
			}
		}
	}
	return length
}

var markupRe = regexp.MustCompile(`\*\*(.+?)\*\*|` + "`([^`]+?)`")

// ParseMarkdown strips **bold** and `code` markers from text and returns the
// matching Telegram entities, ordered by offset. Markers are consumed left to
// right, so every entity offset is measured against the final text.
func ParseMarkdown(text string) ParseResult {
	var (
		entities []tgbotapi.MessageEntity
		out      strings.Builder
		rest     = text
	)

	for {
		loc := markupRe.FindStringSubmatchIndex(rest)
		if loc == nil {
			out.WriteString(rest)
			break
		}

		out.WriteString(rest[:loc[0]])

		kind, inner := "bold", ""
		if loc[2] != -1 {
			inner = rest[loc[2]:loc[3]]
		} else {
			kind, inner = "code", rest[loc[4]:loc[5]]
		}

		entities = append(entities, tgbotapi.MessageEntity{
			Type:   kind,
			Offset: UTF16Len(out.String()),
			Length: UTF16Len(inner),
		})
		out.WriteString(inner)
		rest = rest[loc[1]:]
	}

	return ParseResult{
		Text:     strings.TrimRight(out.String(), " \n"),
		Entities: entities,
	}
}
