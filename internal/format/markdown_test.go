package format

import (
	"strings"
	"testing"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestUTF16Len(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"rent", 4},
		{"租金", 2},
		{"🔔 due", 6},
	}
	for _, tt := range tests {
		if got := UTF16Len(tt.in); got != tt.want {
			t.Errorf("UTF16Len(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseMarkdown(t *testing.T) {
	got := ParseMarkdown("🔔 **Due** `#3` Rent\n")

	if got.Text != "🔔 Due #3 Rent" {
		t.Fatalf("text = %q", got.Text)
	}
	if len(got.Entities) != 2 {
		t.Fatalf("entities = %+v", got.Entities)
	}

	bold, code := got.Entities[0], got.Entities[1]
	if bold.Type != "bold" || bold.Offset != 3 || bold.Length != 3 {
		t.Errorf("bold entity = %+v", bold)
	}
	if code.Type != "code" || code.Offset != 7 || code.Length != 2 {
		t.Errorf("code entity = %+v", code)
	}
}

// entityText returns the part of text an entity covers.
func entityText(text string, e tgbotapi.MessageEntity) string {
	units := utf16.Encode([]rune(text))
	if e.Offset < 0 || e.Offset+e.Length > len(units) {
		return "<out of range>"
	}
	return string(utf16.Decode(units[e.Offset : e.Offset+e.Length]))
}

func TestParseMarkdownEntityText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "code before bold",
			in:   "`#1` **Rent** expense",
			want: []string{"code:#1", "bold:Rent"},
		},
		{
			name: "several alert lines",
			in: "🔔 **2 recurring transactions due**\n" +
				"\n`#1` **Rent** expense 900.00 on 2025-03-01\n🔄 every month" +
				"\n`#12` **Phone plan** expense 30.00 on 2025-03-01\n🔄 every month",
			want: []string{"bold:2 recurring transactions due", "code:#1", "bold:Rent", "code:#12", "bold:Phone plan"},
		},
		{
			name: "no markup",
			in:   "plain text",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMarkdown(tt.in)

			var covered []string
			for i, e := range got.Entities {
				if i > 0 && e.Offset < got.Entities[i-1].Offset {
					t.Errorf("entities out of order: %+v", got.Entities)
				}
				covered = append(covered, e.Type+":"+entityText(got.Text, e))
			}
			if strings.Join(covered, "|") != strings.Join(tt.want, "|") {
				t.Errorf("entities cover %q, want %q", covered, tt.want)
			}
			if strings.ContainsAny(got.Text, "`*") {
				t.Errorf("markers left in %q", got.Text)
			}
		})
	}
}
