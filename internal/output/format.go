// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"notelog/internal/notelog"
)

const (
	// NoteSeparator is the line printed between notes.
	NoteSeparator = "----------"

	// EmptyNote stands in for a note with no visible text.
	EmptyNote = "(empty)"
)

// FormatNotes prints items in the given order, separated by NoteSeparator.
func FormatNotes(w io.Writer, items []notelog.NoteItem) {
	for i, item := range items {
		if i > 0 {
			fmt.Fprintln(w, NoteSeparator)
		}
		FormatNote(w, item)
	}
}

// FormatNote prints one note followed by a newline.
// Whitespace-only notes become "(empty)"; line breaks are kept.
func FormatNote(w io.Writer, item notelog.NoteItem) {
	fmt.Fprintln(w, normalizeNote(item.Value))
}

// normalizeNote normalizes a note for display.
// - Empty or whitespace-only notes become "(empty)"
// - CRLF line endings become LF and trailing line breaks are dropped
func normalizeNote(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimRight(text, "\n")

	if strings.TrimSpace(text) == "" {
		return EmptyNote
	}
	return text
}
