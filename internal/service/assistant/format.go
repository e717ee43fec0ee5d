package assistant

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sandevgo/medichat/internal/core"
	"github.com/sandevgo/medichat/internal/service/answer"
)

var stripped = strings.NewReplacer("<", "", ">", "", "{", "", "}", "", "[", "", "]", "", "\x00", "")

// SanitizeInput collapses whitespace and drops markup-like characters.
func SanitizeInput(text string) string {
	return strings.TrimSpace(stripped.Replace(strings.Join(strings.Fields(text), " ")))
}

// FormatResponse renders the answer text followed by its cited sources.
func FormatResponse(outcome core.Outcome) string {
	if len(outcome.Citations) == 0 {
		return outcome.Text
	}

	var sb strings.Builder
	sb.WriteString(outcome.Text)
	sb.WriteString("\n\n**Sources:**\n")
	for _, c := range outcome.Citations {
		sb.WriteString("- ")
		sb.WriteString(FormatCitation(c))
		sb.WriteString("\n")
	}
	return sb.String()
}

func FormatCitation(c core.RetrievalResult) string {
	source := c.Metadata.Source()
	if source == "" {
		source = "Unknown"
	}
	chunk := "Unknown"
	if id, ok := c.Metadata.ChunkID(); ok {
		chunk = fmt.Sprint(id)
	}
	if c.Score != nil {
		return fmt.Sprintf("%s (Chunk %s, relevance %.2f)", source, chunk, *c.Score)
	}
	return fmt.Sprintf("%s (Chunk %s)", source, chunk)
}

// FormatError turns a failed turn into a message fit for the user.
func FormatError(err error) string {
	var genErr *answer.GenerationError
	switch {
	case errors.Is(err, ErrEmptyQuery):
		return "Please type a question."
	case errors.As(err, &genErr):
		return fmt.Sprintf("❌ Error generating a %s answer: %v", genErr.Path, genErr.Err)
	default:
		return fmt.Sprintf("❌ An error occurred: %v", err)
	}
}

// Truncate shortens text to at most maxRunes runes including the ellipsis.
func Truncate(text string, maxRunes int) string {
	const suffix = "..."
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	if maxRunes <= len(suffix) {
		return string([]rune(text)[:max(maxRunes, 0)])
	}
	return string([]rune(text)[:maxRunes-len(suffix)]) + suffix
}

// FormatTokenCount renders 950 as "950 tokens" and 12500 as "12.5K tokens".
func FormatTokenCount(count int) string {
	switch {
	case count < 1000:
		return fmt.Sprintf("%d tokens", count)
	case count < 1_000_000:
		return fmt.Sprintf("%.1fK tokens", float64(count)/1000)
	default:
		return fmt.Sprintf("%.1fM tokens", float64(count)/1_000_000)
	}
}
