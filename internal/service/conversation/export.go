package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sandevgo/medichat/internal/core"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var ErrUnknownFormat = errors.New("unknown export format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

type transcript struct {
	ConversationID string         `json:"conversation_id" yaml:"conversation_id"`
	Messages       []core.Message `json:"messages" yaml:"messages"`
}

// Export renders the retained history. Text uses "[HH:MM:SS] ROLE:" headers.
func (c *Conversation) Export(format Format) (string, error) {
	history := c.History()

	switch format {
	case FormatText, "":
		blocks := make([]string, len(history))
		for n, m := range history {
			blocks[n] = fmt.Sprintf("[%s] %s:\n%s\n", m.Timestamp.Format("15:04:05"), strings.ToUpper(string(m.Role)), m.Content)
		}
		return strings.Join(blocks, "\n"), nil
	case FormatJSON:
		data, err := json.MarshalIndent(transcript{ConversationID: c.ID(), Messages: history}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal transcript: %w", err)
		}
		return string(data), nil
	case FormatYAML:
		data, err := yaml.Marshal(transcript{ConversationID: c.ID(), Messages: history})
		if err != nil {
			return "", fmt.Errorf("failed to marshal transcript: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
