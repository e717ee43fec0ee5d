package conversation

import (
	"fmt"
	"time"

	"github.com/sandevgo/medichat/internal/core"
)

type Summary struct {
	ConversationID    string        `json:"conversation_id" yaml:"conversation_id"`
	TotalMessages     int           `json:"total_messages" yaml:"total_messages"`
	UserMessages      int           `json:"user_messages" yaml:"user_messages"`
	AssistantMessages int           `json:"assistant_messages" yaml:"assistant_messages"`
	Sources           []string      `json:"sources" yaml:"sources"`
	StartedAt         time.Time     `json:"started_at" yaml:"started_at"`
	Duration          time.Duration `json:"-" yaml:"-"`
	DurationText      string        `json:"duration" yaml:"duration"`
}

func (c *Conversation) Summary() Summary {
	d := c.now().Sub(c.StartedAt())
	return Summary{
		ConversationID:    c.ID(),
		TotalMessages:     c.Count(),
		UserMessages:      c.CountByRole(core.RoleUser),
		AssistantMessages: c.CountByRole(core.RoleAssistant),
		Sources:           c.Sources(),
		StartedAt:         c.StartedAt(),
		Duration:          d,
		DurationText:      FormatDuration(d),
	}
}

// FormatDuration renders "1h 5m", "3m 20s" or "42s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := total % 3600 / 60
	seconds := total % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
