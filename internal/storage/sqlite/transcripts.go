package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sandevgo/medichat/internal/core"
	"github.com/sandevgo/medichat/pkg/log"
)

// Transcripts stores every conversation turn so sessions can be reviewed
// after the process exits.
type Transcripts struct {
	db *sql.DB
}

func NewTranscripts(db *sql.DB) *Transcripts {
	return &Transcripts{db: db}
}

func (t *Transcripts) SaveMessage(ctx context.Context, conversationID string, msg core.Message) error {
	sources := ""
	if len(msg.Sources) > 0 {
		data, err := json.Marshal(msg.Sources)
		if err != nil {
			return fmt.Errorf("failed to marshal sources: %w", err)
		}
		sources = string(data)
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query := `INSERT INTO messages (conversation_id, role, content, sources, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := t.db.ExecContext(ctx, query, conversationID, string(msg.Role), msg.Content, sources, ts.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListMessages returns the last limit messages of a conversation, oldest first.
func (t *Transcripts) ListMessages(ctx context.Context, conversationID string, limit int) ([]core.Message, error) {
	query := `SELECT role, content, sources, created_at FROM messages WHERE conversation_id = ? ORDER BY id DESC LIMIT ?`

	rows, err := t.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []core.Message
	for rows.Next() {
		var msg core.Message
		var role, sources string

		if err := rows.Scan(&role, &msg.Content, &sources, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		msg.Role, err = core.ParseRole(role)
		if err != nil {
			return nil, err
		}
		if sources != "" {
			if err := json.Unmarshal([]byte(sources), &msg.Sources); err != nil {
				return nil, fmt.Errorf("failed to unmarshal sources: %w", err)
			}
		}

		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// newest first from the query, callers want chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	log.FromCtx(ctx).Debug().Int("count", len(messages)).Msg("loaded transcript messages")
	return messages, nil
}

// ListConversations returns the most recently active conversations first.
func (t *Transcripts) ListConversations(ctx context.Context, limit int) ([]core.ConversationInfo, error) {
	query := `SELECT conversation_id, COUNT(*), MIN(created_at), MAX(created_at), MAX(id) AS last_id
		FROM messages GROUP BY conversation_id ORDER BY last_id DESC LIMIT ?`

	rows, err := t.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var infos []core.ConversationInfo
	for rows.Next() {
		var info core.ConversationInfo
		var started, updated string
		var lastID int64
		if err := rows.Scan(&info.ID, &info.Messages, &started, &updated, &lastID); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		info.StartedAt = parseTime(started)
		info.UpdatedAt = parseTime(updated)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// aggregates lose the DATETIME column type, so go-sqlite3 hands back text
func parseTime(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		time.RFC3339Nano,
	} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
