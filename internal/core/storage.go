package core

import (
	"context"
	"time"
)

type TranscriptRepository interface {
	SaveMessage(ctx context.Context, conversationID string, msg Message) error
	ListMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)
	ListConversations(ctx context.Context, limit int) ([]ConversationInfo, error)
}

type ConversationInfo struct {
	ID        string    `json:"id"`
	Messages  int       `json:"messages"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
