package core

import (
	"errors"
	"fmt"
	"maps"
	"time"
)

const (
	AppName          = "MediChat"
	AppUserAgent     = "MediChat/0.1"
	AppRepositoryURL = "https://github.com/sandevgo/medichat"
	AppVersion       = "0.1.0"
)

// Role of a conversation participant. Only user and assistant are valid.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var ErrInvalidRole = errors.New("invalid message role")

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleAssistant:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// Well-known metadata keys attached to every chunk.
const (
	MetaSource  = "source"
	MetaType    = "type"
	MetaChunkID = "chunk_id"
)

type Metadata map[string]any

// Clone copies the top-level map so callers cannot mutate index-owned metadata.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return Metadata{}
	}
	return maps.Clone(m)
}

func (m Metadata) Source() string {
	s, _ := m[MetaSource].(string)
	return s
}

func (m Metadata) Type() string {
	s, _ := m[MetaType].(string)
	return s
}

// ChunkID returns the per-source chunk sequence number and whether it was set.
// Numbers decoded from JSON arrive as float64, so both are accepted.
func (m Metadata) ChunkID() (int, bool) {
	switch v := m[MetaChunkID].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// Chunk is a bounded span of source text plus provenance metadata.
type Chunk struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

func NewChunk(content, source, docType string, chunkID int) Chunk {
	return Chunk{
		Content: content,
		Metadata: Metadata{
			MetaSource:  source,
			MetaType:    docType,
			MetaChunkID: chunkID,
		},
	}
}

// RetrievalResult is a chunk returned by a search. A nil Score means the
// relevance is unknown, not zero.
type RetrievalResult struct {
	Content  string   `json:"content" yaml:"content"`
	Metadata Metadata `json:"metadata" yaml:"metadata"`
	Score    *float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

type Message struct {
	Role      Role              `json:"role" yaml:"role"`
	Content   string            `json:"content" yaml:"content"`
	Timestamp time.Time         `json:"timestamp" yaml:"timestamp"`
	Sources   []RetrievalResult `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// NewMessage validates the role and stamps the message with the current time.
func NewMessage(role Role, content string, sources ...RetrievalResult) (Message, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return Message{}, err
	}
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Sources:   sources,
	}, nil
}

type Intent int

const (
	IntentGeneral Intent = iota
	IntentGreeting
	IntentFarewell
	IntentUnclear
	IntentDocumentTargeted
)

func (i Intent) String() string {
	switch i {
	case IntentGreeting:
		return "greeting"
	case IntentFarewell:
		return "farewell"
	case IntentUnclear:
		return "unclear"
	case IntentDocumentTargeted:
		return "document_targeted"
	default:
		return "general"
	}
}
