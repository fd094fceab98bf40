package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/easeaico/project-pneuma/internal/types"
)

// ErrCorrupt marks a stored document that could not be decoded.
var ErrCorrupt = errors.New("corrupt document")

// Store persists the per-session documents. Loads return (nil, nil) when nothing is stored.
type Store interface {
	LoadState(ctx context.Context, sessionID string) (*types.PersonalityState, error)
	SaveState(ctx context.Context, sessionID string, state types.PersonalityState) error
	LoadMemory(ctx context.Context, sessionID string) (*types.MemoryDocument, error)
	SaveMemory(ctx context.Context, sessionID string, doc types.MemoryDocument) error
	LoadConversations(ctx context.Context, sessionID string) (*types.ConversationDocument, error)
	SaveConversations(ctx context.Context, sessionID string, doc types.ConversationDocument) error
	Close() error
}

const (
	kindState         = "state"
	kindMemory        = "memory"
	kindConversations = "conversations"
)

func documentKey(kind, sessionID string) string {
	return kind + "/" + sessionID
}

// decodeDocument unmarshals raw into a new T, wrapping failures in ErrCorrupt.
func decodeDocument[T any](raw []byte, kind, sessionID string) (*T, error) {
	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s document for session %s: %w: %w", kind, sessionID, ErrCorrupt, err)
	}
	return &doc, nil
}

func encodeDocument(doc any, kind, sessionID string) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s document for session %s: %w", kind, sessionID, err)
	}
	return raw, nil
}
