package storage

import (
	"context"
	"sync"

	"github.com/easeaico/project-pneuma/internal/types"
)

// MemoryStore keeps encoded documents in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) get(ctx context.Context, kind, sessionID string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.docs[documentKey(kind, sessionID)]
	return raw, ok, nil
}

func (s *MemoryStore) put(ctx context.Context, kind, sessionID string, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := encodeDocument(doc, kind, sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[documentKey(kind, sessionID)] = raw
	return nil
}

func (s *MemoryStore) LoadState(ctx context.Context, sessionID string) (*types.PersonalityState, error) {
	raw, ok, err := s.get(ctx, kindState, sessionID)
	if err != nil || !ok {
		return nil, err
	}
	return decodeDocument[types.PersonalityState](raw, kindState, sessionID)
}

func (s *MemoryStore) SaveState(ctx context.Context, sessionID string, state types.PersonalityState) error {
	return s.put(ctx, kindState, sessionID, state)
}

func (s *MemoryStore) LoadMemory(ctx context.Context, sessionID string) (*types.MemoryDocument, error) {
	raw, ok, err := s.get(ctx, kindMemory, sessionID)
	if err != nil || !ok {
		return nil, err
	}
	return decodeDocument[types.MemoryDocument](raw, kindMemory, sessionID)
}

func (s *MemoryStore) SaveMemory(ctx context.Context, sessionID string, doc types.MemoryDocument) error {
	return s.put(ctx, kindMemory, sessionID, doc)
}

func (s *MemoryStore) LoadConversations(ctx context.Context, sessionID string) (*types.ConversationDocument, error) {
	raw, ok, err := s.get(ctx, kindConversations, sessionID)
	if err != nil || !ok {
		return nil, err
	}
	return decodeDocument[types.ConversationDocument](raw, kindConversations, sessionID)
}

func (s *MemoryStore) SaveConversations(ctx context.Context, sessionID string, doc types.ConversationDocument) error {
	return s.put(ctx, kindConversations, sessionID, doc)
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
