package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/easeaico/project-pneuma/internal/emotion"
	"github.com/easeaico/project-pneuma/internal/types"
)

// MemoryRepo loads and stores the memory document of a session.
type MemoryRepo interface {
	LoadMemory(ctx context.Context, sessionID string) (*types.MemoryDocument, error)
	SaveMemory(ctx context.Context, sessionID string, doc types.MemoryDocument) error
}

// ConversationRepo loads and stores the conversation document of a session.
type ConversationRepo interface {
	LoadConversations(ctx context.Context, sessionID string) (*types.ConversationDocument, error)
	SaveConversations(ctx context.Context, sessionID string, doc types.ConversationDocument) error
}

// Turn is one finished exchange to record.
type Turn struct {
	ConversationID string
	StartedAt      time.Time
	User           string
	Reply          string
	Vibe           emotion.Vibe
	Awareness      emotion.AwarenessLevel
	At             time.Time
}

// Service applies memory policy and persistence.
type Service struct {
	memories         MemoryRepo
	conversations    ConversationRepo
	insightThreshold float64
}

// NewService returns a memory service. A non-positive threshold uses DefaultInsightThreshold.
func NewService(memories MemoryRepo, conversations ConversationRepo, insightThreshold float64) *Service {
	if insightThreshold <= 0 {
		insightThreshold = DefaultInsightThreshold
	}
	return &Service{
		memories:         memories,
		conversations:    conversations,
		insightThreshold: insightThreshold,
	}
}

// Load returns the memory document for sessionID, or an empty one.
func (s *Service) Load(ctx context.Context, sessionID string) *types.MemoryDocument {
	if s == nil || s.memories == nil {
		return types.NewMemoryDocument()
	}
	doc, err := s.memories.LoadMemory(ctx, sessionID)
	if err != nil {
		slog.Warn("failed to load memory, using empty document", "session_id", sessionID, "error", err.Error())
		return types.NewMemoryDocument()
	}
	if doc == nil {
		return types.NewMemoryDocument()
	}
	return normalizeDocument(doc)
}

// LoadConversations returns the conversation document for sessionID, or an empty one.
func (s *Service) LoadConversations(ctx context.Context, sessionID string) *types.ConversationDocument {
	empty := &types.ConversationDocument{Conversations: []types.Conversation{}}
	if s == nil || s.conversations == nil {
		return empty
	}
	doc, err := s.conversations.LoadConversations(ctx, sessionID)
	if err != nil {
		slog.Warn("failed to load conversations, using empty document", "session_id", sessionID, "error", err.Error())
		return empty
	}
	if doc == nil {
		return empty
	}
	return MergeConversations(doc, nil)
}

// Record adds turn to the short-term buffer and conversation, and keeps it as an insight when salient.
// It reports whether a new insight was stored.
func (s *Service) Record(doc *types.MemoryDocument, conversations *types.ConversationDocument, turn Turn) bool {
	at := turn.At.UnixMilli()
	PushShortTerm(doc, types.ShortTermEntry{
		User:      turn.User,
		Reply:     turn.Reply,
		Vibe:      string(turn.Vibe),
		Timestamp: at,
	})
	AppendExchange(conversations, turn.ConversationID, turn.StartedAt.UnixMilli(), types.Exchange{
		User:      turn.User,
		Reply:     turn.Reply,
		Vibe:      string(turn.Vibe),
		Timestamp: at,
	})

	threshold := DefaultInsightThreshold
	if s != nil {
		threshold = s.insightThreshold
	}
	score := ComputeSalience(SalienceSignals{Message: turn.User, Vibe: turn.Vibe, Awareness: turn.Awareness})
	if score < threshold {
		return false
	}
	return AddInsight(doc, InsightFrom(turn.User))
}

// Save writes the memory document.
func (s *Service) Save(ctx context.Context, sessionID string, doc *types.MemoryDocument) error {
	if s == nil || s.memories == nil {
		return fmt.Errorf("memory service not configured")
	}
	if doc == nil {
		return fmt.Errorf("memory document is nil")
	}
	if err := s.memories.SaveMemory(ctx, sessionID, *doc); err != nil {
		slog.Error("failed to save memory", "session_id", sessionID, "error", err.Error())
		return fmt.Errorf("failed to save memory: %w", err)
	}
	return nil
}

// SaveConversations merges doc with the stored copy and writes the result.
// The merged document is returned so callers can adopt it.
func (s *Service) SaveConversations(ctx context.Context, sessionID string, doc *types.ConversationDocument) (*types.ConversationDocument, error) {
	if s == nil || s.conversations == nil {
		return doc, fmt.Errorf("memory service not configured")
	}
	if doc == nil {
		return nil, fmt.Errorf("conversation document is nil")
	}

	merged := CloneConversations(doc)
	stored, err := s.conversations.LoadConversations(ctx, sessionID)
	if err != nil {
		slog.Warn("failed to read stored conversations before merge", "session_id", sessionID, "error", err.Error())
	} else if stored != nil {
		merged = MergeConversations(merged, stored)
	}

	if err := s.conversations.SaveConversations(ctx, sessionID, *merged); err != nil {
		slog.Error("failed to save conversations", "session_id", sessionID, "error", err.Error())
		return doc, fmt.Errorf("failed to save conversations: %w", err)
	}
	return merged, nil
}
