package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/easeaico/project-pneuma/internal/types"
)

// personalityStateModel maps to the personality_states table.
type personalityStateModel struct {
	SessionID           string `gorm:"primaryKey"`
	Clarity             float64
	Drift               float64
	Energy              float64
	CasualWeight        float64
	MythicWeight        float64
	AnalyticWeight      float64
	NuminousSensitivity float64
	ToneBias            string
	// Memories holds the recent message snippets as a JSON array.
	Memories  json.RawMessage `gorm:"type:jsonb"`
	UpdatedAt time.Time
}

func (personalityStateModel) TableName() string {
	return "personality_states"
}

// sessionMemoryModel maps to the session_memories table.
type sessionMemoryModel struct {
	SessionID string          `gorm:"primaryKey"`
	ShortTerm json.RawMessage `gorm:"type:jsonb"`
	LongTerm  json.RawMessage `gorm:"type:jsonb"`
	UpdatedAt time.Time
}

func (sessionMemoryModel) TableName() string {
	return "session_memories"
}

// conversationModel maps to the conversations table, one row per conversation.
type conversationModel struct {
	ID        string `gorm:"primaryKey"`
	SessionID string `gorm:"index"`
	StartedAt int64
	Exchanges json.RawMessage `gorm:"type:jsonb"`
	UpdatedAt time.Time
}

func (conversationModel) TableName() string {
	return "conversations"
}

func stateToModel(sessionID string, state types.PersonalityState) (personalityStateModel, error) {
	memories, err := marshalJSON(state.Memories)
	if err != nil {
		return personalityStateModel{}, fmt.Errorf("failed to encode state memories: %w", err)
	}
	return personalityStateModel{
		SessionID:           sessionID,
		Clarity:             state.Clarity,
		Drift:               state.Drift,
		Energy:              state.Energy,
		CasualWeight:        state.CasualWeight,
		MythicWeight:        state.MythicWeight,
		AnalyticWeight:      state.AnalyticWeight,
		NuminousSensitivity: state.NuminousSensitivity,
		ToneBias:            state.ToneBias,
		Memories:            memories,
	}, nil
}

func stateFromModel(model personalityStateModel) (*types.PersonalityState, error) {
	var memories []string
	if err := unmarshalJSON(model.Memories, &memories); err != nil {
		return nil, fmt.Errorf("failed to decode state memories for session %s: %w: %w", model.SessionID, ErrCorrupt, err)
	}
	return &types.PersonalityState{
		Clarity:             model.Clarity,
		Drift:               model.Drift,
		Energy:              model.Energy,
		CasualWeight:        model.CasualWeight,
		MythicWeight:        model.MythicWeight,
		AnalyticWeight:      model.AnalyticWeight,
		NuminousSensitivity: model.NuminousSensitivity,
		ToneBias:            model.ToneBias,
		Memories:            memories,
	}, nil
}

func memoryToModel(sessionID string, doc types.MemoryDocument) (sessionMemoryModel, error) {
	shortTerm, err := marshalJSON(doc.ShortTerm)
	if err != nil {
		return sessionMemoryModel{}, fmt.Errorf("failed to encode short-term memory: %w", err)
	}
	longTerm, err := marshalJSON(doc.LongTerm)
	if err != nil {
		return sessionMemoryModel{}, fmt.Errorf("failed to encode long-term memory: %w", err)
	}
	return sessionMemoryModel{SessionID: sessionID, ShortTerm: shortTerm, LongTerm: longTerm}, nil
}

func memoryFromModel(model sessionMemoryModel) (*types.MemoryDocument, error) {
	doc := types.NewMemoryDocument()
	if err := unmarshalJSON(model.ShortTerm, &doc.ShortTerm); err != nil {
		return nil, fmt.Errorf("failed to decode short-term memory for session %s: %w: %w", model.SessionID, ErrCorrupt, err)
	}
	if err := unmarshalJSON(model.LongTerm, &doc.LongTerm); err != nil {
		return nil, fmt.Errorf("failed to decode long-term memory for session %s: %w: %w", model.SessionID, ErrCorrupt, err)
	}
	return doc, nil
}

func conversationsToModels(sessionID string, doc types.ConversationDocument) ([]conversationModel, error) {
	models := make([]conversationModel, 0, len(doc.Conversations))
	for _, conv := range doc.Conversations {
		exchanges, err := marshalJSON(conv.Exchanges)
		if err != nil {
			return nil, fmt.Errorf("failed to encode conversation %s: %w", conv.ID, err)
		}
		models = append(models, conversationModel{
			ID:        conv.ID,
			SessionID: sessionID,
			StartedAt: conv.StartedAt,
			Exchanges: exchanges,
		})
	}
	return models, nil
}

func conversationsFromModels(models []conversationModel) (*types.ConversationDocument, error) {
	doc := &types.ConversationDocument{Conversations: make([]types.Conversation, 0, len(models))}
	for _, model := range models {
		var exchanges []types.Exchange
		if err := unmarshalJSON(model.Exchanges, &exchanges); err != nil {
			return nil, fmt.Errorf("failed to decode conversation %s: %w: %w", model.ID, ErrCorrupt, err)
		}
		doc.Conversations = append(doc.Conversations, types.Conversation{
			ID:        model.ID,
			StartedAt: model.StartedAt,
			Exchanges: exchanges,
		})
	}
	return doc, nil
}

// marshalJSON encodes a value into JSONB, returning nil for empty values.
func marshalJSON(value any) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

// unmarshalJSON decodes JSONB into the provided target.
func unmarshalJSON(data json.RawMessage, target any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}
