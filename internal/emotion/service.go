package emotion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/easeaico/project-pneuma/internal/types"
)

// StateRepo loads and stores personality state per session.
type StateRepo interface {
	LoadState(ctx context.Context, sessionID string) (*types.PersonalityState, error)
	SaveState(ctx context.Context, sessionID string, state types.PersonalityState) error
}

// Service reads and writes personality state, substituting defaults for missing or unreadable documents.
type Service struct {
	stateMachine *StateMachine
	states       StateRepo
}

// NewService returns a new emotion service.
func NewService(stateMachine *StateMachine, states StateRepo) *Service {
	return &Service{
		stateMachine: stateMachine,
		states:       states,
	}
}

// Load returns the stored state for sessionID, or the default state.
func (s *Service) Load(ctx context.Context, sessionID string) types.PersonalityState {
	if s == nil || s.states == nil {
		return types.DefaultPersonalityState()
	}
	state, err := s.states.LoadState(ctx, sessionID)
	if err != nil {
		slog.Warn("failed to load personality state, using default", "session_id", sessionID, "error", err.Error())
		return types.DefaultPersonalityState()
	}
	if state == nil {
		return types.DefaultPersonalityState()
	}
	return normalize(*state)
}

// Evolve applies message to state.
func (s *Service) Evolve(state types.PersonalityState, message string) types.PersonalityState {
	if s == nil || s.stateMachine == nil {
		return NewStateMachine().Evolve(state, message)
	}
	return s.stateMachine.Evolve(state, message)
}

// Save writes state. Failures are logged and returned; callers keep the in-memory state.
func (s *Service) Save(ctx context.Context, sessionID string, state types.PersonalityState) error {
	if s == nil || s.states == nil {
		return fmt.Errorf("emotion service not configured")
	}
	if err := s.states.SaveState(ctx, sessionID, state); err != nil {
		slog.Error("failed to save personality state", "session_id", sessionID, "error", err.Error())
		return fmt.Errorf("failed to save personality state: %w", err)
	}
	return nil
}

// normalize repairs out-of-range values from hand-edited or older documents.
func normalize(s types.PersonalityState) types.PersonalityState {
	s = s.Clone()
	s.Clarity = Clamp01(s.Clarity)
	s.Drift = Clamp01(s.Drift)
	s.Energy = Clamp01(s.Energy)
	s.CasualWeight = Clamp01(s.CasualWeight)
	s.MythicWeight = Clamp01(s.MythicWeight)
	s.AnalyticWeight = Clamp01(s.AnalyticWeight)
	s.NuminousSensitivity = Clamp01(s.NuminousSensitivity)
	if s.ToneBias == "" {
		s.ToneBias = "balanced"
	}
	if len(s.Memories) > types.MaxStateMemories {
		s.Memories = s.Memories[len(s.Memories)-types.MaxStateMemories:]
	}
	return s
}
