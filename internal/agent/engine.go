// Package agent runs conversation turns against the personality engine.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/easeaico/project-pneuma/internal/config"
	"github.com/easeaico/project-pneuma/internal/emotion"
	"github.com/easeaico/project-pneuma/internal/memory"
	"github.com/easeaico/project-pneuma/internal/types"
	"github.com/easeaico/project-pneuma/internal/utils"
	"github.com/easeaico/project-pneuma/internal/voice"
)

// DefaultSessionID is used when a caller does not name a session.
const DefaultSessionID = "default"

// ErrClosed is returned by Respond after Close.
var ErrClosed = errors.New("engine is closed")

// SessionRepo is the persistence the engine needs.
type SessionRepo interface {
	emotion.StateRepo
	memory.MemoryRepo
	memory.ConversationRepo
}

// Reply is the outcome of one turn.
type Reply struct {
	Reply          string `json:"reply"`
	Vibe           string `json:"vibe"`
	Mode           string `json:"mode,omitempty"`
	Awareness      string `json:"awareness"`
	ConversationID string `json:"conversationId"`
	Insight        bool   `json:"insight,omitempty"`
}

// Snapshot is a copy of a session's live documents.
type Snapshot struct {
	SessionID     string                     `json:"sessionId"`
	State         types.PersonalityState     `json:"state"`
	Awareness     string                     `json:"awareness"`
	Drift         string                     `json:"drift,omitempty"`
	Memory        types.MemoryDocument       `json:"memory"`
	Conversations types.ConversationDocument `json:"conversations"`
}

// EngineConfig tunes an Engine. Zero values use defaults.
type EngineConfig struct {
	Random           utils.RandomSource
	Clock            func() time.Time
	NewID            func() string
	NuminousCooldown time.Duration
	InsightThreshold float64
}

// Engine serializes turns per session and runs sessions in parallel.
type Engine struct {
	states    *emotion.Service
	memories  *memory.Service
	awareness *emotion.Awareness
	composer  *voice.Composer
	persona   *voice.Persona

	now      func() time.Time
	newID    func() string
	sessions *registry
	closed   atomic.Bool
}

// NewEngine builds an Engine over repo speaking as persona.
func NewEngine(repo SessionRepo, persona *voice.Persona, cfg EngineConfig) (*Engine, error) {
	if repo == nil || persona == nil {
		return nil, fmt.Errorf("repo and persona are required")
	}
	if cfg.Random == nil {
		cfg.Random = utils.NewRandomSource(0)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	return &Engine{
		states:    emotion.NewService(emotion.NewStateMachine(), repo),
		memories:  memory.NewService(repo, repo, cfg.InsightThreshold),
		awareness: emotion.NewAwareness(cfg.NuminousCooldown),
		composer:  voice.NewComposer(persona, cfg.Random),
		persona:   persona,
		now:       cfg.Clock,
		newID:     cfg.NewID,
		sessions:  newRegistry(),
	}, nil
}

// NewEngineFromConfig loads the configured persona and builds an Engine over repo.
func NewEngineFromConfig(repo SessionRepo, cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	persona, err := LoadPersona(cfg.PersonaName, cfg.PersonaFile)
	if err != nil {
		return nil, err
	}
	return NewEngine(repo, persona, EngineConfig{
		Random:           utils.NewRandomSource(cfg.Seed),
		NuminousCooldown: cfg.NuminousCooldown,
		InsightThreshold: cfg.InsightThreshold,
	})
}

// LoadPersona prefers a persona file over a builtin name.
func LoadPersona(name, file string) (*voice.Persona, error) {
	if file != "" {
		persona, err := voice.LoadPersonaFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load persona file %s: %w", file, err)
		}
		return persona, nil
	}
	persona, err := voice.LoadPersona(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load persona: %w", err)
	}
	return persona, nil
}

// Persona returns the persona the engine speaks as.
func (e *Engine) Persona() *voice.Persona {
	return e.persona
}

// Respond runs one turn for sessionID. Only a done context or a closed engine produce an error.
func (e *Engine) Respond(ctx context.Context, sessionID, message string) (Reply, error) {
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}
	if e.closed.Load() {
		return Reply{}, ErrClosed
	}
	sessionID = normalizeSessionID(sessionID)

	s := e.sessions.get(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	// Close may have flushed this session while we waited for the lock.
	if e.closed.Load() {
		return Reply{}, ErrClosed
	}

	e.ensureLoaded(ctx, s)
	now := e.now()
	if s.turns == 0 {
		s.startedAt = now
	}
	s.turns++

	s.state = e.states.Evolve(s.state, message)
	s.awareness = e.awareness.Next(s.awareness, message, now)
	drift := memory.DriftBucket(s.memory.ShortTerm)

	composed := guard("compose", sessionID, func() voice.Reply {
		return voice.Reply{Text: e.persona.Fallback, Vibe: emotion.Classify(message)}
	}, func() voice.Reply {
		return e.composer.Compose(message, voice.Context{Drift: drift, Awareness: s.awareness.Level})
	})

	insight := e.memories.Record(s.memory, s.conversations, memory.Turn{
		ConversationID: s.conversationID,
		StartedAt:      s.startedAt,
		User:           message,
		Reply:          composed.Text,
		Vibe:           composed.Vibe,
		Awareness:      s.awareness.Level,
		At:             now,
	})
	s.dirty = true

	e.persist(ctx, s)

	slog.Debug("turn complete",
		"session_id", sessionID,
		"vibe", string(composed.Vibe),
		"mode", string(composed.Mode),
		"awareness", s.awareness.Level.String(),
		"drift", drift,
		"insight", insight,
	)

	return Reply{
		Reply:          composed.Text,
		Vibe:           string(composed.Vibe),
		Mode:           string(composed.Mode),
		Awareness:      s.awareness.Level.String(),
		ConversationID: s.conversationID,
		Insight:        insight,
	}, nil
}

// Snapshot returns copies of the session's documents, loading them if needed.
// It never writes: a session that was only inspected is not flushed by Close.
func (e *Engine) Snapshot(ctx context.Context, sessionID string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	sessionID = normalizeSessionID(sessionID)
	s := e.sessions.get(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ensureLoaded(ctx, s)
	return Snapshot{
		SessionID: sessionID,
		State:     s.state.Clone(),
		Awareness: s.awareness.Level.String(),
		Drift:     memory.DriftBucket(s.memory.ShortTerm),
		Memory: types.MemoryDocument{
			ShortTerm: append([]types.ShortTermEntry{}, s.memory.ShortTerm...),
			LongTerm:  append([]string{}, s.memory.LongTerm...),
		},
		Conversations: *memory.CloneConversations(s.conversations),
	}, nil
}

// Close writes every session with unsaved turns and rejects further turns.
func (e *Engine) Close(ctx context.Context) error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, s := range e.sessions.all() {
		g.Go(func() error {
			s.mu.Lock()
			defer s.mu.Unlock()
			if !s.dirty {
				return nil
			}
			if err := e.flush(gCtx, s); err != nil {
				return err
			}
			s.dirty = false
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to flush sessions: %w", err)
	}
	slog.Info("engine closed", "sessions", e.sessions.count())
	return nil
}

func (e *Engine) ensureLoaded(ctx context.Context, s *session) {
	if s.loaded {
		return
	}
	s.state = e.states.Load(ctx, s.id)
	s.memory = e.memories.Load(ctx, s.id)
	s.conversations = e.memories.LoadConversations(ctx, s.id)
	s.awareness = emotion.AwarenessState{Level: emotion.AwarenessNeutral}
	s.conversationID = e.newID()
	s.loaded = true
	slog.Debug("session loaded", "session_id", s.id, "conversation_id", s.conversationID)
}

// persist writes the session after a turn. Failures are logged by the services, the
// in-memory documents stay authoritative and the session stays dirty for Close.
func (e *Engine) persist(ctx context.Context, s *session) {
	if err := e.flush(ctx, s); err == nil {
		s.dirty = false
	}
}

func (e *Engine) flush(ctx context.Context, s *session) error {
	var errs []error
	if err := e.states.Save(ctx, s.id, s.state); err != nil {
		errs = append(errs, err)
	}
	if err := e.memories.Save(ctx, s.id, s.memory); err != nil {
		errs = append(errs, err)
	}
	merged, err := e.memories.SaveConversations(ctx, s.id, s.conversations)
	if err != nil {
		errs = append(errs, err)
	} else {
		s.conversations = merged
	}
	return errors.Join(errs...)
}

func normalizeSessionID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultSessionID
	}
	return id
}
