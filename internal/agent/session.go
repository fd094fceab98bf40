package agent

import (
	"sync"
	"time"

	"github.com/easeaico/project-pneuma/internal/emotion"
	"github.com/easeaico/project-pneuma/internal/types"
)

// session is the live state of one conversation partner. Turns hold mu for their whole duration.
type session struct {
	mu sync.Mutex

	id            string
	loaded        bool
	state         types.PersonalityState
	awareness     emotion.AwarenessState
	memory        *types.MemoryDocument
	conversations *types.ConversationDocument

	// dirty is set by a turn and cleared once every document reached the store.
	dirty bool

	// conversationID names the conversation this process appends to.
	conversationID string
	startedAt      time.Time
	turns          int
}

// registry hands out one session per id.
type registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*session)}
}

// get returns the session for id, creating it on first use.
func (r *registry) get(id string) *session {
	r.mu.RLock()
	s := r.sessions[id]
	r.mu.RUnlock()
	if s != nil {
		return s
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s = r.sessions[id]; s != nil {
		return s
	}
	s = &session{id: id}
	r.sessions[id] = s
	return s
}

// all returns a snapshot of the registered sessions.
func (r *registry) all() []*session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// count returns the number of registered sessions.
func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
