package types

import "encoding/json"

const (
	// MaxShortTerm caps recent exchanges.
	MaxShortTerm = 10
	// MaxLongTerm caps stored insights.
	MaxLongTerm = 50
)

// ShortTermEntry is one remembered exchange. Timestamp is epoch milliseconds.
type ShortTermEntry struct {
	User      string `json:"user"`
	Reply     string `json:"reply"`
	Vibe      string `json:"vibe,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// UnmarshalJSON also accepts the older "pneuma" key for the reply text.
func (e *ShortTermEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		User      string `json:"user"`
		Reply     string `json:"reply"`
		Pneuma    string `json:"pneuma"`
		Vibe      string `json:"vibe"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.User = raw.User
	e.Reply = raw.Reply
	if e.Reply == "" {
		e.Reply = raw.Pneuma
	}
	e.Vibe = raw.Vibe
	e.Timestamp = raw.Timestamp
	return nil
}

// MemoryDocument is the persisted episodic and long-term memory of a session.
type MemoryDocument struct {
	ShortTerm []ShortTermEntry `json:"shortTerm"`
	LongTerm  []string         `json:"longTerm"`
}

// NewMemoryDocument returns an empty document with non-nil slices.
func NewMemoryDocument() *MemoryDocument {
	return &MemoryDocument{
		ShortTerm: []ShortTermEntry{},
		LongTerm:  []string{},
	}
}

// Exchange is one user message and the composed reply.
type Exchange struct {
	User      string `json:"user"`
	Reply     string `json:"reply"`
	Vibe      string `json:"vibe,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Conversation is a keyed sequence of exchanges. StartedAt is epoch milliseconds.
type Conversation struct {
	ID        string     `json:"id"`
	StartedAt int64      `json:"startedAt"`
	Exchanges []Exchange `json:"exchanges"`
}

// ConversationDocument holds every conversation of a session.
type ConversationDocument struct {
	Conversations []Conversation `json:"conversations"`
}
