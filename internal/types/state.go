package types

const (
	// MaxStateMemories caps the snippet ring buffer on PersonalityState.
	MaxStateMemories = 10
	// MaxSnippetRunes caps each snippet.
	MaxSnippetRunes = 80
)

// PersonalityState is the persisted affective vector for one session.
type PersonalityState struct {
	Clarity             float64  `json:"clarity"`
	Drift               float64  `json:"drift"`
	Energy              float64  `json:"energy"`
	CasualWeight        float64  `json:"casualWeight"`
	MythicWeight        float64  `json:"mythicWeight"`
	AnalyticWeight      float64  `json:"analyticWeight"`
	NuminousSensitivity float64  `json:"numinousSensitivity"`
	ToneBias            string   `json:"toneBias"`
	Memories            []string `json:"memories"`
}

// DefaultPersonalityState is used for new or unreadable sessions and as the decay baseline.
func DefaultPersonalityState() PersonalityState {
	return PersonalityState{
		Clarity:             0.6,
		Drift:               0.2,
		Energy:              0.5,
		CasualWeight:        0.4,
		MythicWeight:        0.3,
		AnalyticWeight:      0.3,
		NuminousSensitivity: 0.4,
		ToneBias:            "balanced",
		Memories:            []string{},
	}
}

// Clone returns a copy that shares no slice storage.
func (s PersonalityState) Clone() PersonalityState {
	out := s
	out.Memories = append([]string(nil), s.Memories...)
	if out.Memories == nil {
		out.Memories = []string{}
	}
	return out
}
