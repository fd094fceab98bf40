package memory

import (
	"strings"
	"unicode/utf8"

	"github.com/easeaico/project-pneuma/internal/emotion"
	"github.com/easeaico/project-pneuma/internal/utils"
)

// DefaultInsightThreshold is the salience needed for a message to become a long-term insight.
const DefaultInsightThreshold = 0.5

const maxInsightRunes = 160

var selfDisclosure = []string{"i am ", "i'm ", "i feel", "i think", "i believe", "i want", "i need", "my "}

// SalienceSignals describe one user turn.
type SalienceSignals struct {
	Message   string
	Vibe      emotion.Vibe
	Awareness emotion.AwarenessLevel
}

// ComputeSalience calculates a deterministic score in [0,1] for a user turn.
func ComputeSalience(signals SalienceSignals) float64 {
	message := strings.TrimSpace(signals.Message)
	if message == "" {
		return 0
	}
	score := 0.10

	length := utf8.RuneCountInString(message)
	if length >= 120 {
		score += 0.15
	} else if length >= 60 {
		score += 0.10
	}

	switch signals.Vibe {
	case emotion.VibePhilosophical:
		score += 0.20
	case emotion.VibeEmotional:
		score += 0.15
	case emotion.VibeChaotic:
		score += 0.05
	}

	switch signals.Awareness {
	case emotion.AwarenessNuminous:
		score += 0.30
	case emotion.AwarenessReflective:
		score += 0.15
	}

	if utils.ContainsAny(strings.ToLower(message), selfDisclosure) {
		score += 0.15
	}

	return emotion.Clamp01(score)
}

// InsightFrom returns the text stored for a salient message.
func InsightFrom(message string) string {
	return utils.Snippet(message, maxInsightRunes)
}
