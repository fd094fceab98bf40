package emotion

import (
	"regexp"
	"strings"

	"github.com/easeaico/project-pneuma/internal/types"
	"github.com/easeaico/project-pneuma/internal/utils"
)

const (
	weightRetention = 0.98
	energyRetention = 0.95
	toneMargin      = 0.05
)

// trigger applies fixed deltas when its pattern matches.
type trigger struct {
	name    string
	pattern *regexp.Regexp
	apply   func(s *types.PersonalityState)
}

var stateTriggers = []trigger{
	{
		name:    "casual",
		pattern: regexp.MustCompile(`\b(lol|lmao|haha|hey|hi|hello|yo|sup|cool|nice|dude|bro|chill)\b`),
		apply: func(s *types.PersonalityState) {
			s.CasualWeight = Clamp01(s.CasualWeight + 0.05)
			s.MythicWeight = Clamp01(s.MythicWeight - 0.02)
			s.Energy = Clamp01(s.Energy + 0.03)
		},
	},
	{
		name:    "emotional",
		pattern: regexp.MustCompile(`\b(sad|lonely|hurt|cry|crying|tired|love|miss|afraid|anxious|help|lost|heart)\b`),
		apply: func(s *types.PersonalityState) {
			s.MythicWeight = Clamp01(s.MythicWeight + 0.03)
			s.NuminousSensitivity = Clamp01(s.NuminousSensitivity + 0.02)
			s.Energy = Clamp01(s.Energy - 0.02)
		},
	},
	{
		name:    "numinous",
		pattern: regexp.MustCompile(`\b(soul|spirit|divine|sacred|gods?|angels?|cosmos|cosmic|eternal|eternity|infinite|dreams?|myth|mystic|prayer)\b`),
		apply: func(s *types.PersonalityState) {
			s.MythicWeight = Clamp01(s.MythicWeight + 0.06)
			s.NuminousSensitivity = Clamp01(s.NuminousSensitivity + 0.05)
			s.Clarity = Clamp01(s.Clarity - 0.02)
		},
	},
	{
		name:    "philosophical",
		pattern: regexp.MustCompile(`\b(why|meaning|truth|exist|existence|purpose|reality|consciousness|mind|think|free will|ethics)\b`),
		apply: func(s *types.PersonalityState) {
			s.AnalyticWeight = Clamp01(s.AnalyticWeight + 0.05)
			s.Clarity = Clamp01(s.Clarity + 0.03)
			s.CasualWeight = Clamp01(s.CasualWeight - 0.02)
		},
	},
	{
		name:    "chaotic",
		pattern: regexp.MustCompile(`\b(wtf|angry|chaos|chaotic|rage|hate|fuck|damn|screw|burn|broken)\b`),
		apply: func(s *types.PersonalityState) {
			s.Drift = Clamp01(s.Drift + 0.08)
			s.Clarity = Clamp01(s.Clarity - 0.05)
			s.Energy = Clamp01(s.Energy + 0.05)
		},
	},
}

// StateMachine evolves the personality vector one message at a time.
type StateMachine struct {
	baseline types.PersonalityState
}

// NewStateMachine returns a StateMachine decaying toward the default state.
func NewStateMachine() *StateMachine {
	return &StateMachine{baseline: types.DefaultPersonalityState()}
}

// Triggers reports which categories fire for message.
func Triggers(message string) []string {
	lowered := strings.ToLower(message)
	var fired []string
	for _, t := range stateTriggers {
		if t.pattern.MatchString(lowered) {
			fired = append(fired, t.name)
		}
	}
	return fired
}

// Evolve returns the state after message. The input state is left untouched.
func (m *StateMachine) Evolve(state types.PersonalityState, message string) types.PersonalityState {
	next := state.Clone()
	lowered := strings.ToLower(message)

	for _, t := range stateTriggers {
		if t.pattern.MatchString(lowered) {
			t.apply(&next)
		}
	}

	b := m.baseline
	next.Clarity = decay(next.Clarity, b.Clarity, weightRetention)
	next.Drift = decay(next.Drift, b.Drift, weightRetention)
	next.CasualWeight = decay(next.CasualWeight, b.CasualWeight, weightRetention)
	next.MythicWeight = decay(next.MythicWeight, b.MythicWeight, weightRetention)
	next.AnalyticWeight = decay(next.AnalyticWeight, b.AnalyticWeight, weightRetention)
	next.NuminousSensitivity = decay(next.NuminousSensitivity, b.NuminousSensitivity, weightRetention)
	next.Energy = decay(next.Energy, b.Energy, energyRetention)
	next.ToneBias = toneBias(next)

	// Every turn leaves a snippet, even an empty one.
	next.Memories = append(next.Memories, utils.Snippet(message, types.MaxSnippetRunes))
	if len(next.Memories) > types.MaxStateMemories {
		next.Memories = next.Memories[len(next.Memories)-types.MaxStateMemories:]
	}
	return next
}

func decay(value, baseline, retention float64) float64 {
	return Clamp01(value*retention + baseline*(1-retention))
}

// toneBias labels the dominant weight, or "balanced" when none leads clearly.
func toneBias(s types.PersonalityState) string {
	weights := []struct {
		label string
		value float64
	}{
		{"casual", s.CasualWeight},
		{"mythic", s.MythicWeight},
		{"analytic", s.AnalyticWeight},
	}
	best, second := 0, -1
	for i := 1; i < len(weights); i++ {
		if weights[i].value > weights[best].value {
			second = best
			best = i
		} else if second < 0 || weights[i].value > weights[second].value {
			second = i
		}
	}
	if weights[best].value-weights[second].value < toneMargin {
		return "balanced"
	}
	return weights[best].label
}
