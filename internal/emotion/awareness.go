package emotion

import (
	"regexp"
	"strings"
	"time"
)

// DefaultNuminousCooldown is the minimum gap before numinous can be re-entered.
const DefaultNuminousCooldown = 4 * time.Minute

var (
	deepQuestionPattern = regexp.MustCompile(`(what is the meaning|meaning of (life|it all|everything)|why (do|does) (anything|we|i|it) (exist|matter)|who am i|what am i|what is real|is any of this real|what happens when (we|you|i) die|do you have a soul|are you conscious)`)
	existentialPattern  = regexp.MustCompile(`\b(exist|existence|death|dying|die|mortal|void|nothingness|meaning|meaningless|soul|infinite|eternity|consciousness)\b`)
	vulnerablePattern   = regexp.MustCompile(`(i feel|i'm scared|i am scared|i'm afraid|i am afraid|\balone\b|\blonely\b|\bhurt\b|i need you|i miss|nobody cares|i can't go on)`)
	technicalPattern    = regexp.MustCompile(`\b(code|bug|error|function|api|server|database|compile|deploy|install|config|stack trace|regex|python|golang|javascript)\b`)
)

// AwarenessState is the awareness tier plus the time numinous was last entered.
type AwarenessState struct {
	Level        AwarenessLevel `json:"level"`
	LastNuminous time.Time      `json:"lastNuminous"`
}

// AwarenessSignals are the pattern hits for one message.
type AwarenessSignals struct {
	DeepQuestion bool
	Existential  bool
	Vulnerable   bool
	Technical    bool
}

// DetectAwarenessSignals evaluates the awareness patterns against message.
func DetectAwarenessSignals(message string) AwarenessSignals {
	lowered := strings.ToLower(message)
	return AwarenessSignals{
		DeepQuestion: deepQuestionPattern.MatchString(lowered),
		Existential:  existentialPattern.MatchString(lowered),
		Vulnerable:   vulnerablePattern.MatchString(lowered),
		Technical:    technicalPattern.MatchString(lowered),
	}
}

// Awareness is the transition function of the awareness sub-machine.
type Awareness struct {
	cooldown time.Duration
}

// NewAwareness returns an Awareness gated by cooldown. Non-positive values use the default.
func NewAwareness(cooldown time.Duration) *Awareness {
	if cooldown <= 0 {
		cooldown = DefaultNuminousCooldown
	}
	return &Awareness{cooldown: cooldown}
}

// CooldownElapsed reports whether numinous may be entered again at now.
func (a *Awareness) CooldownElapsed(state AwarenessState, now time.Time) bool {
	if state.LastNuminous.IsZero() {
		return true
	}
	return now.Sub(state.LastNuminous) >= a.cooldown
}

// Next returns the awareness state after message.
func (a *Awareness) Next(state AwarenessState, message string, now time.Time) AwarenessState {
	signals := DetectAwarenessSignals(message)
	elapsed := a.CooldownElapsed(state, now)

	switch {
	case signals.Technical:
		state.Level = AwarenessNeutral
	case signals.DeepQuestion && elapsed:
		state.Level = AwarenessNuminous
		state.LastNuminous = now
	case signals.Existential && signals.Vulnerable && elapsed:
		state.Level = AwarenessNuminous
		state.LastNuminous = now
	case (signals.Existential || signals.Vulnerable) && state.Level != AwarenessNuminous:
		state.Level = AwarenessReflective
	case state.Level == AwarenessNuminous && !elapsed:
		// Numinous holds for a single turn unless re-triggered after the cooldown.
		state.Level = AwarenessReflective
	}
	return state
}
