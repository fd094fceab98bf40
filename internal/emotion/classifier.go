package emotion

import (
	"strings"

	"github.com/easeaico/project-pneuma/internal/utils"
)

// VibeRule maps keywords to a vibe. Rules are evaluated in order and the first match wins.
type VibeRule struct {
	Vibe     Vibe
	Keywords []string
}

var vibeRules = []VibeRule{
	{Vibe: VibeEmotional, Keywords: []string{"help", "lost"}},
	{Vibe: VibeChaotic, Keywords: []string{"wtf", "angry"}},
	{Vibe: VibePhilosophical, Keywords: []string{"why", "what is"}},
	{Vibe: VibePlayful, Keywords: []string{"lol", "haha"}},
}

// VibeRules returns a copy of the ordered classification table.
func VibeRules() []VibeRule {
	out := make([]VibeRule, len(vibeRules))
	for i, rule := range vibeRules {
		out[i] = VibeRule{Vibe: rule.Vibe, Keywords: append([]string(nil), rule.Keywords...)}
	}
	return out
}

// Classify returns the vibe of text. Keywords match as substrings of the lowercased text.
func Classify(text string) Vibe {
	lowered := strings.ToLower(text)
	for _, rule := range vibeRules {
		if utils.ContainsAny(lowered, rule.Keywords) {
			return rule.Vibe
		}
	}
	return VibeNeutral
}
