package voice

import (
	"strings"

	"github.com/easeaico/project-pneuma/internal/emotion"
	"github.com/easeaico/project-pneuma/internal/utils"
)

// Mixer blends two archetype voices into one thought.
type Mixer struct {
	persona *Persona
	rng     utils.RandomSource
}

// NewMixer creates a Mixer over the persona's archetypes.
func NewMixer(persona *Persona, rng utils.RandomSource) *Mixer {
	return &Mixer{persona: persona, rng: rng}
}

// Pool returns the archetype names eligible for vibe.
func (m *Mixer) Pool(vibe emotion.Vibe) []string {
	if pool := m.persona.Pools[string(vibe)]; len(pool) > 0 {
		return pool
	}
	return m.persona.Pools[string(emotion.VibeNeutral)]
}

// Draw picks two archetypes with replacement.
func (m *Mixer) Draw(vibe emotion.Vibe) (string, string) {
	pool := m.Pool(vibe)
	return utils.Pick(m.rng, pool), utils.Pick(m.rng, pool)
}

// Mix returns one line from each of two drawn archetypes joined by a space.
func (m *Mixer) Mix(vibe emotion.Vibe) string {
	first, second := m.Draw(vibe)
	a := utils.Pick(m.rng, m.persona.Archetypes[first])
	b := utils.Pick(m.rng, m.persona.Archetypes[second])
	return strings.TrimSpace(a + " " + b)
}
