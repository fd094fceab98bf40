package voice

import (
	"github.com/easeaico/project-pneuma/internal/emotion"
	"github.com/easeaico/project-pneuma/internal/memory"
	"github.com/easeaico/project-pneuma/internal/utils"
)

// Mode is the voice register a reply is written in.
type Mode string

const (
	ModePhilosopher Mode = "philosopher"
	ModeMystic      Mode = "mystic"
	ModeScholar     Mode = "scholar"
	ModeChaotic     Mode = "chaotic"
	ModePlayful     Mode = "playful"
	ModeCosmic      Mode = "cosmic"
	ModeAngelic     Mode = "angelic"
)

// Modes lists every mode a persona must provide templates for.
func Modes() []Mode {
	return []Mode{ModePhilosopher, ModeMystic, ModeScholar, ModeChaotic, ModePlayful, ModeCosmic, ModeAngelic}
}

var vibeModes = map[emotion.Vibe][]Mode{
	emotion.VibeEmotional:     {ModeAngelic, ModeMystic, ModePhilosopher},
	emotion.VibeChaotic:       {ModeChaotic, ModeCosmic, ModePlayful},
	emotion.VibePhilosophical: {ModePhilosopher, ModeScholar, ModeCosmic, ModeMystic},
	emotion.VibePlayful:       {ModePlayful, ModeChaotic},
	emotion.VibeNeutral:       {ModeScholar, ModePhilosopher, ModeMystic},
}

// driftModes replaces the vibe list when a long-run drift bucket is known.
var driftModes = map[string][]Mode{
	memory.DriftMelancholic:   {ModeAngelic, ModeMystic},
	memory.DriftTurbulent:     {ModeChaotic, ModeCosmic},
	memory.DriftContemplative: {ModePhilosopher, ModeScholar},
	memory.DriftWhimsical:     {ModePlayful, ModeCosmic},
}

// Candidates returns the mode list a choice is drawn from.
func Candidates(vibe emotion.Vibe, drift string) []Mode {
	if modes, ok := driftModes[drift]; ok {
		return modes
	}
	if modes, ok := vibeModes[vibe]; ok {
		return modes
	}
	return vibeModes[emotion.VibeNeutral]
}

// ChooseMode draws uniformly from the candidate list.
func ChooseMode(rng utils.RandomSource, vibe emotion.Vibe, drift string) Mode {
	return utils.Pick(rng, Candidates(vibe, drift))
}
