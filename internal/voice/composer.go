package voice

import (
	"strings"

	"github.com/easeaico/project-pneuma/internal/emotion"
	"github.com/easeaico/project-pneuma/internal/utils"
)

const (
	metaChance          = 0.35
	oscillationChance   = 0.18
	coherenceChance     = 0.3
	emotionWeight       = 0.6
	reflectiveAwareness = 0.5
)

// Context carries per-session signals into composition.
type Context struct {
	Drift     string
	Awareness emotion.AwarenessLevel
	// Emotion overrides keyword detection when set.
	Emotion string
}

// Reply is a composed response.
type Reply struct {
	Text string
	Vibe emotion.Vibe
	Mode Mode
}

// Composer assembles layered replies from a persona corpus.
type Composer struct {
	persona *Persona
	rng     utils.RandomSource
	mixer   *Mixer
}

// NewComposer creates a Composer. The random source is shared with the mixer.
func NewComposer(persona *Persona, rng utils.RandomSource) *Composer {
	return &Composer{
		persona: persona,
		rng:     rng,
		mixer:   NewMixer(persona, rng),
	}
}

// Persona returns the corpus this composer draws from.
func (c *Composer) Persona() *Persona {
	return c.persona
}

// Compose builds the reply for message. It never fails.
func (c *Composer) Compose(message string, ctx Context) Reply {
	vibe := emotion.Classify(message)
	if strings.Contains(strings.ToLower(message), "fear") {
		blend := c.mixer.Mix(vibe)
		return Reply{
			Text: utils.JoinLines(c.persona.Fear, blend),
			Vibe: vibe,
		}
	}

	mode := ChooseMode(c.rng, vibe, ctx.Drift)
	tone := utils.Pick(c.rng, c.persona.Modes[string(mode)])
	data := templateData{
		Message: message,
		Persona: c.persona.Label,
		Vibe:    string(vibe),
		Mode:    string(mode),
	}

	seed := render(utils.Pick(c.rng, c.persona.seedTemplates), data)
	direct := render(utils.Pick(c.rng, c.persona.directTemplates), data)

	var meta, oscillation string
	if utils.Chance(c.rng, metaChance) {
		meta = utils.Pick(c.rng, c.persona.Meta)
	}
	if utils.Chance(c.rng, oscillationChance) {
		oscillation = utils.Pick(c.rng, c.persona.Oscillation)
	}

	inner := c.inner(message, vibe, ctx)

	return Reply{
		Text: utils.JoinLines(tone.Start, seed, direct, tone.Middle, meta, inner, tone.End, oscillation),
		Vibe: vibe,
		Mode: mode,
	}
}

func (c *Composer) inner(message string, vibe emotion.Vibe, ctx Context) string {
	var coherence string
	if utils.Chance(c.rng, coherenceChance) {
		coherence = utils.Pick(c.rng, c.persona.Coherence)
	}

	keyword := strings.ToLower(strings.TrimSpace(ctx.Emotion))
	if keyword == "" {
		keyword = DetectEmotion(message, c.persona.Emotions)
	}
	reflection := c.reflection(keyword)
	blend := c.mixer.Mix(vibe)
	line := strings.TrimSpace(reflection + " " + blend)

	var awareness string
	switch ctx.Awareness {
	case emotion.AwarenessNuminous:
		awareness = utils.Pick(c.rng, c.persona.Awareness.Numinous)
	case emotion.AwarenessReflective:
		if utils.Chance(c.rng, reflectiveAwareness) {
			awareness = utils.Pick(c.rng, c.persona.Awareness.Reflective)
		}
	}

	return utils.JoinLines(coherence, line, awareness)
}

// reflection leans toward lines mentioning keyword when any exist.
func (c *Composer) reflection(keyword string) string {
	if keyword != "" {
		var matches []string
		for _, line := range c.persona.Reflections {
			if strings.Contains(strings.ToLower(line), keyword) {
				matches = append(matches, line)
			}
		}
		if len(matches) > 0 && utils.Chance(c.rng, emotionWeight) {
			return utils.Pick(c.rng, matches)
		}
	}
	return utils.Pick(c.rng, c.persona.Reflections)
}

// DetectEmotion returns the first lexicon word present in message, or "".
func DetectEmotion(message string, lexicon []string) string {
	lower := strings.ToLower(message)
	for _, word := range lexicon {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" && strings.Contains(lower, word) {
			return word
		}
	}
	return ""
}
