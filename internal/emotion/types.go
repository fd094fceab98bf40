package emotion

// Vibe is the coarse emotional category of a single message.
type Vibe string

const (
	VibeEmotional     Vibe = "emotional"
	VibeChaotic       Vibe = "chaotic"
	VibePhilosophical Vibe = "philosophical"
	VibePlayful       Vibe = "playful"
	VibeNeutral       Vibe = "neutral"
)

// Vibes lists every classifier output.
func Vibes() []Vibe {
	return []Vibe{VibeEmotional, VibeChaotic, VibePhilosophical, VibePlayful, VibeNeutral}
}

// AwarenessLevel is the tier of the awareness sub-machine.
type AwarenessLevel int

const (
	AwarenessNeutral AwarenessLevel = iota
	AwarenessReflective
	AwarenessNuminous
)

func (l AwarenessLevel) String() string {
	switch l {
	case AwarenessReflective:
		return "reflective"
	case AwarenessNuminous:
		return "numinous"
	default:
		return "neutral"
	}
}

// Clamp01 bounds a weight to 0-1.
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
