package memory

import (
	"github.com/easeaico/project-pneuma/internal/emotion"
	"github.com/easeaico/project-pneuma/internal/types"
)

// Drift buckets summarize which vibe has dominated recent history.
const (
	DriftNone          = ""
	DriftMelancholic   = "melancholic"
	DriftTurbulent     = "turbulent"
	DriftContemplative = "contemplative"
	DriftWhimsical     = "whimsical"
)

const (
	driftMinEntries = 5
	driftDominance  = 0.6
)

var driftByVibe = map[emotion.Vibe]string{
	emotion.VibeEmotional:     DriftMelancholic,
	emotion.VibeChaotic:       DriftTurbulent,
	emotion.VibePhilosophical: DriftContemplative,
	emotion.VibePlayful:       DriftWhimsical,
}

// DriftBucket returns the long-run bucket for the recorded exchanges, or DriftNone.
func DriftBucket(entries []types.ShortTermEntry) string {
	if len(entries) < driftMinEntries {
		return DriftNone
	}
	counts := make(map[emotion.Vibe]int)
	for _, entry := range entries {
		counts[emotion.Vibe(entry.Vibe)]++
	}
	for _, vibe := range emotion.Vibes() {
		bucket, ok := driftByVibe[vibe]
		if !ok {
			continue
		}
		if float64(counts[vibe]) >= driftDominance*float64(len(entries)) {
			return bucket
		}
	}
	return DriftNone
}
