package moments

import (
	"fmt"
	"math"

	"github.com/forPelevin/viralscan/internal/types"
)

var fallbackScores = [...]float64{0.7, 0.6, 0.5}

// Fallback places up to three clips at the beginning, middle and end of the
// video. It is used when no model-sourced moment survives validation, and
// returns nothing when the video duration is unknown.
func Fallback(videoDuration float64, clipDuration int) []types.Moment {
	if videoDuration <= 0 || clipDuration <= 0 {
		return nil
	}
	clip := float64(clipDuration)

	positions := []struct {
		name  string
		start float64
	}{
		{"beginning", 0},
		{"middle", math.Max(0, videoDuration/2-clip/2)},
		{"end", math.Max(0, videoDuration-clip)},
	}

	out := make([]types.Moment, 0, len(positions))
	for i, p := range positions {
		span := math.Min(clip, videoDuration-p.start)
		if span <= 0 {
			continue
		}
		end := math.Min(p.start+span, videoDuration)
		if end <= p.start {
			continue
		}
		out = append(out, types.Moment{
			StartTimestamp:    p.start,
			EndTimestamp:      end,
			ViralityScore:     fallbackScores[i],
			Grade:             DefaultGrade,
			Justification:     fmt.Sprintf("Fallback clip from %s of video", p.name),
			EmotionalKeywords: []string{"engaging", "interesting"},
			UrgencyIndicators: []string{"general appeal"},
		})
	}
	return out
}
