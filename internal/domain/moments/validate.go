package moments

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/forPelevin/viralscan/internal/types"
)

const (
	DefaultGrade         = "B"
	DefaultJustification = "Viral potential detected"
)

// Validate turns raw candidates into moments.
//
// Candidates missing start_timestamp, end_timestamp or virality_score are
// dropped, as are ranges that start below zero, are empty or inverted, or end
// past videoDuration (only checked when videoDuration > 0). Ranges are never
// repaired. Scores are clamped to [0, 1]. The result is sorted by score,
// highest first, keeping input order on ties.
func Validate(cands []types.Candidate, videoDuration float64) []types.Moment {
	out := make([]types.Moment, 0, len(cands))
	for _, c := range cands {
		m, ok := validateOne(c, videoDuration)
		if !ok {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ViralityScore > out[j].ViralityScore
	})
	return out
}

func validateOne(c types.Candidate, videoDuration float64) (types.Moment, bool) {
	rawStart, ok1 := c["start_timestamp"]
	rawEnd, ok2 := c["end_timestamp"]
	rawScore, ok3 := c["virality_score"]
	if !ok1 || !ok2 || !ok3 {
		return types.Moment{}, false
	}

	start, ok := toFloat(rawStart)
	if !ok {
		return types.Moment{}, false
	}
	end, ok := toFloat(rawEnd)
	if !ok {
		return types.Moment{}, false
	}
	if start < 0 || start >= end {
		return types.Moment{}, false
	}
	if videoDuration > 0 && end > videoDuration {
		return types.Moment{}, false
	}

	score, ok := toFloat(rawScore)
	if !ok {
		return types.Moment{}, false
	}

	return types.Moment{
		StartTimestamp:    start,
		EndTimestamp:      end,
		ViralityScore:     clamp(score, 0, 1),
		Grade:             gradeOrDefault(c["grade"]),
		Justification:     justificationOrDefault(c["justification"]),
		EmotionalKeywords: toStrings(c["emotional_keywords"]),
		UrgencyIndicators: toStrings(c["urgency_indicators"]),
	}, true
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// The model's own grade is kept when it is one of the known letters.
func gradeOrDefault(v any) string {
	s, ok := v.(string)
	if !ok {
		return DefaultGrade
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if !IsGrade(s) {
		return DefaultGrade
	}
	return s
}

func justificationOrDefault(v any) string {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return DefaultJustification
	}
	return s
}

func toStrings(v any) []string {
	out := []string{}
	switch x := v.(type) {
	case []string:
		out = append(out, x...)
	case []any:
		for _, it := range x {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func clamp(x, a, b float64) float64 {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}
