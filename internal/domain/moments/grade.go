package moments

import "github.com/forPelevin/viralscan/internal/types"

var gradeBands = []struct {
	min   float64
	grade string
}{
	{0.97, "A+"},
	{0.93, "A"},
	{0.90, "A-"},
	{0.87, "B+"},
	{0.83, "B"},
	{0.80, "B-"},
	{0.77, "C+"},
	{0.73, "C"},
	{0.70, "C-"},
	{0.65, "D+"},
	{0.60, "D"},
}

// Grades lists every letter grade, best first.
var Grades = []string{"A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "F"}

// Grade maps a virality score to a letter grade.
//
// Validate does not call this: model-sourced moments keep the grade the model
// gave them. Both are kept side by side until someone decides which one wins.
func Grade(score float64) string {
	for _, b := range gradeBands {
		if score >= b.min {
			return b.grade
		}
	}
	return "F"
}

func IsGrade(s string) bool {
	for _, g := range Grades {
		if g == s {
			return true
		}
	}
	return false
}

// Distribution counts the score-derived grades of ms.
func Distribution(ms []types.Moment) map[string]int {
	out := make(map[string]int, len(Grades))
	for _, m := range ms {
		out[Grade(m.ViralityScore)]++
	}
	return out
}

// PercentScore is the 0-100 integer form stored alongside persisted clips.
func PercentScore(score float64) int {
	return int(clamp(score, 0, 1) * 100)
}
