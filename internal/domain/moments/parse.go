package moments

import (
	"encoding/json"
	"regexp"

	"github.com/forPelevin/viralscan/internal/types"
)

// Tier tells which decoding step produced the document.
type Tier int

const (
	TierNone Tier = iota
	TierStrict
	TierRecovered
)

func (t Tier) String() string {
	switch t {
	case TierStrict:
		return "strict"
	case TierRecovered:
		return "recovered"
	default:
		return "none"
	}
}

// Greedy on purpose: first "{" to last "}" across lines.
var reJSONObject = regexp.MustCompile(`(?s)\{.*\}`)

// ParseResponse decodes the model output into raw candidates.
//
// The whole text is tried as JSON first. If that fails, the widest {...} span
// is cut out of the surrounding prose and tried once more. A document that
// decodes but has no viral_moments key yields no candidates, and so does text
// where neither attempt decodes. It never fails.
func ParseResponse(content string) ([]types.Candidate, Tier) {
	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err == nil {
		return viralMoments(doc), TierStrict
	}

	span := reJSONObject.FindString(content)
	if span == "" {
		return nil, TierNone
	}
	if err := json.Unmarshal([]byte(span), &doc); err != nil {
		return nil, TierNone
	}
	return viralMoments(doc), TierRecovered
}

func viralMoments(doc any) []types.Candidate {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	arr, ok := obj["viral_moments"].([]any)
	if !ok {
		return nil
	}
	out := make([]types.Candidate, 0, len(arr))
	for _, it := range arr {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, types.Candidate(m))
	}
	return out
}
