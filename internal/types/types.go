package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Transcript is the record handed over by the transcription collaborator.
type Transcript struct {
	Segments []Segment `json:"transcript"`
	Duration float64   `json:"duration"`
}

type Segment struct {
	Start float64 `json:"start"`
	Text  string  `json:"text"`

	// set when a decoded record carried no usable start time
	noStart bool
}

// HasStart reports whether the segment carries a start time. Segments built in
// code always do; decoded ones only when "start" was present and numeric.
func (s Segment) HasStart() bool { return !s.noStart }

func (s *Segment) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = Segment{}

	start, ok := raw["start"]
	if !ok || bytes.Equal(bytes.TrimSpace(start), []byte("null")) {
		s.noStart = true
	} else {
		v, err := decodeSeconds(start)
		if err != nil {
			s.noStart = true
		} else {
			s.Start = v
		}
	}

	if t, ok := raw["text"]; ok {
		// non-string text is treated like missing text
		_ = json.Unmarshal(t, &s.Text)
	}
	return nil
}

// Transcription services are inconsistent about numbers vs numeric strings.
func decodeSeconds(b json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("start %q: %w", s, err)
	}
	return f, nil
}

// Candidate is one raw entry of the model's viral_moments array. Any field may
// be missing or carry the wrong type.
type Candidate map[string]any

// Moment is a validated viral moment.
type Moment struct {
	StartTimestamp    float64  `json:"start_timestamp"`
	EndTimestamp      float64  `json:"end_timestamp"`
	ViralityScore     float64  `json:"virality_score"`
	Grade             string   `json:"grade"`
	Justification     string   `json:"justification"`
	EmotionalKeywords []string `json:"emotional_keywords"`
	UrgencyIndicators []string `json:"urgency_indicators"`
}

// Manifest is what a single extraction run writes to disk.
type Manifest struct {
	Input        string         `json:"input"`
	ClipDuration int            `json:"clip_duration"`
	Duration     float64        `json:"duration"`
	Fallback     bool           `json:"fallback"`
	Grades       map[string]int `json:"grades"`
	Moments      []Moment       `json:"moments"`
}
