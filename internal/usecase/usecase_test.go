package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/forPelevin/viralscan/internal/ports"
	"github.com/forPelevin/viralscan/internal/types"
)

type fakeLLM struct {
	content string
	err     error
	calls   int
	prompt  string
}

func (f *fakeLLM) Complete(_ context.Context, _ string, user string) (string, error) {
	f.calls++
	f.prompt = user
	return f.content, f.err
}

func testTranscript(duration float64) types.Transcript {
	return types.Transcript{
		Segments: []types.Segment{
			{Start: 0, Text: "welcome back"},
			{Start: 42.5, Text: "you will not believe this"},
		},
		Duration: duration,
	}
}

func TestExtract_AIMoments(t *testing.T) {
	llm := &fakeLLM{content: `{"viral_moments":[
		{"start_timestamp":10,"end_timestamp":40,"virality_score":0.6,"grade":"B"},
		{"start_timestamp":40,"end_timestamp":70,"virality_score":1.5,"grade":"A"}]}`}
	uc := New(Deps{LLM: llm})

	res, err := uc.Extract(context.Background(), Input{Transcript: testTranscript(100), ClipDuration: 30})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Fallback {
		t.Fatalf("expected model-sourced moments")
	}
	if len(res.Moments) != 2 || res.Moments[0].ViralityScore != 1.0 || res.Moments[0].StartTimestamp != 40 {
		t.Fatalf("unexpected moments: %+v", res.Moments)
	}
	if llm.calls != 1 {
		t.Fatalf("expected one completion call, got %d", llm.calls)
	}
}

func TestExtract_PromptCarriesTranscript(t *testing.T) {
	llm := &fakeLLM{content: "nothing"}
	uc := New(Deps{LLM: llm})
	if _, err := uc.Extract(context.Background(), Input{Transcript: testTranscript(100), ClipDuration: 45}); err != nil {
		t.Fatalf("extract: %v", err)
	}
	for _, sub := range []string{"[42.5s] you will not believe this", "exactly 45 seconds"} {
		if !strings.Contains(llm.prompt, sub) {
			t.Fatalf("prompt missing %q", sub)
		}
	}
}

func TestExtract_RecoveredFromProse(t *testing.T) {
	llm := &fakeLLM{content: "Here you go:\n{\"viral_moments\":[{\"start_timestamp\":5,\"end_timestamp\":35,\"virality_score\":0.8}]}\nEnjoy!"}
	uc := New(Deps{LLM: llm})

	res, err := uc.Extract(context.Background(), Input{Transcript: testTranscript(100), ClipDuration: 30})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Fallback || len(res.Moments) != 1 {
		t.Fatalf("expected one recovered moment, got %+v", res)
	}
	if res.Moments[0].Grade != "B" {
		t.Fatalf("expected default grade, got %q", res.Moments[0].Grade)
	}
}

func TestExtract_FallbackOnUnusableOutput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no json", "I cannot help with that."},
		{"all rejected", `{"viral_moments":[{"start_timestamp":50,"end_timestamp":40,"virality_score":0.9}]}`},
		{"empty list", `{"viral_moments":[]}`},
		{"empty content", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := New(Deps{LLM: &fakeLLM{content: tt.content}})
			res, err := uc.Extract(context.Background(), Input{Transcript: testTranscript(300), ClipDuration: 30})
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if !res.Fallback || len(res.Moments) != 3 {
				t.Fatalf("expected 3 fallback moments, got %+v", res)
			}
		})
	}
}

func TestExtract_TransportFailureIsAnError(t *testing.T) {
	llm := &fakeLLM{err: fmt.Errorf("%w: grok timeout after 1m0s", ports.ErrUpstreamRequest)}
	uc := New(Deps{LLM: llm})

	res, err := uc.Extract(context.Background(), Input{Transcript: testTranscript(300), ClipDuration: 30})
	if !errors.Is(err, ports.ErrUpstreamRequest) {
		t.Fatalf("expected ErrUpstreamRequest, got %v", err)
	}
	if len(res.Moments) != 0 {
		t.Fatalf("expected no moments on transport failure, got %d", len(res.Moments))
	}
}

func TestExtract_ResponseEnvelopeFailureIsAnError(t *testing.T) {
	uc := New(Deps{LLM: &fakeLLM{err: fmt.Errorf("%w: no choices", ports.ErrUpstreamResponse)}})
	_, err := uc.Extract(context.Background(), Input{Transcript: testTranscript(300), ClipDuration: 30})
	if !errors.Is(err, ports.ErrUpstreamResponse) {
		t.Fatalf("expected ErrUpstreamResponse, got %v", err)
	}
}

func TestExtract_EmptyTranscriptSkipsModel(t *testing.T) {
	llm := &fakeLLM{}
	uc := New(Deps{LLM: llm})

	res, err := uc.Extract(context.Background(), Input{
		Transcript:   types.Transcript{Segments: []types.Segment{{Start: 1, Text: "  "}}, Duration: 90},
		ClipDuration: 30,
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if llm.calls != 0 {
		t.Fatalf("expected no completion call, got %d", llm.calls)
	}
	if !res.Fallback || len(res.Moments) != 3 {
		t.Fatalf("expected fallback moments, got %+v", res)
	}
}

func TestExtract_RejectsBadClipDuration(t *testing.T) {
	uc := New(Deps{LLM: &fakeLLM{}})
	_, err := uc.Extract(context.Background(), Input{Transcript: testTranscript(100), ClipDuration: 0})
	if !errors.Is(err, ports.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestExtract_NonEmptyWheneverDurationKnown(t *testing.T) {
	outputs := []string{
		"",
		"{",
		"}{",
		`{"viral_moments":null}`,
		`{"viral_moments":[{"start_timestamp":0,"end_timestamp":500,"virality_score":1}]}`,
		"```json\n{\"viral_moments\":[{\"start_timestamp\":1,\"end_timestamp\":2,\"virality_score\":0.1}]}\n```",
	}
	for _, out := range outputs {
		uc := New(Deps{LLM: &fakeLLM{content: out}})
		res, err := uc.Extract(context.Background(), Input{Transcript: testTranscript(120), ClipDuration: 30})
		if err != nil {
			t.Fatalf("extract(%q): %v", out, err)
		}
		if len(res.Moments) == 0 {
			t.Fatalf("extract(%q): expected moments", out)
		}
		for i, m := range res.Moments {
			if m.StartTimestamp < 0 || m.StartTimestamp >= m.EndTimestamp || m.EndTimestamp > 120 {
				t.Fatalf("extract(%q): bad range %+v", out, m)
			}
			if i > 0 && res.Moments[i-1].ViralityScore < m.ViralityScore {
				t.Fatalf("extract(%q): not sorted", out)
			}
		}
	}
}
