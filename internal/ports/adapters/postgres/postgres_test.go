package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/forPelevin/viralscan/internal/ports"
	"github.com/forPelevin/viralscan/internal/types"
)

func TestBuildRows(t *testing.T) {
	ms := []types.Moment{
		{StartTimestamp: 10, EndTimestamp: 40, ViralityScore: 0.92, Grade: "A", Justification: "twist", EmotionalKeywords: []string{"shock"}},
		{StartTimestamp: 50, EndTimestamp: 80, ViralityScore: 0.5, Grade: "B", Justification: "ok"},
	}
	rows, err := buildRows("job-1", ms)
	if err != nil {
		t.Fatalf("build rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Rank != 1 || rows[1].Rank != 2 {
		t.Fatalf("unexpected ranks: %d, %d", rows[0].Rank, rows[1].Rank)
	}
	if rows[0].Score != 92 || rows[1].Score != 50 {
		t.Fatalf("unexpected percent scores: %d, %d", rows[0].Score, rows[1].Score)
	}
	if string(rows[0].EmotionalKeywords) != `["shock"]` {
		t.Fatalf("unexpected keywords json: %s", rows[0].EmotionalKeywords)
	}
	if string(rows[1].UrgencyIndicators) != `[]` {
		t.Fatalf("expected empty json list for nil indicators, got %s", rows[1].UrgencyIndicators)
	}
	if n := len(rows[0].args()); n != 9 {
		t.Fatalf("expected 9 insert args, got %d", n)
	}
}

func TestBuildRows_RequiresJobID(t *testing.T) {
	if _, err := buildRows(" ", nil); err == nil {
		t.Fatalf("expected error for empty job id")
	}
}

func TestOpen_RequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), ""); !errors.Is(err, ports.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
