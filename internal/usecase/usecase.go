package usecase

import (
	"context"
	"fmt"

	"github.com/forPelevin/viralscan/internal/domain/moments"
	"github.com/forPelevin/viralscan/internal/logger"
	"github.com/forPelevin/viralscan/internal/ports"
	"github.com/forPelevin/viralscan/internal/types"
)

type Deps struct {
	LLM ports.Completer
	Log logger.Logger
}

// Usecase holds no mutable state and is safe for concurrent use.
type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		d.Log = logger.Discard()
	}
	return Usecase{d: d}
}

type Input struct {
	Transcript   types.Transcript
	ClipDuration int
}

type Result struct {
	Moments []types.Moment
	// Fallback is set when Moments came from the positional generator
	// instead of the model.
	Fallback bool
	Tier     moments.Tier
	// Duration is the video duration the moments were checked against.
	Duration float64
}

// Extract runs format → prompt → completion → parse → validate, and falls back
// to positional clips when nothing usable comes back. Only a failed completion
// call is returned as an error; bad model output never is.
func (u Usecase) Extract(ctx context.Context, in Input) (Result, error) {
	if in.ClipDuration < 1 {
		return Result{}, fmt.Errorf("%w: clip duration must be >= 1, got %d", ports.ErrConfiguration, in.ClipDuration)
	}
	tr := in.Transcript
	log := u.d.Log

	log.Info(ctx, "analyzing transcript: %d segments, duration %.1fs, target clip %ds", len(tr.Segments), tr.Duration, in.ClipDuration)

	text := moments.FormatTranscript(tr.Segments)
	if text == "" {
		log.Warn(ctx, "no usable transcript segments, skipping model call")
		return u.fallback(ctx, tr.Duration, in.ClipDuration, moments.TierNone), nil
	}

	prompt := moments.BuildPrompt(text, in.ClipDuration)
	log.Debug(ctx, "prompt built (%d chars)", len(prompt))

	content, err := u.d.LLM.Complete(ctx, moments.SystemPrompt, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("extract viral moments: %w", err)
	}
	log.Debug(ctx, "model response (%d chars): %s", len(content), preview(content, 500))

	cands, tier := moments.ParseResponse(content)
	log.Info(ctx, "parsed %d candidates (tier=%s)", len(cands), tier)

	ms := moments.Validate(cands, tr.Duration)
	if len(ms) == 0 {
		log.Warn(ctx, "no candidate survived validation")
		return u.fallback(ctx, tr.Duration, in.ClipDuration, tier), nil
	}
	log.Info(ctx, "validated %d of %d candidates, top score %.2f", len(ms), len(cands), ms[0].ViralityScore)
	return Result{Moments: ms, Tier: tier, Duration: tr.Duration}, nil
}

func (u Usecase) fallback(ctx context.Context, duration float64, clipDuration int, tier moments.Tier) Result {
	ms := moments.Fallback(duration, clipDuration)
	u.d.Log.Info(ctx, "using %d fallback moments", len(ms))
	return Result{Moments: ms, Fallback: true, Tier: tier, Duration: duration}
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
