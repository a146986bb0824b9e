package ports

import (
	"context"
	"time"

	"github.com/forPelevin/viralscan/internal/types"
)

// Completer sends one system+user exchange to a text-generation endpoint and
// returns the raw text of the first choice.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type MomentStore interface {
	Save(ctx context.Context, jobID string, moments []types.Moment) error
}

type DurationProber interface {
	ProbeDuration(ctx context.Context, mediaPath string) (time.Duration, error)
}
