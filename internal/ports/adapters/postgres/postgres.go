package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forPelevin/viralscan/internal/domain/moments"
	"github.com/forPelevin/viralscan/internal/ports"
	"github.com/forPelevin/viralscan/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS viral_moments (
	id                 BIGSERIAL PRIMARY KEY,
	job_id             TEXT NOT NULL,
	rank               INTEGER NOT NULL,
	start_timestamp    DOUBLE PRECISION NOT NULL,
	end_timestamp      DOUBLE PRECISION NOT NULL,
	virality_score     INTEGER NOT NULL,
	grade              TEXT NOT NULL,
	justification      TEXT NOT NULL,
	emotional_keywords JSONB NOT NULL DEFAULT '[]',
	urgency_indicators JSONB NOT NULL DEFAULT '[]',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (job_id, rank)
);
CREATE INDEX IF NOT EXISTS viral_moments_score_idx ON viral_moments (virality_score DESC, created_at DESC);
`

const insertMoment = `
INSERT INTO viral_moments
	(job_id, rank, start_timestamp, end_timestamp, virality_score, grade, justification, emotional_keywords, urgency_indicators)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Store persists validated moments. Scores are stored as 0-100 integers.
// It is safe for concurrent use; each Save runs on its own pooled connection.
type Store struct {
	pool *pgxpool.Pool
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL is required", ports.ErrConfiguration)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create viral_moments: %w", err)
	}
	return nil
}

// Save replaces every stored moment of jobID with ms, ranked in slice order.
func (s *Store) Save(ctx context.Context, jobID string, ms []types.Moment) error {
	rows, err := buildRows(jobID, ms)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, "DELETE FROM viral_moments WHERE job_id = $1", jobID); err != nil {
		return fmt.Errorf("delete previous moments: %w", err)
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertMoment, r.args()...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert moments: %w", err)
	}
	return tx.Commit(ctx)
}

type row struct {
	JobID             string
	Rank              int
	Start             float64
	End               float64
	Score             int
	Grade             string
	Justification     string
	EmotionalKeywords []byte
	UrgencyIndicators []byte
}

func (r row) args() []any {
	return []any{r.JobID, r.Rank, r.Start, r.End, r.Score, r.Grade, r.Justification, r.EmotionalKeywords, r.UrgencyIndicators}
}

func buildRows(jobID string, ms []types.Moment) ([]row, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, fmt.Errorf("job id is empty")
	}
	out := make([]row, 0, len(ms))
	for i, m := range ms {
		kw, err := jsonList(m.EmotionalKeywords)
		if err != nil {
			return nil, fmt.Errorf("moment %d keywords: %w", i, err)
		}
		ui, err := jsonList(m.UrgencyIndicators)
		if err != nil {
			return nil, fmt.Errorf("moment %d indicators: %w", i, err)
		}
		out = append(out, row{
			JobID:             jobID,
			Rank:              i + 1,
			Start:             m.StartTimestamp,
			End:               m.EndTimestamp,
			Score:             moments.PercentScore(m.ViralityScore),
			Grade:             m.Grade,
			Justification:     m.Justification,
			EmotionalKeywords: kw,
			UrgencyIndicators: ui,
		})
	}
	return out, nil
}

func jsonList(v []string) ([]byte, error) {
	if v == nil {
		v = []string{}
	}
	return json.Marshal(v)
}
