package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/forPelevin/viralscan/internal/config"
	"github.com/forPelevin/viralscan/internal/domain/moments"
	"github.com/forPelevin/viralscan/internal/logger"
	"github.com/forPelevin/viralscan/internal/ports"
	"github.com/forPelevin/viralscan/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/viralscan/internal/ports/adapters/gemini"
	"github.com/forPelevin/viralscan/internal/ports/adapters/grok"
	"github.com/forPelevin/viralscan/internal/ports/adapters/openai"
	"github.com/forPelevin/viralscan/internal/ports/adapters/postgres"
	"github.com/forPelevin/viralscan/internal/types"
	"github.com/forPelevin/viralscan/internal/usecase"
)

// Service is the extraction entry point shared by the single-file run, the
// inbox watcher and the queue worker.
type Service struct {
	uc     usecase.Usecase
	store  ports.MomentStore
	// saveMu serializes Save; stores are not required to be safe for
	// concurrent use and the watcher runs several files at once.
	saveMu sync.Mutex
	prober ports.DurationProber
	log    logger.Logger
}

// NewService builds a Service; store and prober may be nil.
func NewService(llm ports.Completer, store ports.MomentStore, prober ports.DurationProber, log logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		uc:     usecase.New(usecase.Deps{LLM: llm, Log: log}),
		store:  store,
		prober: prober,
		log:    log,
	}
}

// Open wires adapters from cfg. The returned close func releases the
// database connection, if one was opened.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (*Service, func(), error) {
	llm, err := NewCompleter(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {}
	var store ports.MomentStore
	if cfg.Database.URL != "" {
		pg, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		log.Info(ctx, "persisting moments to postgres")
		store = pg
		closeFn = pg.Close
	}

	return NewService(llm, store, ffmpeg.New("ffprobe"), log), closeFn, nil
}

// NewCompleter returns the completion client for cfg.Provider.
func NewCompleter(ctx context.Context, cfg *config.Config) (ports.Completer, error) {
	var (
		llm ports.Completer
		err error
	)
	switch cfg.Provider {
	case config.ProviderGrok, "":
		llm, err = grok.New(grok.Config{
			APIKey:    cfg.Grok.APIKey,
			BaseURL:   cfg.Grok.BaseURL,
			Model:     cfg.Grok.Model,
			MaxTokens: cfg.Grok.MaxTokens,
			Timeout:   time.Duration(cfg.Grok.TimeoutSeconds) * time.Second,
		})
	case config.ProviderOpenAI:
		llm, err = openai.New(openai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
		})
	case config.ProviderGemini:
		llm, err = gemini.New(ctx, gemini.Config{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Gemini.Model,
		})
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ports.ErrConfiguration, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return llm, nil
}

// Job is one extraction request.
type Job struct {
	ID           string
	Transcript   types.Transcript
	ClipDuration int
	// MediaPath, when set, is probed for the duration if the transcript
	// record does not carry one.
	MediaPath string
}

func (s *Service) Process(ctx context.Context, job Job) (usecase.Result, error) {
	tr := job.Transcript
	if tr.Duration <= 0 && job.MediaPath != "" && s.prober != nil {
		d, err := s.prober.ProbeDuration(ctx, job.MediaPath)
		if err != nil {
			return usecase.Result{}, err
		}
		tr.Duration = d.Seconds()
		s.log.Info(ctx, "probed duration %.1fs from %s", tr.Duration, job.MediaPath)
	}

	res, err := s.uc.Extract(ctx, usecase.Input{Transcript: tr, ClipDuration: job.ClipDuration})
	if err != nil {
		return usecase.Result{}, err
	}

	if s.store != nil && job.ID != "" {
		s.saveMu.Lock()
		err := s.store.Save(ctx, job.ID, res.Moments)
		s.saveMu.Unlock()
		if err != nil {
			return usecase.Result{}, err
		}
		s.log.Debug(ctx, "saved %d moments for job %s", len(res.Moments), job.ID)
	}
	return res, nil
}

// ExtractFile runs one transcript file through Process and writes the
// manifest to outPath.
func (s *Service) ExtractFile(ctx context.Context, inPath, outPath string, clipDuration int, mediaPath string) (types.Manifest, error) {
	tr, err := LoadTranscript(inPath)
	if err != nil {
		return types.Manifest{}, err
	}
	res, err := s.Process(ctx, Job{
		ID:           hash(inPath),
		Transcript:   tr,
		ClipDuration: clipDuration,
		MediaPath:    mediaPath,
	})
	if err != nil {
		return types.Manifest{}, err
	}

	m := types.Manifest{
		Input:        inPath,
		ClipDuration: clipDuration,
		Duration:     res.Duration,
		Fallback:     res.Fallback,
		Grades:       moments.Distribution(res.Moments),
		Moments:      res.Moments,
	}
	if m.Moments == nil {
		m.Moments = []types.Moment{}
	}
	if err := writeJSON(outPath, m); err != nil {
		return types.Manifest{}, err
	}
	s.log.Info(ctx, "manifest written (%d moments, fallback=%t): %s", len(m.Moments), m.Fallback, outPath)
	return m, nil
}

// LoadTranscript reads a transcript record ({"transcript": [...], "duration": N}).
func LoadTranscript(path string) (types.Transcript, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("read transcript: %w", err)
	}
	var tr types.Transcript
	if err := json.Unmarshal(b, &tr); err != nil {
		return types.Transcript{}, fmt.Errorf("parse transcript %s: %w", filepath.Base(path), err)
	}
	return tr, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ensure adapters implement ports
var (
	_ ports.Completer      = (*grok.Adapter)(nil)
	_ ports.Completer      = (*openai.Adapter)(nil)
	_ ports.Completer      = (*gemini.Adapter)(nil)
	_ ports.Pinger         = (*grok.Adapter)(nil)
	_ ports.Pinger         = (*openai.Adapter)(nil)
	_ ports.Pinger         = (*gemini.Adapter)(nil)
	_ ports.MomentStore    = (*postgres.Store)(nil)
	_ ports.DurationProber = (*ffmpeg.Adapter)(nil)
)
