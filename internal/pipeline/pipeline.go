package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/forPelevin/viralscan/internal/config"
	"github.com/forPelevin/viralscan/internal/logger"
)

type Config struct {
	// Input is a transcript record: {"transcript": [...], "duration": N}.
	Input        string
	OutDir       string
	ClipDuration int
	// MediaPath is optional; ffprobe fills the duration from it when the
	// record has none.
	MediaPath string

	App *config.Config
	Log logger.Logger
}

func (c Config) Validate() error {
	if c.Input == "" {
		return errors.New("input is empty")
	}
	st, err := os.Stat(c.Input)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if st.IsDir() {
		return fmt.Errorf("input %s is a directory", c.Input)
	}
	if c.MediaPath != "" {
		if _, err := os.Stat(c.MediaPath); err != nil {
			return fmt.Errorf("stat media: %w", err)
		}
	}
	if c.App == nil {
		return errors.New("app config is nil")
	}
	return config.ValidateClipDuration(c.ClipDuration)
}

// Run extracts moments from one transcript file and returns the path of the
// written moments.json.
func Run(ctx context.Context, cfg Config) (string, error) {
	log := cfg.Log
	if log == nil {
		log = logger.Discard()
	}

	svc, closeFn, err := Open(ctx, cfg.App, log)
	if err != nil {
		return "", err
	}
	defer closeFn()

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, cfg.Input, time.Now().UTC())
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return "", err
	}
	log.Info(ctx, "output run dir: %s", runOutDir)

	outPath := filepath.Join(runOutDir, "moments.json")
	m, err := svc.ExtractFile(ctx, cfg.Input, outPath, cfg.ClipDuration, cfg.MediaPath)
	if err != nil {
		return "", err
	}
	if len(m.Moments) > 0 {
		top := m.Moments[0]
		log.Info(ctx, "top moment %.1fs-%.1fs score %.2f (%s)", top.StartTimestamp, top.EndTimestamp, top.ViralityScore, top.Grade)
	}
	return outPath, nil
}

func buildRunOutDir(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}
