package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/forPelevin/viralscan/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// OutputSuffix is appended to a transcript's base name for its result file.
const OutputSuffix = ".moments.json"

// Handler processes one transcript file dropped into the inbox.
type Handler func(ctx context.Context, inPath, outPath string) error

type Watcher struct {
	inbox     string
	outDir    string
	handler   Handler
	log       logger.Logger
	fsw       *fsnotify.Watcher
	settle    time.Duration
	semaphore chan struct{}
	wg        sync.WaitGroup
}

// New watches inbox for new transcript records and runs handler on each, at
// most maxConcurrent at a time. Results go to outDir (inbox when empty).
func New(inbox, outDir string, handler Handler, log logger.Logger, maxConcurrent int) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(inbox); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	if outDir == "" {
		outDir = inbox
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Watcher{
		inbox:     inbox,
		outDir:    outDir,
		handler:   handler,
		log:       log,
		fsw:       fsw,
		settle:    500 * time.Millisecond,
		semaphore: make(chan struct{}, maxConcurrent),
	}, nil
}

// Start blocks until ctx is done, then waits for in-flight files.
func (w *Watcher) Start(ctx context.Context) error {
	w.log.Info(ctx, "watching %s (max concurrent: %d), results in %s", w.inbox, cap(w.semaphore), w.outDir)

	for {
		select {
		case <-ctx.Done():
			w.log.Info(ctx, "waiting for in-flight transcripts...")
			w.wg.Wait()
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			// a file renamed into the inbox shows up as Create
			if !ev.Has(fsnotify.Create) {
				continue
			}
			if !isTranscriptFile(ev.Name) {
				w.log.Debug(ctx, "ignoring %s", ev.Name)
				continue
			}
			if err := w.dispatch(ctx, ev.Name); err != nil {
				return err
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.log.Error(ctx, "watcher error: %v", err)
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, inPath string) error {
	w.log.Info(ctx, "new transcript: %s", inPath)
	select {
	case w.semaphore <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() { <-w.semaphore }()

		// let the writer finish
		select {
		case <-time.After(w.settle):
		case <-ctx.Done():
			return
		}
		if err := w.handler(ctx, inPath, OutputPath(w.outDir, inPath)); err != nil {
			w.log.Error(ctx, "failed to process %s: %v", inPath, err)
		}
	}()
	return nil
}

func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

// OutputPath is where the result for inPath is written.
func OutputPath(outDir, inPath string) string {
	base := filepath.Base(inPath)
	return filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+OutputSuffix)
}

// isTranscriptFile accepts *.json but not our own result files or hidden and
// temporary files.
func isTranscriptFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	lower := strings.ToLower(base)
	if strings.HasSuffix(lower, OutputSuffix) {
		return false
	}
	return strings.ToLower(filepath.Ext(base)) == ".json"
}
