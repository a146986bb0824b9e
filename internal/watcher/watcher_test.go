package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestIsTranscriptFile(t *testing.T) {
	tests := map[string]bool{
		"/in/episode.json":          true,
		"/in/EPISODE.JSON":          true,
		"/in/episode.moments.json":  false,
		"/in/.episode.json":         false,
		"/in/episode.json.tmp":      false,
		"/in/episode.txt":           false,
		"/in/episode":               false,
		"/in/my.show.ep1.json":      true,
		"/in/out.moments.json.part": false,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := isTranscriptFile(in); got != want {
				t.Fatalf("isTranscriptFile(%q) = %v, want %v", in, got, want)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	got := OutputPath("/out", "/in/my.show.json")
	if want := filepath.Join("/out", "my.show.moments.json"); got != want {
		t.Fatalf("OutputPath = %q, want %q", got, want)
	}
}

func TestWatcher_DispatchesNewTranscripts(t *testing.T) {
	inbox := t.TempDir()
	outDir := t.TempDir()

	var (
		mu   sync.Mutex
		seen = map[string]string{}
		done = make(chan struct{}, 4)
	)
	handler := func(_ context.Context, in, out string) error {
		mu.Lock()
		seen[filepath.Base(in)] = out
		mu.Unlock()
		done <- struct{}{}
		return nil
	}

	w, err := New(inbox, outDir, handler, nil, 1)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Stop()
	w.settle = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()

	// give the watcher loop a moment to start selecting
	time.Sleep(50 * time.Millisecond)
	for _, name := range []string{"a.json", "notes.txt", "a.moments.json"} {
		if err := os.WriteFile(filepath.Join(inbox, name), []byte(`{}`), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}
	// anything else would have been dispatched by now
	time.Sleep(100 * time.Millisecond)

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Start() = %v, want context.Canceled", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 {
		t.Fatalf("expected only a.json to be handled, got %v", seen)
	}
	if seen["a.json"] != filepath.Join(outDir, "a.moments.json") {
		t.Fatalf("unexpected output path %q", seen["a.json"])
	}
}

func TestNew_MissingInbox(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), "", nil, nil, 1)
	if err == nil {
		t.Fatal("expected error for missing inbox")
	}
}
