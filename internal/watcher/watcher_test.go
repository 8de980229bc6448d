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

type recorder struct {
	mu    sync.Mutex
	calls []string
	ch    chan string
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan string, 16)}
}

func (r *recorder) onChange(_ context.Context, path string) {
	r.mu.Lock()
	r.calls = append(r.calls, path)
	r.mu.Unlock()
	r.ch <- path
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("a"), 0600); err != nil {
		t.Fatal(err)
	}
	rec := newRecorder()
	w := NewWatcher(path, rec.onChange, WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("a\n\nb"), 0600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case got := <-rec.ch:
		if got != w.Path() {
			t.Errorf("onChange path = %s, want %s", got, w.Path())
		}
	case <-time.After(3 * time.Second):
		t.Fatal("onChange was not called")
	}
	time.Sleep(300 * time.Millisecond)
	if n := rec.count(); n != 1 {
		t.Errorf("onChange called %d times, want 1", n)
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("a"), 0600); err != nil {
		t.Fatal(err)
	}
	rec := newRecorder()
	w := NewWatcher(path, rec.onChange, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Errorf("onChange called %d times for sibling file", n)
	}
}

func TestWatcher_StopCancelsPending(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("a"), 0600); err != nil {
		t.Fatal(err)
	}
	rec := newRecorder()
	w := NewWatcher(path, rec.onChange, WithDebounce(500*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("b"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	w.Stop()
	time.Sleep(700 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Errorf("onChange called %d times after Stop", n)
	}
}

func TestWatcher_ContextCancelStops(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	w := NewWatcher(path, nil)
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(ctx); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start: got %v, want ErrAlreadyStarted", err)
	}
	cancel()
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancel")
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing", "notes.txt"), nil)
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Error("expected error for missing parent directory")
	}
}

func TestWatcher_FiredTimerKeepsNewerPending(t *testing.T) {
	rec := newRecorder()
	w := NewWatcher(filepath.Join(t.TempDir(), "notes.txt"), rec.onChange, WithDebounce(10*time.Millisecond))
	ctx := context.Background()

	w.schedule(ctx)
	w.mu.Lock()
	// Let the first timer fire while its callback waits on the lock.
	time.Sleep(100 * time.Millisecond)
	w.debounce = time.Hour
	w.scheduleLocked(ctx)
	newer := w.timer
	w.mu.Unlock()

	select {
	case <-rec.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("first timer did not fire")
	}
	w.mu.Lock()
	pending := w.timer
	w.mu.Unlock()
	if pending != newer {
		t.Fatal("fired timer cleared the newer pending timer")
	}
	w.cancel()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		t.Error("cancel did not clear the pending timer")
	}
}
