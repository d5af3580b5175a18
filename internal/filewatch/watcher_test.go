package filewatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Iron-Ham/slotsig/internal/errors"
)

// startWatcher runs w in the background and returns a channel of changed
// paths. The watcher is stopped when the test ends.
func startWatcher(t *testing.T, w *Watcher) <-chan string {
	t.Helper()

	changes := make(chan string, 16)
	w.Changed.Connect(func(path string) {
		changes <- path
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
		_ = w.Close()
	})
	return changes
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestWatcher_ReportsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	writeFile(t, path, "name: a\n")

	w, err := New(WithDebounce(10 * time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Add(path); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	changes := startWatcher(t, w)

	writeFile(t, path, "name: b\n")

	select {
	case got := <-changes:
		want, _ := filepath.Abs(path)
		if got != want {
			t.Errorf("changed path = %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}

func TestWatcher_ReportsRenameReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "a: 1\n")

	w, err := New(WithDebounce(10 * time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Add(path); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	changes := startWatcher(t, w)

	tmp := filepath.Join(dir, "config.yaml.tmp")
	writeFile(t, tmp, "a: 2\n")
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.yaml")
	other := filepath.Join(dir, "other.yaml")
	writeFile(t, path, "x\n")

	w, err := New(WithDebounce(10 * time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Add(path); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	changes := startWatcher(t, w)

	writeFile(t, other, "y\n")

	select {
	case got := <-changes:
		t.Errorf("unexpected change for %q", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_AddMissingFile(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = w.Close() }()

	err = w.Add(filepath.Join(t.TempDir(), "missing.yaml"))

	var notFound *errors.NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("Add() error = %v, want NotFoundError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Add() error = %v, want it to keep os.ErrNotExist", err)
	}
}

func TestWatcher_AddRemove(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	writeFile(t, a, "a\n")
	writeFile(t, b, "b\n")

	w, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = w.Close() }()

	for _, p := range []string{a, b, a} {
		if err := w.Add(p); err != nil {
			t.Fatalf("Add(%s) error = %v", p, err)
		}
	}
	if w.Files() != 2 {
		t.Errorf("Files() = %d, want 2", w.Files())
	}

	w.Remove(a)
	w.Remove(a)
	if w.Files() != 1 {
		t.Errorf("Files() = %d after Remove, want 1", w.Files())
	}
	if w.dirs[dir] != 1 {
		t.Errorf("directory refcount = %d, want 1", w.dirs[dir])
	}
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := w.Run(ctx); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
}
