package logging

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// newTestWriter opens a RotatingWriter in a temp dir with a byte limit small
// enough to rotate after a few lines.
func newTestWriter(t *testing.T, limit int64, cfg RotationConfig) (*RotatingWriter, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logs", LogFileName)
	rw, err := NewRotatingWriter(path, cfg)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	rw.limit = limit
	t.Cleanup(func() { _ = rw.Close() })
	return rw, path
}

func writeLines(t *testing.T, rw *RotatingWriter, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if _, err := rw.Write([]byte(line + "\n")); err != nil {
			t.Fatalf("Write(%q) failed: %v", line, err)
		}
	}
}

func readBackup(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			t.Fatalf("gzip %s: %v", path, err)
		}
		r = zr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestNewRotatingWriter(t *testing.T) {
	t.Run("creates nested directories", func(t *testing.T) {
		_, path := newTestWriter(t, 0, RotationConfig{})
		if _, err := os.Stat(path); err != nil {
			t.Errorf("log file was not created: %v", err)
		}
	})

	t.Run("appends to an existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), LogFileName)
		if err := os.WriteFile(path, []byte("old\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		rw, err := NewRotatingWriter(path, RotationConfig{})
		if err != nil {
			t.Fatal(err)
		}
		writeLines(t, rw, "new")
		_ = rw.Close()

		if got := readBackup(t, path); got != "old\nnew\n" {
			t.Errorf("content = %q", got)
		}
	})
}

func TestRotatingWriter_Rotation(t *testing.T) {
	t.Run("rotates before a write that would not fit", func(t *testing.T) {
		rw, path := newTestWriter(t, 10, RotationConfig{MaxBackups: 2})
		writeLines(t, rw, "aaaa", "bbbb", "cccc")

		if got := readBackup(t, BackupPath(path, 1)); got != "aaaa\nbbbb\n" {
			t.Errorf("backup 1 = %q", got)
		}
		if got := readBackup(t, path); got != "cccc\n" {
			t.Errorf("live log = %q", got)
		}
	})

	t.Run("keeps at most MaxBackups", func(t *testing.T) {
		rw, path := newTestWriter(t, 5, RotationConfig{MaxBackups: 2})
		writeLines(t, rw, "one", "two", "three", "four")

		if got := readBackup(t, BackupPath(path, 1)); got != "three\n" {
			t.Errorf("backup 1 = %q", got)
		}
		if got := readBackup(t, BackupPath(path, 2)); got != "two\n" {
			t.Errorf("backup 2 = %q", got)
		}
		if _, err := os.Stat(BackupPath(path, 3)); !os.IsNotExist(err) {
			t.Error("backup 3 should not exist")
		}
	})

	t.Run("zero backups starts the log over", func(t *testing.T) {
		rw, path := newTestWriter(t, 5, RotationConfig{})
		writeLines(t, rw, "one", "two")

		if _, err := os.Stat(BackupPath(path, 1)); !os.IsNotExist(err) {
			t.Error("no backup should be kept")
		}
		if got := readBackup(t, path); got != "two\n" {
			t.Errorf("live log = %q", got)
		}
	})

	t.Run("oversized record goes to an empty file", func(t *testing.T) {
		rw, path := newTestWriter(t, 4, RotationConfig{MaxBackups: 1})
		writeLines(t, rw, "a very long line")

		if _, err := os.Stat(BackupPath(path, 1)); !os.IsNotExist(err) {
			t.Error("an empty log should not be rotated")
		}
	})

	t.Run("zero limit disables rotation", func(t *testing.T) {
		rw, path := newTestWriter(t, 0, RotationConfig{MaxBackups: 1})
		for i := range 100 {
			writeLines(t, rw, fmt.Sprintf("line %d", i))
		}
		if _, err := os.Stat(BackupPath(path, 1)); !os.IsNotExist(err) {
			t.Error("rotation happened with no limit")
		}
	})
}

func TestRotatingWriter_Compress(t *testing.T) {
	rw, path := newTestWriter(t, 5, RotationConfig{MaxBackups: 3, Compress: true})
	writeLines(t, rw, "one", "two", "three")

	// Compression finishes before Write returns.
	for n, want := range map[int]string{1: "two\n", 2: "one\n"} {
		gz := BackupPath(path, n) + ".gz"
		if got := readBackup(t, gz); got != want {
			t.Errorf("backup %d = %q, want %q", n, got, want)
		}
		if _, err := os.Stat(BackupPath(path, n)); !os.IsNotExist(err) {
			t.Errorf("uncompressed backup %d left behind", n)
		}
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temporary archives left behind: %v", matches)
	}
}

func TestRotatingWriter_ReportsRotationFailure(t *testing.T) {
	var warnings bytes.Buffer
	rw, path := newTestWriter(t, 5, RotationConfig{MaxBackups: 1, Warnings: &warnings})

	// A directory in the backup's place makes the rename fail.
	if err := os.MkdirAll(filepath.Join(BackupPath(path, 1), "blocker"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeLines(t, rw, "one", "two")

	if !strings.Contains(warnings.String(), "log rotation failed") {
		t.Errorf("warnings = %q", warnings.String())
	}
	if got := readBackup(t, path); got != "one\ntwo\n" {
		t.Errorf("live log = %q, want both lines kept", got)
	}
}

func TestRotatingWriter_Concurrency(t *testing.T) {
	rw, path := newTestWriter(t, 2000, RotationConfig{MaxBackups: 50})

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				if _, err := fmt.Fprintf(rw, "goroutine %d line %d\n", g, i); err != nil {
					t.Errorf("write failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()
	_ = rw.Close()

	backups, err := Backups(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := 0
	for _, p := range append(backups, path) {
		lines += strings.Count(readBackup(t, p), "\n")
	}
	if lines != 400 {
		t.Errorf("lines across files = %d, want 400", lines)
	}
}

func TestRotatingWriter_Close(t *testing.T) {
	rw, _ := newTestWriter(t, 0, RotationConfig{})

	if err := rw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if _, err := rw.Write([]byte("late\n")); err == nil {
		t.Error("Write after Close should fail")
	}
	if err := rw.Sync(); err != nil {
		t.Errorf("Sync after Close = %v, want nil", err)
	}
}

func TestBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, LogFileName)
	for _, name := range []string{
		LogFileName,
		LogFileName + ".1",
		LogFileName + ".1.gz", // mid-compression: the archive wins
		LogFileName + ".2.gz",
		LogFileName + ".10",
		LogFileName + ".3.gz.tmp",
		LogFileName + ".old",
		"other.log.1",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := Backups(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, LogFileName+".10"),
		filepath.Join(dir, LogFileName+".2.gz"),
		filepath.Join(dir, LogFileName+".1.gz"),
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Backups() = %v, want %v", got, want)
	}

	if got, err := Backups(filepath.Join(dir, "missing", LogFileName)); err != nil || got != nil {
		t.Errorf("Backups(missing dir) = %v, %v", got, err)
	}
}

func TestNewLoggerWithRotation(t *testing.T) {
	t.Run("writes to stderr when logDir is empty", func(t *testing.T) {
		logger, err := NewLoggerWithRotation("", LevelInfo, RotationConfig{MaxSizeMB: 1})
		if err != nil {
			t.Fatalf("NewLoggerWithRotation failed: %v", err)
		}
		if logger.closer != nil {
			t.Error("stderr logger should own no file")
		}
	})

	t.Run("runs survive rotation in the aggregate", func(t *testing.T) {
		dir := t.TempDir()
		logger, err := NewLoggerWithRotation(dir, LevelDebug, RotationConfig{MaxSizeMB: 1, MaxBackups: 10, Compress: true})
		if err != nil {
			t.Fatalf("NewLoggerWithRotation failed: %v", err)
		}
		logger.closer.(*RotatingWriter).limit = 300

		for i := range 12 {
			logger.WithRun(fmt.Sprintf("run-%d", i%3)).Info("scenario passed", "iteration", i)
		}
		_ = logger.Close()

		backups, err := Backups(filepath.Join(dir, LogFileName))
		if err != nil || len(backups) == 0 {
			t.Fatalf("Backups() = %v, %v; want rotated files", backups, err)
		}

		entries, err := AggregateLogs(dir)
		if err != nil {
			t.Fatalf("AggregateLogs failed: %v", err)
		}
		if len(entries) != 12 {
			t.Errorf("aggregated %d entries, want 12", len(entries))
		}
		if got := FilterLogs(entries, LogFilter{RunID: "run-0"}); len(got) != 4 {
			t.Errorf("run-0 entries = %d, want 4", len(got))
		}
	})
}
