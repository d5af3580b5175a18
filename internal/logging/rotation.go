package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Iron-Ham/slotsig/internal/errors"
)

// RotationConfig controls when the debug log is moved aside and how many
// old files are kept.
type RotationConfig struct {
	// MaxSizeMB rotates the log before a write would take it past this size.
	// Zero disables rotation.
	MaxSizeMB int
	// MaxBackups is how many rotated files are kept next to the log. Zero
	// keeps none: the log starts over.
	MaxBackups int
	// Compress gzips each rotated file.
	Compress bool
	// Warnings receives rotation failures, which never fail a write.
	// Nil means os.Stderr.
	Warnings io.Writer
}

// RotatingWriter appends to a log file and rotates it by size. Backups sit
// next to the log as <name>.1 (newest) through <name>.N, gzipped when
// configured. A compressed backup is complete before the write that caused
// the rotation lands, so AggregateLogs can read every backup at any time.
// It is safe for concurrent use.
type RotatingWriter struct {
	mu    sync.Mutex
	path  string
	cfg   RotationConfig
	limit int64

	file *os.File
	size int64
}

// NewRotatingWriter opens path for appending, creating its directory.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	if cfg.Warnings == nil {
		cfg.Warnings = os.Stderr
	}
	rw := &RotatingWriter{
		path:  path,
		cfg:   cfg,
		limit: int64(cfg.MaxSizeMB) << 20,
	}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

func (rw *RotatingWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(rw.path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(rw.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	rw.file = file
	rw.size = info.Size()
	return nil
}

// Write appends p, rotating first when p would not fit. A record larger
// than the limit is written to an empty file rather than rotating one.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return 0, fmt.Errorf("log file is closed")
	}
	if rw.limit > 0 && rw.size > 0 && rw.size+int64(len(p)) > rw.limit {
		if err := rw.rotate(); err != nil {
			fmt.Fprintf(rw.cfg.Warnings, "Warning: log rotation failed: %v\n", err)
		}
		if rw.file == nil {
			return 0, fmt.Errorf("log file lost during rotation")
		}
	}

	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

// rotate moves the current file aside and opens a fresh one. The caller
// holds mu. On failure the writer keeps appending to whatever file it has.
func (rw *RotatingWriter) rotate() error {
	if err := rw.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	rw.file = nil

	if rw.cfg.MaxBackups <= 0 {
		if err := os.Remove(rw.path); err != nil && !os.IsNotExist(err) {
			return errors.Join(fmt.Errorf("failed to remove log file: %w", err), rw.open())
		}
		return rw.open()
	}

	rw.shiftBackups()
	backup := BackupPath(rw.path, 1)
	if err := os.Rename(rw.path, backup); err != nil {
		return errors.Join(fmt.Errorf("failed to rename log file: %w", err), rw.open())
	}
	if err := rw.open(); err != nil {
		return err
	}
	if rw.cfg.Compress {
		return compressFile(backup)
	}
	return nil
}

// shiftBackups renumbers backup i to i+1, dropping the oldest.
func (rw *RotatingWriter) shiftBackups() {
	oldest := BackupPath(rw.path, rw.cfg.MaxBackups)
	_ = os.Remove(oldest)
	_ = os.Remove(oldest + ".gz")

	for i := rw.cfg.MaxBackups - 1; i >= 1; i-- {
		from, to := BackupPath(rw.path, i), BackupPath(rw.path, i+1)
		_ = os.Rename(from, to)
		_ = os.Rename(from+".gz", to+".gz")
	}
}

// compressFile replaces path with path.gz. The archive is written under a
// temporary name first so readers never see a partial one.
func compressFile(path string) (err error) {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open backup for compression: %w", err)
	}
	defer func() { _ = src.Close() }()

	tmp := path + ".gz.tmp"
	dst, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create compressed backup: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	zw := gzip.NewWriter(dst)
	if _, err = io.Copy(zw, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to compress backup: %w", err)
	}
	if err = zw.Close(); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to finish compressed backup: %w", err)
	}
	if err = dst.Close(); err != nil {
		return fmt.Errorf("failed to close compressed backup: %w", err)
	}
	if err = os.Rename(tmp, path+".gz"); err != nil {
		return fmt.Errorf("failed to publish compressed backup: %w", err)
	}
	return os.Remove(path)
}

// Sync flushes the current file to disk.
func (rw *RotatingWriter) Sync() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.file == nil {
		return nil
	}
	return rw.file.Sync()
}

// Close syncs and closes the current file. Later writes fail.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.file == nil {
		return nil
	}
	if err := rw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	err := rw.file.Close()
	rw.file = nil
	if err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// BackupPath returns the path of the nth backup of the log at logPath,
// without the .gz suffix a compressed backup carries.
func BackupPath(logPath string, n int) string {
	return logPath + "." + strconv.Itoa(n)
}

// Backups lists the rotated files of the log at logPath, oldest first.
// Compressed and plain backups are both listed; in-progress archives are
// not.
func Backups(logPath string) ([]string, error) {
	dir, base := filepath.Split(logPath)
	if dir == "" {
		dir = "."
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list log directory: %w", err)
	}

	// A plain backup and its archive coexist briefly while compressing;
	// the archive wins.
	byNum := make(map[int]string)
	for _, e := range ents {
		name, ok := strings.CutPrefix(e.Name(), base+".")
		if !ok || e.IsDir() {
			continue
		}
		num, gz := strings.CutSuffix(name, ".gz")
		n, err := strconv.Atoi(num)
		if err != nil || n < 1 {
			continue
		}
		if _, seen := byNum[n]; seen && !gz {
			continue
		}
		byNum[n] = filepath.Join(dir, e.Name())
	}

	nums := make([]int, 0, len(byNum))
	for n := range byNum {
		nums = append(nums, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(nums)))
	paths := make([]string, len(nums))
	for i, n := range nums {
		paths[i] = byNum[n]
	}
	return paths, nil
}
