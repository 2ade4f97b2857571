package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var numberedLogRegex = regexp.MustCompile(`^app-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingWriter writes to one log file per ISO week. When a file reaches
// maxFileSize the writer moves on to app-YYYY-Www_NN.log. Files older than
// the retention are removed once a day.
type RotatingWriter struct {
	logDir      string
	retention   time.Duration
	maxFileSize int64

	mu          sync.Mutex
	file        *os.File
	week        string
	size        int64
	cancel      context.CancelFunc
	cleanupDone chan struct{}
}

// NewRotatingWriter opens the log file of the current week and starts the
// retention cleanup
func NewRotatingWriter(logDir string, retentionWeeks int, maxFileSize int64) (*RotatingWriter, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	rw := &RotatingWriter{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}

	rw.mu.Lock()
	err := rw.openFor(weekKey(time.Now()), false)
	rw.mu.Unlock()
	if err != nil {
		cancel()
		return nil, err
	}

	go rw.cleanupLoop(ctx)
	return rw, nil
}

// weekKey returns the ISO week in YYYY-Www format
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Write implements io.Writer
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	week := weekKey(time.Now())
	full := rw.maxFileSize > 0 && rw.size+int64(len(p)) > rw.maxFileSize

	if week != rw.week || full {
		if err := rw.openFor(week, full && week == rw.week); err != nil {
			return 0, err
		}
	}

	if rw.file == nil {
		return 0, fmt.Errorf("no log file available")
	}

	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

// openFor switches to the file of week. Caller must hold mu.
func (rw *RotatingWriter) openFor(week string, sizeRotation bool) error {
	if rw.file != nil {
		_ = rw.file.Close()
		rw.file = nil
	}

	name := rw.pickFile(week, sizeRotation)
	path := filepath.Join(rw.logDir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	rw.file = f
	rw.week = week
	rw.size = 0
	if info, err := f.Stat(); err == nil {
		rw.size = info.Size()
	}
	return nil
}

// pickFile returns the base weekly file while it has room, otherwise the
// last numbered file with room, otherwise the next numbered file
func (rw *RotatingWriter) pickFile(week string, sizeRotation bool) string {
	base := fmt.Sprintf("app-%s.log", week)
	if !sizeRotation && !rw.isFull(filepath.Join(rw.logDir, base)) {
		return base
	}

	matches, _ := filepath.Glob(filepath.Join(rw.logDir, fmt.Sprintf("app-%s_??.log", week)))
	highest := 0
	highestPath := ""
	for _, m := range matches {
		sub := numberedLogRegex.FindStringSubmatch(filepath.Base(m))
		if len(sub) < 2 {
			continue
		}
		if n, _ := strconv.Atoi(sub[1]); n > highest {
			highest = n
			highestPath = m
		}
	}

	if highestPath != "" && !rw.isFull(highestPath) {
		return filepath.Base(highestPath)
	}
	return fmt.Sprintf("app-%s_%02d.log", week, highest+1)
}

func (rw *RotatingWriter) isFull(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return rw.maxFileSize > 0 && info.Size() >= rw.maxFileSize
}

func (rw *RotatingWriter) cleanupLoop(ctx context.Context) {
	defer close(rw.cleanupDone)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := rw.cleanupOldLogs(); err != nil {
				fmt.Fprintf(os.Stderr, "log cleanup failed: %v\n", err)
			}
		}
	}
}

// cleanupOldLogs removes app-*.log files older than the retention
func (rw *RotatingWriter) cleanupOldLogs() error {
	entries, err := os.ReadDir(rw.logDir)
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := time.Now().Add(-rw.retention)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(rw.logDir, name))
		}
	}
	return nil
}

// Close stops the cleanup goroutine and closes the current file
func (rw *RotatingWriter) Close() error {
	rw.cancel()
	<-rw.cleanupDone

	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return nil
	}
	err := rw.file.Close()
	rw.file = nil
	return err
}
