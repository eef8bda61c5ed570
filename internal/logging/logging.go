package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reloquent/schemaforge/internal/config"
)

const filePrefix = "schemaforge-"

// Setup initializes a logger writing to stderr and to a daily file in
// directory. Files older than retentionDays are removed; zero keeps all.
// The returned file must be closed by the caller.
func Setup(level, directory string, retentionDays int) (*slog.Logger, *os.File, error) {
	if directory == "" {
		directory = config.ExpandHome("~/.schemaforge/logs/")
	} else {
		directory = config.ExpandHome(directory)
	}

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	now := time.Now()
	logPath := filepath.Join(directory, FileName(now))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	if retentionDays > 0 {
		Prune(directory, now.AddDate(0, 0, -retentionDays))
	}

	return New(io.MultiWriter(os.Stderr, file), level), file, nil
}

// New builds a text logger at the given level.
func New(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler)
}

// ParseLevel maps a configured level name to a slog level, defaulting to
// info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FileName returns the log file name for the given day.
func FileName(t time.Time) string {
	return filePrefix + t.Format("2006-01-02") + ".log"
}

// Prune removes daily log files dated before cutoff and returns how many
// were deleted.
func Prune(directory string, cutoff time.Time) int {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return 0
	}
	limit := cutoff.Format("2006-01-02")
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		day := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), ".log")
		if _, err := time.Parse("2006-01-02", day); err != nil || day >= limit {
			continue
		}
		if os.Remove(filepath.Join(directory, name)) == nil {
			removed++
		}
	}
	return removed
}
