package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/churn-project/churn-dataset/constants"
	pconstants "github.com/turbot/pipe-fittings/constants"
	"github.com/turbot/pipe-fittings/sanitize"
)

// Initialize sets the default logger. The returned func closes the log file, if one was opened.
func Initialize(appName string) func() {
	logger, closer := NewLogger(appName, os.Stderr)
	slog.SetDefault(logger)
	return func() {
		_ = closer.Close()
	}
}

// NewLogger returns a JSON logger which writes to w (and to the log dir, if configured) and sanitizes log entries.
// The closer closes the log file; it does nothing if no log file is open.
func NewLogger(appName string, w io.Writer) (*slog.Logger, io.Closer) {
	level := getLogLevel()
	if level == pconstants.LogLevelOff {
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})), nopCloser{}
	}

	handlerOptions := &slog.HandlerOptions{
		Level: level,

		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			sanitized := sanitize.Instance.SanitizeKeyValue(a.Key, a.Value.Any())

			return slog.Attr{
				Key:   a.Key,
				Value: slog.AnyValue(sanitized),
			}
		},
	}

	var closer io.Closer = nopCloser{}
	if logDir := os.Getenv(constants.EnvLogDir); logDir != "" {
		f, err := openLogFile(logDir, time.Now())
		if err != nil {
			// carry on logging to w only
			fmt.Fprintf(w, "failed to open log file in %s: %s\n", logDir, err.Error())
		} else {
			w = io.MultiWriter(w, f)
			closer = f
		}
	}

	return slog.New(slog.NewJSONHandler(w, handlerOptions)).With("source", appName), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openLogFile opens (for append) the log file for the given day, e.g. <dir>/2024_10_16.log
func openLogFile(dir string, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, LogFileName(now))
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}

func LogFileName(now time.Time) string {
	return now.Format("2006_01_02") + ".log"
}

func getLogLevel() slog.Leveler {
	levelEnv := os.Getenv(constants.EnvLogLevel)
	if levelEnv == "" {
		levelEnv = constants.DefaultLogLevel
	}

	switch strings.ToLower(levelEnv) {
	case "trace", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "off":
		return pconstants.LogLevelOff
	default:
		return slog.LevelInfo
	}
}
