// Package logging builds the daemon's structured logger on top of
// charmbracelet/log and expands strftime-style log file paths. It adds
// no fields of its own; callers attach key-value pairs such as a pipe
// index at each call site.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

// New builds a logger writing to out (os.Stderr if nil) at the given
// level ("debug", "info", "warn", "error"), either human-readable
// text or line-delimited JSON. An unrecognized level falls back to
// info rather than failing startup over a typo in a config file or
// flag.
func New(out io.Writer, level string, json bool) *log.Logger {
	if out == nil {
		out = os.Stderr
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)

	if json {
		logger.SetFormatter(log.JSONFormatter)
	}

	return logger
}

// DailyLogPath expands pattern (an strftime-style template, e.g.
// "/var/log/ad-%Y%m%d.log") against t, so a file name can carry a
// date. The file is chosen once, from t; nothing here switches to a
// new file when the date changes.
func DailyLogPath(pattern string, t time.Time) (string, error) {
	f, err := strftime.New(pattern)
	if err != nil {
		return "", fmt.Errorf("logging: invalid log path pattern %q: %w", pattern, err)
	}
	return f.FormatString(t), nil
}

// OpenDailyLogFile opens (creating if necessary) the log file named by
// expanding pattern against t, appending to it if it already exists —
// the expected case when a process restarts partway through a day.
func OpenDailyLogFile(pattern string, t time.Time) (io.WriteCloser, error) {
	path, err := DailyLogPath(pattern, t)
	if err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}
