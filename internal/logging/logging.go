// Package logging builds the tiered loggers used across the pipeline: a
// console sink whose threshold follows the verbosity setting and an optional
// per-run log file that records everything.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Verbosity levels accepted by the CLI.
const (
	Silent   = 0
	Errors   = 1
	Warnings = 2
	Info     = 3
	Debug    = 4
)

// Options configures New.
type Options struct {
	// Verbosity selects the console threshold, 0 (silent) to 4 (debug).
	Verbosity int
	// Console defaults to os.Stderr.
	Console io.Writer
	// File, when set, receives every message regardless of verbosity.
	File string
	// Formatting switches the file sink from logfmt to styled text with
	// timestamps.
	Formatting bool
	Prefix     string
}

// Logger fans structured messages out to every configured sink.
type Logger struct {
	sinks  []*log.Logger
	closer io.Closer
}

// New returns a logger for the given options. The caller must Close it when a
// log file was requested.
func New(opts Options) (*Logger, error) {
	l := &Logger{}

	if level, ok := ConsoleLevel(opts.Verbosity); ok {
		out := opts.Console
		if out == nil {
			out = os.Stderr
		}
		l.sinks = append(l.sinks, log.NewWithOptions(out, log.Options{
			Level:  level,
			Prefix: opts.Prefix,
		}))
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		fileOpts := log.Options{
			Level:     log.DebugLevel,
			Prefix:    opts.Prefix,
			Formatter: log.LogfmtFormatter,
		}
		if opts.Formatting {
			fileOpts.Formatter = log.TextFormatter
			fileOpts.ReportTimestamp = true
			fileOpts.TimeFormat = time.DateTime
		}
		l.sinks = append(l.sinks, log.NewWithOptions(f, fileOpts))
		l.closer = f
	}

	return l, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{}
}

// ConsoleLevel maps a verbosity setting to a console threshold. The second
// result is false when the console must stay silent.
func ConsoleLevel(verbosity int) (log.Level, bool) {
	switch {
	case verbosity <= Silent:
		return 0, false
	case verbosity == Errors:
		return log.ErrorLevel, true
	case verbosity == Warnings:
		return log.WarnLevel, true
	case verbosity == Info:
		return log.InfoLevel, true
	default:
		return log.DebugLevel, true
	}
}

// FileName builds the per-run log path: <dir>/<input base>_<timestamp>.log.
func FileName(dir, input string, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if base == "" || base == "." {
		base = "run"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s.log", base, now.Format("20060102_150405")))
}

// With returns a logger that adds keyvals to every message.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	if l == nil {
		return Nop()
	}
	child := &Logger{sinks: make([]*log.Logger, len(l.sinks))}
	for i, s := range l.sinks {
		child.sinks[i] = s.With(keyvals...)
	}
	return child
}

func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.each(func(s *log.Logger) { s.Debug(msg, keyvals...) })
}

func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.each(func(s *log.Logger) { s.Info(msg, keyvals...) })
}

func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.each(func(s *log.Logger) { s.Warn(msg, keyvals...) })
}

func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.each(func(s *log.Logger) { s.Error(msg, keyvals...) })
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *Logger) each(fn func(*log.Logger)) {
	if l == nil {
		return
	}
	for _, s := range l.sinks {
		fn(s)
	}
}
