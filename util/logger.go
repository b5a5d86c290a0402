// Package util provides low-level helpers shared by all other packages.
package util

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
)

// Format selects how log lines are rendered.
type Format string

const (
	// FormatText renders "[INF] key=value message" lines.
	FormatText Format = "text"
	// FormatJSON renders one zerolog JSON object per line.
	FormatJSON Format = "json"
)

// ParseFormat accepts "text" or "json" (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown log format %q (want text or json)", s)
}

type field struct {
	key, value string
}

// sink is the output shared between a Logger and every child created
// with [Logger.With].
type sink struct {
	mu         sync.Mutex
	output     io.Writer
	timestamps bool
	format     Format
	zl         zerolog.Logger
}

func (s *sink) rebuild() {
	s.zl = zerolog.New(s.output)
	if s.timestamps {
		s.zl = s.zl.With().Timestamp().Logger()
	}
}

// Logger writes levelled messages to stderr with optional timestamps
// and level prefixes.
type Logger struct {
	level  LogLevel
	sink   *sink
	fields []field
}

// NewLogger returns a Logger that prints messages at or below the given
// verbosity (0 = quiet, 1 = normal, 2 = verbose, 3 = debug).
func NewLogger(verbosity int) *Logger {
	s := &sink{
		output:     os.Stderr,
		timestamps: verbosity >= 3, // auto-enable timestamps in debug mode
		format:     FormatText,
	}
	s.rebuild()
	return &Logger{level: LogLevel(verbosity), sink: s}
}

// SetTimestamps enables or disables timestamp prefixes.
func (l *Logger) SetTimestamps(on bool) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.timestamps = on
	l.sink.rebuild()
}

// SetOutput overrides the output writer (default: os.Stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.output = w
	l.sink.rebuild()
}

// SetFormat switches between text and JSON rendering.
func (l *Logger) SetFormat(f Format) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.format = f
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel { return l.level }

// With returns a child logger that adds key=value to every line.  The
// child shares output, format and lock with its parent.
func (l *Logger) With(key string, value interface{}) *Logger {
	fields := make([]field, len(l.fields), len(l.fields)+1)
	copy(fields, l.fields)
	fields = append(fields, field{key: key, value: fmt.Sprint(value)})
	return &Logger{level: l.level, sink: l.sink, fields: fields}
}

// Info prints when verbosity ≥ 1.  Prefixed with [INF].
func (l *Logger) Info(format string, args ...interface{}) {
	if l.level >= LogNormal {
		l.write("INF", format, args...)
	}
}

// Warn prints when verbosity ≥ 1.  Prefixed with [WRN].
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.level >= LogNormal {
		l.write("WRN", format, args...)
	}
}

// Verbose prints when verbosity ≥ 2.  Prefixed with [VRB].
func (l *Logger) Verbose(format string, args ...interface{}) {
	if l.level >= LogVerbose {
		l.write("VRB", format, args...)
	}
}

// Debug prints when verbosity ≥ 3.  Prefixed with [DBG].
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level >= LogDebug {
		l.write("DBG", format, args...)
	}
}

// Error always prints regardless of verbosity.  Prefixed with [ERR].
func (l *Logger) Error(format string, args ...interface{}) {
	l.write("ERR", format, args...)
}

func (l *Logger) write(level, format string, args ...interface{}) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if s.format == FormatJSON {
		ev := s.zl.WithLevel(zerologLevel(level))
		for _, f := range l.fields {
			ev = ev.Str(f.key, f.value)
		}
		ev.Msg(msg)
		return
	}

	var b strings.Builder
	if s.timestamps {
		b.WriteString(time.Now().Format("15:04:05.000"))
		b.WriteByte(' ')
	}
	b.WriteString("[" + level + "] ")
	for _, f := range l.fields {
		b.WriteString(f.key + "=" + f.value + " ")
	}
	b.WriteString(msg)
	b.WriteByte('\n')
	io.WriteString(s.output, b.String()) //nolint:errcheck
}

func zerologLevel(level string) zerolog.Level {
	switch level {
	case "ERR":
		return zerolog.ErrorLevel
	case "WRN":
		return zerolog.WarnLevel
	case "INF":
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}
