package logger

import (
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"codeberg.org/mutker/meterdash/internal/errors"
	"github.com/rs/zerolog"
)

var log = zerolog.Nop()

type LogLevel int8

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// LogEvent is a pending log line. A nil inner event (level disabled) is
// safe to chain on.
type LogEvent struct {
	*zerolog.Event
}

// Init sets up console logging on stdout. Debug wins over verbose; the
// default level is warning.
func Init(debug, verbose, isService bool) {
	w := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	if isService {
		// journald stamps lines itself
		w.FormatTimestamp = func(any) string { return "" }
	}
	log = newLogger(w)

	switch {
	case debug:
		SetLogLevel(DebugLevel)
	case verbose:
		SetLogLevel(InfoLevel)
	default:
		SetLogLevel(WarnLevel)
	}
}

// SetOutput sends further log lines to w, uncolored and stamped with the
// time of day only. The level is left alone.
func SetOutput(w io.Writer) {
	log = newLogger(zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.TimeOnly})
}

func newLogger(w zerolog.ConsoleWriter) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

func SetLogLevel(level LogLevel) {
	zerolog.SetGlobalLevel(zerolog.Level(level))
}

// ParseLevel maps a configured level name onto a LogLevel. Unknown names
// yield WarnLevel together with the error.
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	}

	return WarnLevel, errors.New().WithData(errors.ErrInvalidLogLevel, name)
}

// IsService reports whether the process looks like it was started by an
// init system rather than from a terminal.
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	for _, env := range []string{"SERVICE_NAME", "INVOCATION_ID"} {
		if os.Getenv(env) != "" {
			return true
		}
	}

	return os.Getppid() == 1 || syscall.Getpgrp() == syscall.Getpid()
}

func Debug() *LogEvent { return &LogEvent{log.Debug()} }
func Info() *LogEvent  { return &LogEvent{log.Info()} }
func Warn() *LogEvent  { return &LogEvent{log.Warn()} }
func Error() *LogEvent { return &LogEvent{log.Error()} }

// Failure starts an error line for err, tagged with its error code when it
// carries one.
func Failure(err error) *LogEvent {
	ev := log.Error().Err(err)
	if code := errors.CodeOf(err); code != "" {
		ev = ev.Str("error_code", string(code))
	}

	return &LogEvent{ev}
}

type packageLogger struct{}

// Get returns the package-level logger as a Logger.
func Get() Logger {
	return packageLogger{}
}

func (packageLogger) Debug() *LogEvent            { return Debug() }
func (packageLogger) Info() *LogEvent             { return Info() }
func (packageLogger) Warn() *LogEvent             { return Warn() }
func (packageLogger) Error() *LogEvent            { return Error() }
func (packageLogger) Failure(err error) *LogEvent { return Failure(err) }
