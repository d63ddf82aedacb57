// Package logging provides the structured logging contract used across the
// CQRS, service client, event dispatch and step bridge subsystems.
package logging

import (
	"fmt"
	"log"
	"strings"
)

// Logger is the common interface every component in this module logs
// through. Concrete implementations may add structured fields, ship to an
// OpenTelemetry log pipeline, or (in tests) discard everything.
type Logger interface {
	Info(args ...any)
	Infof(format string, args ...any)
	Infoln(args ...any)

	Error(args ...any)
	Errorf(format string, args ...any)
	Errorln(args ...any)

	Warn(args ...any)
	Warnf(format string, args ...any)
	Warnln(args ...any)

	Debug(args ...any)
	Debugf(format string, args ...any)
	Debugln(args ...any)

	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Fatalln(args ...any)

	// WithFields returns a new Logger carrying the given structured
	// key/value pairs on every subsequent call. The receiver is left
	// unchanged.
	WithFields(fields ...any) Logger

	Sync() error
}

// Level represents the severity of a log record.
type Level int8

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

// ParseLevel takes a string level and returns the matching Level constant.
func ParseLevel(lvl string) (Level, error) {
	switch strings.ToLower(lvl) {
	case "fatal":
		return FatalLevel, nil
	case "error":
		return ErrorLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "info":
		return InfoLevel, nil
	case "debug":
		return DebugLevel, nil
	}

	var l Level

	return l, fmt.Errorf("logging: not a valid Level: %q", lvl)
}

// NoneLogger discards everything. Used as the zero-value fallback so
// components never need a nil check before logging.
type NoneLogger struct{}

func (l *NoneLogger) Info(args ...any)                  {}
func (l *NoneLogger) Infof(format string, args ...any)  {}
func (l *NoneLogger) Infoln(args ...any)                {}
func (l *NoneLogger) Error(args ...any)                 {}
func (l *NoneLogger) Errorf(format string, args ...any) {}
func (l *NoneLogger) Errorln(args ...any)               {}
func (l *NoneLogger) Warn(args ...any)                  {}
func (l *NoneLogger) Warnf(format string, args ...any)  {}
func (l *NoneLogger) Warnln(args ...any)                {}
func (l *NoneLogger) Debug(args ...any)                 {}
func (l *NoneLogger) Debugf(format string, args ...any) {}
func (l *NoneLogger) Debugln(args ...any)               {}
func (l *NoneLogger) Fatal(args ...any)                 {}
func (l *NoneLogger) Fatalf(format string, args ...any) {}
func (l *NoneLogger) Fatalln(args ...any)               {}
func (l *NoneLogger) Sync() error                       { return nil }

//nolint:ireturn
func (l *NoneLogger) WithFields(fields ...any) Logger { return l }

// GoLogger is the stdlib `log`-backed implementation of Logger, used when no
// otel/zap backend is wired (tests, CLIs, the simplest possible caller).
type GoLogger struct {
	fields []any
	Level  Level
}

func (l *GoLogger) enabled(level Level) bool { return l.Level >= level }

func (l *GoLogger) Info(args ...any)   { l.log(InfoLevel, args...) }
func (l *GoLogger) Infoln(args ...any) { l.log(InfoLevel, args...) }
func (l *GoLogger) Infof(format string, args ...any) {
	l.logf(InfoLevel, format, args...)
}

func (l *GoLogger) Error(args ...any)   { l.log(ErrorLevel, args...) }
func (l *GoLogger) Errorln(args ...any) { l.log(ErrorLevel, args...) }
func (l *GoLogger) Errorf(format string, args ...any) {
	l.logf(ErrorLevel, format, args...)
}

func (l *GoLogger) Warn(args ...any)   { l.log(WarnLevel, args...) }
func (l *GoLogger) Warnln(args ...any) { l.log(WarnLevel, args...) }
func (l *GoLogger) Warnf(format string, args ...any) {
	l.logf(WarnLevel, format, args...)
}

func (l *GoLogger) Debug(args ...any)   { l.log(DebugLevel, args...) }
func (l *GoLogger) Debugln(args ...any) { l.log(DebugLevel, args...) }
func (l *GoLogger) Debugf(format string, args ...any) {
	l.logf(DebugLevel, format, args...)
}

func (l *GoLogger) Fatal(args ...any)   { l.log(FatalLevel, args...); log.Fatal() }
func (l *GoLogger) Fatalln(args ...any) { l.log(FatalLevel, args...); log.Fatal() }
func (l *GoLogger) Fatalf(format string, args ...any) {
	l.logf(FatalLevel, format, args...)
	log.Fatal()
}

func (l *GoLogger) log(level Level, args ...any) {
	if !l.enabled(level) {
		return
	}

	log.Print(append(append([]any{}, l.fields...), args...)...)
}

func (l *GoLogger) logf(level Level, format string, args ...any) {
	if !l.enabled(level) {
		return
	}

	log.Print(append(append([]any{}, l.fields...), fmt.Sprintf(format, args...))...)
}

func (l *GoLogger) Sync() error { return nil }

//nolint:ireturn
func (l *GoLogger) WithFields(fields ...any) Logger {
	return &GoLogger{
		fields: append(append([]any{}, l.fields...), fields...),
		Level:  l.Level,
	}
}
