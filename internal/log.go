package internal

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is a thin levelled wrapper around a logrus entry. A nil *Logger
// discards everything.
type Logger struct {
	entry *logrus.Entry
}

func NewLogger(out io.Writer, level string) *Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	lg := &Logger{entry: logrus.NewEntry(l)}
	lg.SetLevel(level)
	return lg
}

func NopLogger() *Logger {
	return NewLogger(io.Discard, "error")
}

func (l *Logger) SetLevel(level string) {
	if l == nil {
		return
	}
	switch strings.ToLower(level) {
	case "trace":
		l.entry.Logger.SetLevel(logrus.TraceLevel)
	case "debug":
		l.entry.Logger.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		l.entry.Logger.SetLevel(logrus.WarnLevel)
	case "error":
		l.entry.Logger.SetLevel(logrus.ErrorLevel)
	default:
		l.entry.Logger.SetLevel(logrus.InfoLevel)
	}
}

func (l *Logger) SetOutput(out io.Writer) {
	if l == nil {
		return
	}
	l.entry.Logger.SetOutput(out)
}

func (l *Logger) WithField(key string, value any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{entry: l.entry.WithField(key, value)}
}

func (l *Logger) WithFields(fields map[string]any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *Logger) Debug(format string, args ...any) {
	if l != nil {
		l.entry.Debugf(format, args...)
	}
}

func (l *Logger) Info(format string, args ...any) {
	if l != nil {
		l.entry.Infof(format, args...)
	}
}

func (l *Logger) Warn(format string, args ...any) {
	if l != nil {
		l.entry.Warnf(format, args...)
	}
}

func (l *Logger) Error(format string, args ...any) {
	if l != nil {
		l.entry.Errorf(format, args...)
	}
}
