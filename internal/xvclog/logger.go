// Package xvclog wraps logrus with the field conventions used throughout
// the bridge: every log line is scoped to an instance name and, where
// applicable, a client session address.
package xvclog

import (
	"github.com/sirupsen/logrus"
)

// Logger is a thin *logrus.Entry wrapper carrying a fixed set of fields.
type Logger struct {
	entry *logrus.Entry
}

// New returns the root Logger for the process, reading its level from
// levelName (one of trace, debug, info, warn, error, fatal; defaults to
// info on an unrecognized value).
func New(levelName string) *Logger {
	l := logrus.New()
	lvl, err := logrus.ParseLevel(levelName)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return &Logger{entry: logrus.NewEntry(l)}
}

// WithInstance returns a child Logger tagged with the configured
// instance name, so every subsequent line can be attributed to a device.
func (l *Logger) WithInstance(name string) *Logger {
	return &Logger{entry: l.entry.WithField("instance", name)}
}

// WithSession returns a child Logger additionally tagged with the
// client's remote address, for the lifetime of one XVC connection.
func (l *Logger) WithSession(remoteAddr string) *Logger {
	return &Logger{entry: l.entry.WithField("session", remoteAddr)}
}

func (l *Logger) Trace(args ...interface{}) { l.entry.Trace(args...) }
func (l *Logger) Debug(args ...interface{}) { l.entry.Debug(args...) }
func (l *Logger) Info(args ...interface{})  { l.entry.Info(args...) }
func (l *Logger) Warn(args ...interface{})  { l.entry.Warn(args...) }
func (l *Logger) Error(args ...interface{}) { l.entry.Error(args...) }
func (l *Logger) Fatal(args ...interface{}) { l.entry.Fatal(args...) }

func (l *Logger) Tracef(format string, args ...interface{}) { l.entry.Tracef(format, args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
