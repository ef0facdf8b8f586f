// Package dlog is a thin wrapper around github.com/sirupsen/logrus with two
// tiers, Info and Verbose, injected into callers rather than reached for as
// a global.
package dlog

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger is the tool's leveled logger.
type Logger struct {
	entry *logrus.Logger
}

// New returns a Logger that writes to w. verbose raises the level to Debug.
func New(w io.Writer, verbose bool) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return &Logger{entry: l}
}

// Info logs a one-line user-visible summary.
func (l *Logger) Info(args ...interface{}) { l.entry.Info(args...) }

// Infof is Info with formatting.
func (l *Logger) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }

// Verbose logs resolver tracing, visible only with -v.
func (l *Logger) Verbose(args ...interface{}) { l.entry.Debug(args...) }

// Verbosef is Verbose with formatting.
func (l *Logger) Verbosef(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

// Error logs a fatal, user-visible diagnostic.
func (l *Logger) Error(args ...interface{}) { l.entry.Error(args...) }
