// Package log provides the process-wide structured logger. The concrete
// backend is logrus; everything else in the agent talks to the Logger
// interface so the backend can be swapped without touching call sites.
package log

import (
	"sync"
)

type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger
}

var (
	mu     sync.RWMutex
	logger Logger = newConsoleLogger()
)

// GetLogger returns the process logger. Before Init it is a plain
// console logger at info level.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Init replaces the process logger according to cfg. It is expected to
// be called once during startup, before any component goroutine runs.
func Init(cfg *Config) error {
	l, err := newFromConfig(cfg)
	if err != nil {
		return err
	}
	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}
