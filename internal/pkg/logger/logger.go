// Package logger wraps logrus with the printf-style Info/Warn/Debug/Error
// calls used throughout the engine, and a per-commandId field helper for
// stage metrics (spec.md §7).
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu  sync.RWMutex
	std = logrus.New()
)

func init() {
	std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	std.SetOutput(os.Stdout)
	std.SetLevel(logrus.InfoLevel)
}

// InitLog points the logger at a file in addition to stdout and raises the
// level to Debug when PROMPTENGINE_DEBUG is set. Mirrors the teacher's
// logger.InitLog(logPath) call site in cmd/golem.
func InitLog(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	std.SetOutput(io.MultiWriter(os.Stdout, f))
	if os.Getenv("PROMPTENGINE_DEBUG") != "" {
		std.SetLevel(logrus.DebugLevel)
	}
	return nil
}

// FlushLog is a no-op for logrus (no buffered writer today) kept so callers
// can defer it unconditionally, matching the teacher's defer logger.FlushLog().
func FlushLog() {}

// WithField returns a logrus entry carrying one structured field, used by
// stage instrumentation to attach commandId without string formatting it
// into the message body.
func WithField(key string, value interface{}) *logrus.Entry {
	mu.RLock()
	defer mu.RUnlock()
	return std.WithField(key, value)
}

func Debug(format string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	std.Debugf(format, args...)
}

func Info(format string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	std.Infof(format, args...)
}

func Warn(format string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	std.Warnf(format, args...)
}

func Error(format string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	std.Errorf(format, args...)
}
