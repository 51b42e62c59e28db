// Package log provides the process-wide structured logger. It wraps
// go.uber.org/zap so that callers never reference zap directly; only
// lifecycle milestones and CLI reporting loops log, never the RX/TX fast
// path.
package log

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.Mutex
	logger *zap.SugaredLogger
)

// Init installs the process-wide logger. debug selects zap's development
// config (human-readable, debug level); otherwise production config
// (JSON, info level) is used. Safe to call more than once; the last call
// wins.
func Init(debug bool) error {
	var (
		l   *zap.Logger
		err error
	)

	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}

	mu.Lock()
	logger = l.Sugar()
	mu.Unlock()

	return nil
}

func sugar() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()

	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return logger
}

// Infow logs msg at info level with structured key/value pairs.
func Infow(msg string, kv ...interface{}) {
	sugar().Infow(msg, kv...)
}

// Warnw logs msg at warn level with structured key/value pairs.
func Warnw(msg string, kv ...interface{}) {
	sugar().Warnw(msg, kv...)
}

// Errorw logs msg at error level with structured key/value pairs.
func Errorw(msg string, kv ...interface{}) {
	sugar().Errorw(msg, kv...)
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() error {
	return sugar().Sync()
}
