// Package db internal/infrastructure/db/badger.go
package db

import (
	"fmt"
	"os"
	"strings"

	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/logger"
	"github.com/dgraph-io/badger/v3"
)

// OpenBadger opens (creating if needed) the badger database stored in dir
func OpenBadger(dir string, log logger.Logger) (*badger.DB, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	if log != nil {
		opts.Logger = &badgerLogger{log: log.WithField("component", "badger")}
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// badgerLogger routes badger's printf-style logging into the structured logger.
// Badger's info chatter is demoted to debug.
type badgerLogger struct {
	log logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(clean(format, args...), nil)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(clean(format, args...), nil)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(clean(format, args...), nil)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(clean(format, args...), nil)
}

func clean(format string, args ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
