// Package logging builds the zap loggers used across latentscope.
package logging

import "go.uber.org/zap"

// New returns a zap logger. When debug is true it uses the development config
// (human-readable, debug level); otherwise the production config (JSON, info level).
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Nop returns a logger that discards everything. Library constructors fall back
// to it when handed a nil logger.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
