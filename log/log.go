// Package log is the structured logging seam used across the storage
// engine. Every component takes a *zap.Logger and defaults to a no-op
// logger when none is supplied, so library code never forces a logging
// configuration on its caller.
package log

import "go.uber.org/zap"

// NopLogger returns a logger that discards everything, for components
// constructed without an explicit logger.
func NopLogger() *zap.Logger {
	return zap.NewNop()
}

// OrNop returns l unchanged, or a no-op logger if l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return NopLogger()
	}
	return l
}
