// Package jxllog provides the package-level logger used across the decoder.
//
// It defaults to a no-op logger so importing this module never prints
// anything unless the embedding application opts in via SetLogger.
package jxllog

import "go.uber.org/zap"

var log = zap.NewNop().Sugar()

// SetLogger replaces the package-level logger. Pass nil to go back to a
// no-op logger.
func SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		log = zap.NewNop().Sugar()
		return
	}
	log = l
}

// Trace logs bit-position/low-level tracing, matching the granularity of
// the original decoder's tracing::trace! call sites.
func Trace(msg string, kv ...any) {
	log.Debugw(msg, kv...)
}

// Debug logs parsed-structure summaries (tracing::debug!).
func Debug(msg string, kv ...any) {
	log.Debugw(msg, kv...)
}

// Info logs phase-entry events (tracing::info!).
func Info(msg string, kv ...any) {
	log.Infow(msg, kv...)
}
