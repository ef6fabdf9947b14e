package lambdawg

import (
	"context"
	"log/slog"
	"os"
)

// compilerOptions mirrors the teacher's package-level pongo2Options: one
// process-wide debug flag and one logger, guarded by package functions
// rather than exported fields (pongo2_options.go).
type compilerOptions struct {
	debug bool
}

var (
	options = compilerOptions{}
	logger  = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
)

// SetDebug toggles package-wide debug logging, as the teacher's
// SetDebug does for its own template engine.
func SetDebug(b bool) {
	options.debug = b
}

// SetLogger replaces the package logger, e.g. to route the compiler's
// debug log lines into an application's own structured-logging pipeline.
// Diagnostics are never logged; they are returned in the Result.
func SetLogger(l *slog.Logger) {
	logger = l
}

// logf emits a debug-level structured log line when debug logging is on
// (spec.md's ambient stack: logging is carried even though the spec
// itself never makes observability a feature).
func logf(msg string, args ...any) {
	if options.debug {
		logger.Log(context.Background(), slog.LevelDebug, msg, args...)
	}
}
