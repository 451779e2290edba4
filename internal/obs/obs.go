// Package obs is a thin wrapper over the standard library logger, in the
// style the teacher's own example binaries use (a single
// log.New(os.Stderr, "", 0) per program, rather than a structured logging
// framework — no example in the retrieval pack pulls one in).
package obs

import (
	"io"
	"log"
)

// Logger is a leveled wrapper around *log.Logger. The zero value is not
// usable; construct one with New.
type Logger struct {
	l       *log.Logger
	verbose bool
}

// New builds a Logger writing to w. verbose gates Debugf output, mirroring
// the CLI's --verbose flag (spec.md §9 asks that noise/internal detail be
// opt-in, not printed by default).
func New(w io.Writer, verbose bool) *Logger {
	return &Logger{l: log.New(w, "", 0), verbose: verbose}
}

// Infof logs an always-on, human-readable line.
func (g *Logger) Infof(format string, args ...any) {
	g.l.Printf("[INFO] "+format, args...)
}

// Warnf logs a recoverable-but-notable condition.
func (g *Logger) Warnf(format string, args ...any) {
	g.l.Printf("[WARNING] "+format, args...)
}

// Debugf logs only when the logger was constructed with verbose=true.
func (g *Logger) Debugf(format string, args ...any) {
	if g.verbose {
		g.l.Printf("[DEBUG] "+format, args...)
	}
}

// Fatalf logs and aborts the process. The CLI calls it for every error it
// cannot continue past, including bad flags, unreadable input and failed
// setup.
func (g *Logger) Fatalf(format string, args ...any) {
	g.l.Fatalf("[FATAL] "+format, args...)
}
