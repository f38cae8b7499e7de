package pipeline

import (
	"io"
	"log"
)

// Logger receives run progress. Implementations must be safe for concurrent
// use.
type Logger interface {
	// Verbose is only emitted in verbose mode.
	Verbose(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// StdLogger writes through the standard log package.
type StdLogger struct {
	l       *log.Logger
	verbose bool
}

// NewLogger logs to w with the standard date/time prefix.
func NewLogger(w io.Writer, verbose bool) *StdLogger {
	return &StdLogger{l: log.New(w, "", log.LstdFlags), verbose: verbose}
}

func (s *StdLogger) Verbose(format string, args ...any) {
	if s.verbose {
		s.l.Printf("[VERBOSE] "+format, args...)
	}
}

func (s *StdLogger) Info(format string, args ...any) { s.l.Printf(format, args...) }

func (s *StdLogger) Error(format string, args ...any) { s.l.Printf("[ERROR] "+format, args...) }
