// Package corelog defines the logging seam used across the conversational
// core so components can be exercised in tests without pulling in zerolog.
package corelog

import "github.com/rs/zerolog"

// Logger matches the shape components depend on. Fields are passed as a
// single optional map[string]any, mirroring the teacher's cron Logger.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
}

// Zerolog adapts a zerolog.Logger to the Logger interface.
type Zerolog struct {
	L zerolog.Logger
}

func NewZerolog(l zerolog.Logger) Logger {
	return Zerolog{L: l}
}

func (z Zerolog) Debug(msg string, fields ...any) { z.emit("debug", msg, fields...) }
func (z Zerolog) Info(msg string, fields ...any)  { z.emit("info", msg, fields...) }
func (z Zerolog) Warn(msg string, fields ...any)  { z.emit("warn", msg, fields...) }
func (z Zerolog) Error(msg string, fields ...any) { z.emit("error", msg, fields...) }

func (z Zerolog) emit(level, msg string, fields ...any) {
	logger := z.L
	if len(fields) == 1 {
		if m, ok := fields[0].(map[string]any); ok {
			logger = logger.With().Fields(m).Logger()
		}
	}
	switch level {
	case "debug":
		logger.Debug().Msg(msg)
	case "info":
		logger.Info().Msg(msg)
	case "warn":
		logger.Warn().Msg(msg)
	case "error":
		logger.Error().Msg(msg)
	}
}

// Nop discards everything. Useful as a zero-value-safe default so callers
// never need a nil check before logging.
type Nop struct{}

func (Nop) Debug(string, ...any) {}
func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}

var _ Logger = Nop{}
var _ Logger = Zerolog{}
