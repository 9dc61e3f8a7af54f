package auth

import "github.com/rs/zerolog"

// zerologAdapter exposes a zerolog.Logger through the package Logger
// interface.
type zerologAdapter struct {
	log zerolog.Logger
}

// NewZerologLogger adapts a zerolog.Logger for use as the package Logger.
func NewZerologLogger(log zerolog.Logger) Logger {
	return &zerologAdapter{log: log}
}

func (z *zerologAdapter) Debug(format string, args ...any) {
	z.log.Debug().Msgf(format, args...)
}

func (z *zerologAdapter) Info(format string, args ...any) {
	z.log.Info().Msgf(format, args...)
}

func (z *zerologAdapter) Warn(format string, args ...any) {
	z.log.Warn().Msgf(format, args...)
}

func (z *zerologAdapter) Error(format string, args ...any) {
	z.log.Error().Msgf(format, args...)
}
