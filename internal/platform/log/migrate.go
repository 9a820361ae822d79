package log

import (
	"context"

	"github.com/rs/zerolog"
)

// MigrateLogger adapts zerolog to golang-migrate's Logger interface.
type MigrateLogger struct {
	logger  *zerolog.Logger
	verbose bool
}

func NewMigrateLoggerFromCtx(ctx context.Context, verbose bool) *MigrateLogger {
	return &MigrateLogger{
		logger:  FromCtx(ctx),
		verbose: verbose,
	}
}

func (m *MigrateLogger) Printf(format string, v ...interface{}) {
	m.logger.Info().Msgf(format, v...)
}

func (m *MigrateLogger) Verbose() bool {
	return m.verbose
}
