package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
	"github.com/rs/zerolog/log"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

type Options struct {
	Service string
	Debug   bool
	// Format is FormatJSON for log shippers or FormatConsole for a terminal.
	Format string
}

// NewContextWithLogger installs the process logger on stdout and returns a
// context carrying it, together with a flush func for the buffered writer.
func NewContextWithLogger(ctx context.Context, opts Options) (context.Context, func()) {
	wr := diode.NewWriter(os.Stdout, 1000, 10*time.Millisecond, func(missed int) {
		fmt.Fprintf(os.Stderr, "logger dropped %d messages\n", missed)
	})

	logger := New(wr, opts)
	log.Logger = logger

	return logger.WithContext(ctx), func() {
		wr.Close()
	}
}

// New builds a logger tagged with the service name.
func New(w io.Writer, opts Options) zerolog.Logger {
	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	if opts.Format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", opts.Service).
		Logger()
}

func FromCtx(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
