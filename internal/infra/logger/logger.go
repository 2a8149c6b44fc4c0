package logger

import (
	"io"

	"github.com/rs/zerolog"
)

// New builds the process logger writing human-readable records to out.
// Verbose lowers the threshold to debug.
func New(out io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	cw := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}
