package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// New builds the process logger. With an empty file, human-readable lines go
// to stderr (uncoloured unless stderr is a terminal). Otherwise JSON lines are
// appended to file. The returned closer releases the file, if any.
func New(level, file string) (zerolog.Logger, io.Closer, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("parse log level: %w", err)
	}
	zerolog.TimeFieldFormat = time.RFC3339

	if file == "" {
		w := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
			TimeFormat: time.Kitchen,
		}
		return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nopCloser{}, nil
	}

	f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
	}
	return zerolog.New(f).Level(lvl).With().Timestamp().Logger(), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
