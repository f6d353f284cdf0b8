// Package logging builds the process slog.Logger from the log config,
// optionally writing to a size-rotated file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/claude/liftplan/internal/config"
	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level maps a config level name to a slog level. Unknown names map to info.
func Level(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger for cfg. The returned closer flushes and closes the
// log file, if any; it is always non-nil.
func New(cfg config.LogConfig) (*slog.Logger, io.Closer) {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with console output going to stdout instead of
// os.Stdout. The stdio MCP server passes os.Stderr.
func NewWithWriter(cfg config.LogConfig, stdout io.Writer) (*slog.Logger, io.Closer) {
	var (
		out    io.Writer = stdout
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		filename := cfg.File
		if !strings.HasSuffix(filename, ".log") {
			filename += ".log"
		}
		file := &lumberjack.Logger{
			Filename:  filename,
			MaxSize:   50, // megabytes
			LocalTime: false,
			Compress:  true,
		}
		closer = file
		out = file
		if cfg.Stdout {
			out = combinedWriter{stdout, file}
		}
	}

	opts := &slog.HandlerOptions{Level: Level(cfg.Level)}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return slog.New(h), closer
}

// combinedWriter writes p to every writer, even after one of them fails.
type combinedWriter []io.Writer

func (cw combinedWriter) Write(p []byte) (int, error) {
	var err error
	for _, w := range cw {
		if _, werr := w.Write(p); werr != nil {
			err = multierr.Append(err, werr)
		}
	}
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
