package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Service   string
	Env       string
	Level     string
	AddSource bool

	// Output defaults to os.Stdout.
	Output io.Writer
	// File, when set, also writes JSON lines to a rotated log file.
	File string
}

func New(opts Options) *slog.Logger {
	level := parseLevel(opts.Level)

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.File != "" {
		out = io.MultiWriter(out, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxAge:     3,
			MaxBackups: 3,
		})
	}

	h := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:     level,
		AddSource: opts.AddSource,
	})

	base := slog.New(h).With(
		"service", opts.Service,
		"env", opts.Env,
	)

	slog.SetDefault(base)
	return base
}

func parseLevel(lvl string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
