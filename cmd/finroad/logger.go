package main

import (
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/npratt/finroad/internal/config"
)

// viewLog is the file logger used while the roadmap owns the terminal.
type viewLog struct {
	Logger *slog.Logger
	Path   string
	file   *lumberjack.Logger
}

// Close flushes and closes the log file.
func (l *viewLog) Close() error {
	return l.file.Close()
}

// openViewLog sends JSON log records to the configured log path, rotated per
// the log_rotation section. An empty path falls back to the default one.
func openViewLog(cfg *config.Config, level slog.Leveler) *viewLog {
	path := cfg.Paths.Log
	if path == "" {
		path = config.Default().Paths.Log
	}
	rot := cfg.LogRotation

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rot.MaxSizeMB,
		MaxBackups: rot.MaxBackups,
		MaxAge:     rot.MaxAgeDays,
		Compress:   rot.Compress,
	}
	return &viewLog{
		Logger: slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})),
		Path:   path,
		file:   file,
	}
}
