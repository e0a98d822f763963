// Package logging builds the process-wide zap logger.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level string
	// File enables a rotating JSON log next to the console output.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New returns a logger writing human-readable lines to stdout and, when
// File is set, JSON lines to a rotating file.
func New(opts Options) (*zap.Logger, error) {
	return build(opts, zapcore.AddSync(os.Stdout))
}

func build(opts Options, console zapcore.WriteSyncer) (*zap.Logger, error) {
	level := zap.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", opts.Level, err)
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), console, level),
	}
	if opts.File != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    orDefault(opts.MaxSizeMB, 100),
				MaxBackups: orDefault(opts.MaxBackups, 30),
				MaxAge:     orDefault(opts.MaxAgeDays, 90),
			}),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)), nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
