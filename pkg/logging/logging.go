// Package logging builds the run logger. Every run appends timestamped
// INFO/WARN/ERROR/DEBUG lines to the fixed log file; user-facing progress
// is printed separately by the command layer.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger appending to the log file at path. Verbose lowers
// the level to DEBUG and tees the same stream to stderr. When the log
// file cannot be opened (unprivileged dry runs), a single warning goes to
// stderr and the logger degrades to stderr only.
//
// The returned closer flushes and closes the sink; defer it in main.
func New(path string, verbose bool) (*zap.Logger, func()) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	enc := zapcore.NewConsoleEncoder(encCfg)

	var cores []zapcore.Core

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot open log file %s: %v\n", path, err)
	} else {
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(file), level))
	}

	if verbose || file == nil {
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), level))
	}

	logger := zap.New(zapcore.NewTee(cores...))

	closer := func() {
		_ = logger.Sync()
		if file != nil {
			_ = file.Close()
		}
	}
	return logger, closer
}
