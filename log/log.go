// Package log builds the single zap logger shared by the CLI and every
// library package, so a verifier pass, a VM run, and a witness summary
// all write structured diagnostics to the same place in the same shape.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the process-wide logger. It starts as a no-op so library code can
// call it before main() has parsed flags; Init replaces it once a level
// is known.
var L = zap.NewNop().Sugar()

// Init builds L from a level name ("debug", "info", "warn", "error").
// An unrecognized name falls back to "info" rather than failing the
// command outright. Output always goes to stderr, since a program's own
// HALT result and witness/JSON output are the CLI's stdout contract.
func Init(level string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return err
	}

	L = logger.Sugar()
	return nil
}

// Sync flushes any buffered log entries. Call it once before the process
// exits; the returned error is safe to ignore when writing to a
// terminal, which is why every call site does so explicitly.
func Sync() error {
	return L.Sync()
}
