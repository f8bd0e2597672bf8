// Package logging is a thin wrapper of zap logging library.
//
// Log entries are written to stderr as JSON.
// TGENCTL_LOG_FORMAT=console selects a human readable format instead.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var root = newRoot(os.Getenv("TGENCTL_LOG_FORMAT"))

func newRoot(format string) *zap.Logger {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if format == "console" {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(ec)
	} else {
		enc = zapcore.NewJSONEncoder(ec)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.Lock(os.Stderr), zap.DebugLevel), zap.AddCaller())
}

// New creates a named logger whose level follows the package log level.
//
// Each package declares its logger next to the package docstring:
//
//	var logger = logging.New("tgen")
func New(pkg string) *zap.Logger {
	return root.Named(pkg).WithOptions(zap.IncreaseLevel(GetLevel(pkg).al))
}
