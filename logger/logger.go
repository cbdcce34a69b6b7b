// Package logger provides the structured zap logger shared by the service.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It is a no-op until Init is called,
// which keeps package tests quiet.
var Log = zap.NewNop()

// Init builds the logger for the given environment and installs it as Log
func Init(environment string) *zap.Logger {
	var zapConfig zap.Config
	if environment == "production" {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.TimeKey = "timestamp"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zapConfig.EncoderConfig.StacktraceKey = "stacktrace"
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	built, err := zapConfig.Build()
	if err != nil {
		// Fallback to a basic logger if config fails
		built = zap.NewExample()
	}

	Log = built.With(zap.String("service", "consult_flow"))
	return Log
}

// Sync flushes buffered entries; errors from syncing stderr are ignored
func Sync() {
	_ = Log.Sync()
}
