package logging

import (
	"go.uber.org/zap"
)

// NewLogger builds a structured logger. debug switches to the development
// config, which prints request-level debug lines from the client.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// WithOperation tags every line of one CLI invocation with the command name
// and a run id. Per-request ids are logged by the client as request_id.
func WithOperation(logger *zap.Logger, operation, runID string) *zap.Logger {
	fields := []zap.Field{zap.String("operation", operation)}
	if runID != "" {
		fields = append(fields, zap.String("run_id", runID))
	}
	return logger.With(fields...)
}
