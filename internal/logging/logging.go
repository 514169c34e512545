package logging

import "go.uber.org/zap"

// New builds the process logger. Production environments get JSON output,
// everything else gets the human-readable development encoder.
func New(env string) (*zap.Logger, error) {
	if env == "production" || env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// NewNop returns a no-op logger for tests and optional call sites.
func NewNop() *zap.Logger {
	return zap.NewNop()
}
