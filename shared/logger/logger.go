package logger

import (
	"go.uber.org/zap"
)

// New builds the service logger. Local environments get the human-readable
// development encoder, everything else logs structured JSON.
func New(serviceName, env string) (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)

	if env == "local" || env == "" {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}

	return log.With(zap.String("service", serviceName)), nil
}

// NewNop returns a no-op logger for tests.
func NewNop() *zap.Logger {
	return zap.NewNop()
}
