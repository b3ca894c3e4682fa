// Package logger builds the service's zap logger: JSON in production,
// console in development.
package logger

import (
	"go.uber.org/zap"
)

// NewNamed creates a named logger configured for the given environment.
func NewNamed(appEnv, name string) (*zap.Logger, error) {
	var cfg zap.Config
	if appEnv == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return log.Named(name), nil
}
