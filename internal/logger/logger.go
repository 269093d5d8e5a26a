package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Init replaces the global zap logger. Production environments log JSON at
// info level, everything else logs to the console at debug level.
func Init(environment string) error {
	logger, err := New(environment)
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(logger)

	return nil
}

func New(environment string) (*zap.Logger, error) {
	var conf zap.Config
	switch environment {
	case "production", "staging":
		conf = zap.NewProductionConfig()
		conf.EncoderConfig.TimeKey = "timestamp"
		conf.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		conf.OutputPaths = []string{"stdout"}
		conf.ErrorOutputPaths = []string{"stderr"}
	default:
		conf = zap.NewDevelopmentConfig()
	}

	logger, err := conf.Build()
	if err != nil {
		return nil, fmt.Errorf("conf.Build -> %w", err)
	}

	return logger.With(zap.String("environment", environment)), nil
}
