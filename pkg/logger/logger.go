// Package logger builds the process-wide zap logger. The logger is
// constructed once at process start and handed to every component as a
// dependency; nothing in this module reaches for a global logger.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates the logger used for a pipeline run. Events always go to stderr
// so stdout stays reserved for the machine-readable report; when path is
// non-empty the same events are also appended to that file as JSON.
// jsonOutput switches the console encoding to JSON for machine consumption.
//
// Callers should defer Sync on the returned logger so buffered events are
// flushed on exit.
func New(path string, jsonOutput bool) (*zap.SugaredLogger, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var consoleEnc zapcore.Encoder
	if jsonOutput {
		consoleEnc = zapcore.NewJSONEncoder(encCfg)
	} else {
		devCfg := zap.NewDevelopmentEncoderConfig()
		devCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		consoleEnc = zapcore.NewConsoleEncoder(devCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stderr), zap.InfoLevel),
	}

	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(f),
			zap.InfoLevel,
		))
	}

	return zap.New(zapcore.NewTee(cores...)).Sugar(), nil
}
