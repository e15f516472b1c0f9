// Package logging builds the process logger.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds a production zap logger at the given level. Unknown
// levels fall back to info. When file is non-empty, output is teed into
// a size-rotated file alongside stderr.
func NewLogger(level, file string) (*zap.Logger, error) {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		l = zapcore.InfoLevel
	}

	if file == "" {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(l)
		return config.Build()
	}

	rotated := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    100, // MB
		MaxAge:     14,  // days
		MaxBackups: 10,
		Compress:   true,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stderr), zapcore.AddSync(rotated)),
		l,
	)
	return zap.New(core), nil
}
