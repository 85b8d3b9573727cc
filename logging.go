package swiftdsv

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *zap.Logger
	loggerOnce   sync.Once
)

// LogConfig configures the package-level logger. The zero value is a
// reasonable production default: info level, JSON encoding, stdout.
type LogConfig struct {
	Level       string
	Development bool
	Encoding    string
}

// InitLogging installs the package-level logger used by the ingestion
// pipeline and the format guesser (never the parser's per-byte path, which
// stays allocation-free). Calling it more than once has no effect; call it
// before constructing any Reader if you need non-default settings.
func InitLogging(cfg LogConfig) error {
	var err error
	loggerOnce.Do(func() {
		globalLogger, err = newLogger(cfg)
	})
	return err
}

func newLogger(cfg LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, wrapError(KindOpenFailed, "invalid log level", err)
		}
	}

	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "json"
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if cfg.Development {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Development,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return zapCfg.Build()
}

// logger returns the package-level logger, lazily building a default one on
// first use if InitLogging was never called.
func logger() *zap.Logger {
	if globalLogger == nil {
		if err := InitLogging(LogConfig{}); err != nil {
			l, _ := zap.NewProduction()
			return l
		}
	}
	return globalLogger
}
