package observability

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/securebank/bank-portal/internal/config"
)

// NewLogger builds the process logger for component ("portal", "bankcli").
// JSON is the default encoding; LOG_FORMAT=console suits a terminal.
func NewLogger(cfg config.LoggerConfig, component string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zapcore.InfoLevel
	}

	output := cfg.Output
	if output == "" {
		output = "stdout"
	}

	encoder := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "ts",
		NameKey:        "logger",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}
	encoding := "json"
	if strings.EqualFold(cfg.Format, "console") {
		encoding = "console"
		encoder.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         encoding,
		EncoderConfig:    encoder,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    map[string]any{"component": component},
	}
	return zapCfg.Build()
}

// Identity returns the log fields describing a session holder. Tokens are
// never logged.
func Identity(username, role string) []zap.Field {
	if username == "" {
		return []zap.Field{zap.Bool("anonymous", true)}
	}
	return []zap.Field{zap.String("username", username), zap.String("role", role)}
}
