package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger строит JSON-логгер для production и консольный для остальных окружений.
func NewLogger(env string) (*zap.Logger, error) {
	if strings.EqualFold(env, "production") {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		return cfg.Build()
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}

// WithOperation добавляет к логгеру имя операции и идентификатор осмотра.
func WithOperation(logger *zap.Logger, operation, inspectionID string) *zap.Logger {
	fields := []zap.Field{zap.String("operation", operation)}
	if inspectionID != "" {
		fields = append(fields, zap.String("inspection_id", inspectionID))
	}
	return logger.With(fields...)
}
