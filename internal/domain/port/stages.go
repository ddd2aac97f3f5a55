package port

import (
	"context"

	"vehicle-intelligence/internal/domain/entity"
)

// VehicleIdentifier этап идентификации автомобиля. Ошибка означает, что
// безопасного деградированного значения нет.
type VehicleIdentifier interface {
	Identify(ctx context.Context, framePaths []string) (entity.VehicleInfo, error)
}

// OdometerReader этап чтения одометра. Никогда не возвращает ошибку.
type OdometerReader interface {
	Read(ctx context.Context, imagePaths []string) entity.OdometerReading
}

// ReportSynthesizer собирает текстовый отчёт. Никогда не возвращает ошибку.
type ReportSynthesizer interface {
	Synthesize(ctx context.Context, stages entity.StageResults) entity.Report
}
