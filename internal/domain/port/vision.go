package port

import (
	"context"

	"vehicle-intelligence/internal/domain/entity"
)

// FrameExtractor извлекает кадры из видео
type FrameExtractor interface {
	Extract(ctx context.Context, videoPath, outputDir string) ([]entity.Frame, error)
}

// DamageScanner ищет повреждения кузова. Никогда не возвращает ошибку:
// отсутствие повреждений тоже валидный результат.
type DamageScanner interface {
	Scan(ctx context.Context, framePaths []string, snapshotDir string) entity.DamageVerdict
}

// ExhaustInspector классифицирует выхлопную систему
type ExhaustInspector interface {
	Inspect(ctx context.Context, framePaths []string, snapshotDir string) entity.ExhaustVerdict
}

// DashboardLocator вырезает область приборной панели и возвращает пути вырезок
type DashboardLocator interface {
	Locate(ctx context.Context, framePaths []string) []string
}

// OCRVariantSource готовит варианты изображения для OCR
type OCRVariantSource interface {
	Variants(ctx context.Context, imagePath string) ([]entity.ImageVariant, error)
}

// ColorEstimator определяет цвет автомобиля. region == nil означает весь кадр.
type ColorEstimator interface {
	EstimateColor(ctx context.Context, imagePath string, region *entity.VehicleRegion) (string, error)
}
