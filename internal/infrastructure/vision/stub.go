//go:build !gocv
// +build !gocv

package vision

import (
	"context"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/domain/port"
	"vehicle-intelligence/internal/errors"
)

var errGoCVDisabled = errors.New("gocv build tag is not enabled")

// Extract возвращает ошибку, если сборка без тега gocv.
func (x *FrameExtractor) Extract(ctx context.Context, videoPath, outputDir string) ([]entity.Frame, error) {
	return nil, errGoCVDisabled
}

func (e *DamageEngine) analyzeFrame(ctx context.Context, framePath string, region *entity.VehicleRegion) (frameAnalysis, error) {
	return frameAnalysis{}, errGoCVDisabled
}

func writeSnapshot(framePath string, box entity.VehicleRegion, padding int, dst string) error {
	return errGoCVDisabled
}

func (c *ExhaustClassifier) measureFrame(ctx context.Context, framePath string) (exhaustMeasurement, error) {
	return exhaustMeasurement{}, errGoCVDisabled
}

func (c *ExhaustClassifier) saveRearCrop(framePath, dst string) error {
	return errGoCVDisabled
}

func cropDashboard(framePath, dst string) error {
	return errGoCVDisabled
}

// Variants возвращает ошибку, если сборка без тега gocv.
func (p *OCRPreprocessor) Variants(ctx context.Context, imagePath string) ([]entity.ImageVariant, error) {
	return nil, errGoCVDisabled
}

// EstimateColor возвращает ошибку, если сборка без тега gocv.
func (HSVColorEstimator) EstimateColor(ctx context.Context, imagePath string, region *entity.VehicleRegion) (string, error) {
	return entity.Unknown, errGoCVDisabled
}

// YOLODetector заглушка детектора (без OpenCV).
type YOLODetector struct{}

// LoadYOLODetector возвращает ошибку, если сборка без тега gocv.
func LoadYOLODetector(modelPath string, poolSize int) (*YOLODetector, error) {
	return nil, errGoCVDisabled
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *YOLODetector) Detect(ctx context.Context, imagePath string) ([]entity.Detection, error) {
	return nil, errGoCVDisabled
}

func (d *YOLODetector) Close() error { return nil }

var _ port.ObjectDetector = (*YOLODetector)(nil)
