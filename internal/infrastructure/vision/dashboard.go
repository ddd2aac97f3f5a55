package vision

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"vehicle-intelligence/internal/domain/port"
)

// Область приборной панели в долях кадра
const (
	dashboardLeft   = 0.1
	dashboardTop    = 0.1
	dashboardRight  = 0.9
	dashboardBottom = 0.4
)

// DashboardDetector вырезает верхне-среднюю часть первых кадров, где обычно
// находится панель приборов.
type DashboardDetector struct {
	frames int
	logger *zap.Logger
	crop   func(framePath, dst string) error
}

// NewDashboardDetector создаёт детектор, который смотрит на первые frames кадров.
func NewDashboardDetector(frames int, logger *zap.Logger) *DashboardDetector {
	if frames <= 0 {
		frames = 10
	}
	return &DashboardDetector{frames: frames, logger: logger, crop: cropDashboard}
}

// Locate возвращает пути сохранённых вырезок в порядке кадров.
func (d *DashboardDetector) Locate(ctx context.Context, framePaths []string) []string {
	limit := minInt(d.frames, len(framePaths))
	crops := make([]string, 0, limit)
	for _, path := range framePaths[:limit] {
		if ctx.Err() != nil {
			break
		}
		dst := DashboardCropPath(path)
		if err := d.crop(path, dst); err != nil {
			d.logger.Debug("dashboard crop failed", zap.String("frame", path), zap.Error(err))
			continue
		}
		crops = append(crops, dst)
	}
	return crops
}

// DashboardCropPath путь вырезки панели рядом с кадром: frame_0001_dashboard.jpg.
func DashboardCropPath(framePath string) string {
	ext := filepath.Ext(framePath)
	return strings.TrimSuffix(framePath, ext) + "_dashboard.jpg"
}

var _ port.DashboardLocator = (*DashboardDetector)(nil)
