package vision

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/domain/port"
)

// FrameExtractor извлекает из видео резкие неповторяющиеся кадры с заданной частотой.
type FrameExtractor struct {
	tuning entity.FrameTuning
	logger *zap.Logger
}

// NewFrameExtractor создаёт экстрактор кадров.
func NewFrameExtractor(tuning entity.FrameTuning, logger *zap.Logger) *FrameExtractor {
	return &FrameExtractor{tuning: tuning, logger: logger}
}

// SamplingInterval шаг выборки в кадрах. Если видео не сообщает FPS,
// используется fallback.
func SamplingInterval(fps, rate float64, fallback int) int {
	if fallback < 1 {
		fallback = 1
	}
	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps <= 0 || rate <= 0 {
		return fallback
	}
	interval := int(math.Round(fps / rate))
	if interval < 1 {
		return 1
	}
	return interval
}

// FrameFileName имя файла кадра с порядковым номером n (с единицы).
func FrameFileName(n int) string {
	return fmt.Sprintf("frame_%04d.jpg", n)
}

// extractionStats счётчики прогона, только для логов
type extractionStats struct {
	decoded    int
	sampled    int
	blurry     int
	duplicates int
}

func (s extractionStats) fields() []zap.Field {
	return []zap.Field{
		zap.Int("decoded", s.decoded),
		zap.Int("sampled", s.sampled),
		zap.Int("blur_skips", s.blurry),
		zap.Int("duplicate_skips", s.duplicates),
	}
}

var _ port.FrameExtractor = (*FrameExtractor)(nil)
