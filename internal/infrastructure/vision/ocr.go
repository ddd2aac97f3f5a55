package vision

import "vehicle-intelligence/internal/domain/port"

// OCRPreprocessor готовит варианты снимка одометра: серый, CLAHE, шумоподавление,
// бинаризация Оцу, увеличение и их комбинации.
type OCRPreprocessor struct {
	clipLimit float64
	upscale   float64
}

// NewOCRPreprocessor создаёт препроцессор с параметрами CLAHE по умолчанию.
func NewOCRPreprocessor() *OCRPreprocessor {
	return &OCRPreprocessor{clipLimit: 2.0, upscale: 2.0}
}

// HSVColorEstimator определяет цвет кузова по долям пикселей в HSV-диапазонах.
type HSVColorEstimator struct{}

var (
	_ port.OCRVariantSource = (*OCRPreprocessor)(nil)
	_ port.ColorEstimator   = HSVColorEstimator{}
)
