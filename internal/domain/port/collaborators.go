package port

import (
	"context"

	"vehicle-intelligence/internal/domain/entity"
)

// ObjectDetector интерфейс детектора объектов
type ObjectDetector interface {
	// Detect возвращает объекты, найденные на изображении, в пиксельных координатах исходника
	Detect(ctx context.Context, imagePath string) ([]entity.Detection, error)
}

// EmbeddingClassifier интерфейс классификатора по текстовым меткам
type EmbeddingClassifier interface {
	// Classify возвращает распределение вероятностей по labels, усреднённое по изображениям
	Classify(ctx context.Context, imagePaths []string, labels []string) ([]float64, error)
}

// TextOCR интерфейс распознавания текста
type TextOCR interface {
	// Recognize возвращает фрагменты текста с уверенностью для закодированного изображения
	Recognize(ctx context.Context, image []byte) ([]entity.TextSpan, error)
}

// TextGenerator интерфейс генеративной языковой модели
type TextGenerator interface {
	// Generate возвращает ответ модели на prompt
	Generate(ctx context.Context, prompt string) (string, error)
}
