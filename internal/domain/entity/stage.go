package entity

import "encoding/json"

// Unknown значение для неопределённых атрибутов автомобиля
const Unknown = "Unknown"

// VehicleInfo результат идентификации автомобиля.
type VehicleInfo struct {
	Type       string  `json:"type"`
	Brand      string  `json:"brand"`
	Model      string  `json:"model"`
	Color      string  `json:"color"`
	Confidence float64 `json:"confidence"`
}

// UnknownVehicle деградированный результат идентификации.
func UnknownVehicle() VehicleInfo {
	return VehicleInfo{Type: "car", Brand: Unknown, Model: Unknown, Color: Unknown}
}

// TextSpan фрагмент текста, распознанный OCR.
type TextSpan struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// ImageVariant предобработанный вариант изображения для OCR.
type ImageVariant struct {
	Name string
	Data []byte
}

// OdometerReading показание одометра. Value == nil означает, что значение не найдено.
type OdometerReading struct {
	Value      *int    `json:"value"`
	Confidence float64 `json:"confidence"`
	ImagePath  string  `json:"speedometer_image_path"`
}

// MarshalJSON пишет пустой путь как null.
func (r OdometerReading) MarshalJSON() ([]byte, error) {
	var path *string
	if r.ImagePath != "" {
		path = &r.ImagePath
	}
	return json.Marshal(struct {
		Value      *int    `json:"value"`
		Confidence float64 `json:"confidence"`
		ImagePath  *string `json:"speedometer_image_path"`
	}{r.Value, r.Confidence, path})
}

// UnreadOdometer показание без значения для указанного изображения.
func UnreadOdometer(imagePath string) OdometerReading {
	return OdometerReading{ImagePath: imagePath}
}

// ExhaustType конфигурация выхлопной системы
type ExhaustType string

const (
	ExhaustStock    ExhaustType = "stock"
	ExhaustModified ExhaustType = "modified"
)

// ExhaustVerdict результат классификации выхлопа.
type ExhaustVerdict struct {
	Type           ExhaustType `json:"type"`
	Confidence     float64     `json:"confidence"`
	Snapshot       string      `json:"snapshot,omitempty"`
	FramesAnalyzed int         `json:"frames_analyzed"`
}

// DefaultExhaust вердикт, когда ни один кадр не удалось проанализировать.
func DefaultExhaust() ExhaustVerdict {
	return ExhaustVerdict{Type: ExhaustStock, Confidence: 0.5}
}

// StageResults результаты четырёх параллельных этапов анализа.
type StageResults struct {
	Vehicle  VehicleInfo     `json:"vehicle_info"`
	Odometer OdometerReading `json:"odometer"`
	Damage   DamageVerdict   `json:"damage"`
	Exhaust  ExhaustVerdict  `json:"exhaust"`
}
