package entity

// InspectionRequest запрос на обработку видео осмотра.
type InspectionRequest struct {
	VideoPath         string `json:"video_path"`
	InspectionID      string `json:"inspection_id"`
	OdometerImagePath string `json:"odometer_image_path,omitempty"`
}

// InspectionResult агрегированный результат одного осмотра.
// Все пути относительны корня раздачи файлов и разделены "/".
type InspectionResult struct {
	InspectionID string          `json:"inspection_id"`
	Frames       []string        `json:"frames"`
	VehicleInfo  VehicleInfo     `json:"vehicle_info"`
	Odometer     OdometerReading `json:"odometer"`
	Damage       DamageVerdict   `json:"damage"`
	Exhaust      ExhaustVerdict  `json:"exhaust"`
	Report       Report          `json:"report"`
}

// PipelineState состояние конвейера обработки осмотра
type PipelineState string

const (
	StateValidating       PipelineState = "validating"
	StateExtracting       PipelineState = "extracting"
	StateParallelAnalysis PipelineState = "parallel_analysis"
	StateSynthesizing     PipelineState = "synthesizing"
	StateComplete         PipelineState = "complete"
	StateFailed           PipelineState = "failed"
)

// Terminal сообщает, что из состояния нет переходов.
func (s PipelineState) Terminal() bool {
	return s == StateComplete || s == StateFailed
}
