package entity

// DamageType тип повреждения кузова
type DamageType string

const (
	DamageScratch DamageType = "scratch"
	DamageDent    DamageType = "dent"
	DamageRust    DamageType = "rust"
)

// Severity итоговая оценка тяжести повреждений
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// DamageLocation одно найденное повреждение.
type DamageLocation struct {
	Type       DamageType    `json:"type"`
	FrameRef   string        `json:"frame"`
	FrameIndex int           `json:"frame_index"`
	BBox       VehicleRegion `json:"bbox"`
	Confidence float64       `json:"confidence"`
	Snapshot   string        `json:"snapshot,omitempty"`
}

// DamageCount счётчик повреждений одного типа
type DamageCount struct {
	Count    int  `json:"count"`
	Detected bool `json:"detected"`
}

// NewDamageCount строит счётчик по количеству.
func NewDamageCount(n int) DamageCount {
	return DamageCount{Count: n, Detected: n > 0}
}

// DamageVerdict единственное значение, которое возвращает движок поиска повреждений.
type DamageVerdict struct {
	Scratches  DamageCount      `json:"scratches"`
	Dents      DamageCount      `json:"dents"`
	Rust       DamageCount      `json:"rust"`
	Severity   Severity         `json:"severity"`
	Confidence float64          `json:"confidence"`
	Locations  []DamageLocation `json:"locations"`
}

// Total общее число повреждений всех типов
func (v DamageVerdict) Total() int {
	return v.Scratches.Count + v.Dents.Count + v.Rust.Count
}

// EmptyDamageVerdict вердикт без повреждений.
func EmptyDamageVerdict() DamageVerdict {
	return DamageVerdict{
		Severity:  SeverityLow,
		Locations: []DamageLocation{},
	}
}
