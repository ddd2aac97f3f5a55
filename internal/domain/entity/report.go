package entity

// ReportSource происхождение отчёта
type ReportSource string

const (
	ReportFromLLM      ReportSource = "llm"
	ReportFromText     ReportSource = "text"
	ReportFromTemplate ReportSource = "template"
)

// Report итоговый текстовый отчёт об осмотре.
type Report struct {
	Summary          string         `json:"summary"`
	VehicleDetails   ReportVehicle  `json:"vehicle_details"`
	OdometerReading  ReportOdometer `json:"odometer_reading"`
	DamageAssessment ReportDamage   `json:"damage_assessment"`
	ExhaustStatus    ReportExhaust  `json:"exhaust_status"`
	Recommendations  []string       `json:"recommendations"`
	Source           ReportSource   `json:"source"`
}

type ReportVehicle struct {
	Type      string `json:"type"`
	Brand     string `json:"brand"`
	Model     string `json:"model"`
	Color     string `json:"color"`
	Condition string `json:"condition"`
	Notes     string `json:"notes"`
}

type ReportOdometer struct {
	Value  *int   `json:"value"`
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type ReportDamage struct {
	OverallSeverity string `json:"overall_severity"`
	Scratches       int    `json:"scratches"`
	Dents           int    `json:"dents"`
	Rust            int    `json:"rust"`
	Details         string `json:"details"`
}

type ReportExhaust struct {
	Type  string `json:"type"`
	Notes string `json:"notes"`
}
