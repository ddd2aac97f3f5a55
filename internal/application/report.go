package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/domain/port"
)

const textSummaryLimit = 500

// ReportSynthesizer собирает отчёт через генеративную модель, а при её
// недоступности строит детерминированный отчёт по шаблону.
type ReportSynthesizer struct {
	generator port.TextGenerator
	policy    RetryPolicy
	logger    *zap.Logger
}

// NewReportSynthesizer создаёт синтезатор. generator может быть nil.
func NewReportSynthesizer(generator port.TextGenerator, retry entity.RetryTuning, logger *zap.Logger) *ReportSynthesizer {
	return &ReportSynthesizer{generator: generator, policy: NewRetryPolicy(retry), logger: logger}
}

// Synthesize никогда не возвращает ошибку.
func (s *ReportSynthesizer) Synthesize(ctx context.Context, stages entity.StageResults) entity.Report {
	if s.generator == nil {
		return TemplateReport(stages)
	}

	prompt := BuildPrompt(stages)
	started := time.Now()

	var text string
	_, err := s.policy.Do(ctx, func(ctx context.Context) error {
		out, err := s.generator.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		s.logger.Warn("report generation failed, using template", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		return TemplateReport(stages)
	}

	report := ParseReport(text, stages)
	s.logger.Debug("report generated", zap.String("source", string(report.Source)), zap.Duration("elapsed", time.Since(started)))
	return report
}

// ParseReport разбирает ответ модели: сначала строгий JSON-объект, затем
// структурный разбор свободного текста.
func ParseReport(text string, stages entity.StageResults) entity.Report {
	var report entity.Report
	if ExtractJSONObject(text, &report) {
		report.Source = entity.ReportFromLLM
		if report.Recommendations == nil {
			report.Recommendations = []string{}
		}
		return report
	}
	return textReport(text, stages)
}

func textReport(text string, stages entity.StageResults) entity.Report {
	summary := strings.TrimSpace(text)
	if summary == "" {
		summary = "Inspection completed"
	}
	report := baseReport(stages)
	report.Summary = truncateRunes(summary, textSummaryLimit)
	report.Recommendations = []string{
		"Review vehicle condition with qualified inspector",
		"Verify odometer reading matches documentation",
	}
	report.Source = entity.ReportFromText
	return report
}

// TemplateReport детерминированный отчёт без генеративной модели.
func TemplateReport(stages entity.StageResults) entity.Report {
	report := baseReport(stages)
	v := stages.Vehicle
	report.Summary = fmt.Sprintf("Vehicle inspection completed for %s %s. Overall condition: %s.",
		v.Brand, v.Model, report.VehicleDetails.Condition)
	report.Recommendations = []string{
		"Review vehicle condition with qualified inspector",
		"Verify odometer reading matches documentation",
		"Check exhaust system compliance if modified",
	}
	report.Source = entity.ReportFromTemplate
	return report
}

func baseReport(stages entity.StageResults) entity.Report {
	v, o, d, e := stages.Vehicle, stages.Odometer, stages.Damage, stages.Exhaust

	odometer := entity.ReportOdometer{Value: o.Value, Status: odometerStatus(o)}
	if o.Value == nil {
		odometer.Notes = "Odometer value was not detected; manual verification is required."
	}

	return entity.Report{
		VehicleDetails: entity.ReportVehicle{
			Type:      v.Type,
			Brand:     v.Brand,
			Model:     v.Model,
			Color:     v.Color,
			Condition: Condition(d.Severity),
		},
		OdometerReading: odometer,
		DamageAssessment: entity.ReportDamage{
			OverallSeverity: string(d.Severity),
			Scratches:       d.Scratches.Count,
			Dents:           d.Dents.Count,
			Rust:            d.Rust.Count,
			Details: fmt.Sprintf("Found %d scratches, %d dents, and %d rust areas.",
				d.Scratches.Count, d.Dents.Count, d.Rust.Count),
		},
		ExhaustStatus: entity.ReportExhaust{
			Type:  string(e.Type),
			Notes: exhaustNotes(e.Type),
		},
	}
}

// Condition переводит серьёзность повреждений в общее состояние автомобиля.
func Condition(severity entity.Severity) string {
	switch severity {
	case entity.SeverityHigh:
		return "poor"
	case entity.SeverityMedium:
		return "fair"
	default:
		return "good"
	}
}

func odometerStatus(o entity.OdometerReading) string {
	if o.Value != nil && o.Confidence > 0.7 {
		return "verified"
	}
	return "unverified"
}

func exhaustNotes(t entity.ExhaustType) string {
	if t == entity.ExhaustModified {
		return "Aftermarket exhaust detected; verify noise and emissions compliance."
	}
	return "Exhaust system appears to be in standard condition."
}

// BuildPrompt формирует запрос к генеративной модели по результатам этапов.
func BuildPrompt(stages entity.StageResults) string {
	v, o, d, e := stages.Vehicle, stages.Odometer, stages.Damage, stages.Exhaust

	odometerValue, odometerJSON, odometerState := "Not detected", "null", "not detected"
	if o.Value != nil {
		odometerValue = fmt.Sprintf("%d", *o.Value)
		odometerJSON = odometerValue
		odometerState = "detected"
	}

	var b strings.Builder
	b.WriteString("You are an expert vehicle inspection analyst. Generate a comprehensive, accurate, and professional vehicle inspection report based on the following AI-detected findings.\n\n")
	b.WriteString("## INSPECTION DATA:\n\n")

	b.WriteString("### Vehicle Identification:\n")
	fmt.Fprintf(&b, "- Vehicle Type: %s\n- Brand: %s\n- Model: %s\n- Color: %s\n- Detection Confidence: %s\n\n",
		v.Type, v.Brand, v.Model, v.Color, percent(v.Confidence))

	b.WriteString("### Odometer Reading:\n")
	fmt.Fprintf(&b, "- Value: %s km\n- Detection Confidence: %s\n- Status: %s\n\n",
		odometerValue, percent(o.Confidence), odometerState)

	b.WriteString("### Damage Assessment:\n")
	fmt.Fprintf(&b, "- Scratches Detected: %d\n- Dents Detected: %d\n- Rust Areas Detected: %d\n- Overall Severity: %s\n\n",
		d.Scratches.Count, d.Dents.Count, d.Rust.Count, d.Severity)

	b.WriteString("### Exhaust System:\n")
	fmt.Fprintf(&b, "- Type: %s\n- Detection Confidence: %s\n\n", e.Type, percent(e.Confidence))

	b.WriteString(`## INSTRUCTIONS:

1. Summary: write a concise 2-3 sentence professional summary of the key findings and overall condition. Be specific about what was and was not detected.
2. Vehicle Details: use the exact vehicle information provided. Condition is "good" for low or no damage, "fair" for moderate damage, "poor" for significant damage. Note uncertainty when confidence is below 50%.
3. Odometer Reading: "verified" only if a value was detected with confidence above 70%, otherwise "unverified" with a note that manual verification is required.
4. Damage Assessment: describe the type and extent of the damage found. Severity is "low", "moderate" or "high".
5. Exhaust Status: state whether the exhaust is "stock" or "modified" and note compliance concerns.
6. Recommendations: 3-5 actionable recommendations, safety and legal compliance first.

## OUTPUT FORMAT:

Return ONLY valid JSON in this exact structure:

`)
	fmt.Fprintf(&b, `{
  "summary": "...",
  "vehicle_details": {"type": %q, "brand": %q, "model": %q, "color": %q, "condition": "good|fair|poor", "notes": "..."},
  "odometer_reading": {"value": %s, "status": "verified|unverified", "notes": "..."},
  "damage_assessment": {"overall_severity": "low|moderate|high", "scratches": %d, "dents": %d, "rust": %d, "details": "..."},
  "exhaust_status": {"type": %q, "notes": "..."},
  "recommendations": ["...", "...", "..."]
}
`, v.Type, v.Brand, v.Model, v.Color, odometerJSON, d.Scratches.Count, d.Dents.Count, d.Rust.Count, string(e.Type))
	b.WriteString("\nUse null, not the string \"null\", for missing numeric values. Base all conclusions strictly on the provided data.\n")
	return b.String()
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

var _ port.ReportSynthesizer = (*ReportSynthesizer)(nil)

