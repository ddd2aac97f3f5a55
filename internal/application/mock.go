package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/errors"
)

// DefaultMockDelay задержка ответа в mock-режиме
const DefaultMockDelay = 2 * time.Second

// MockProcessor возвращает фиксированный результат без обращения к моделям.
// Нужен для интеграционных тестов окружающей системы.
type MockProcessor struct {
	delay  time.Duration
	logger *zap.Logger
}

func NewMockProcessor(delay time.Duration, logger *zap.Logger) *MockProcessor {
	return &MockProcessor{delay: delay, logger: logger}
}

func (m *MockProcessor) Process(ctx context.Context, req entity.InspectionRequest) (*entity.InspectionResult, error) {
	if !inspectionIDPattern.MatchString(req.InspectionID) {
		return nil, errors.Validation("inspection_id must match %s", inspectionIDPattern.String())
	}

	timer := time.NewTimer(m.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	m.logger.Info("mock inspection returned", zap.String("inspection_id", req.InspectionID))
	return MockResult(req.InspectionID), nil
}

// MockResult фиксированный результат осмотра.
func MockResult(inspectionID string) *entity.InspectionResult {
	mileage := 45230
	stages := entity.StageResults{
		Vehicle: entity.VehicleInfo{
			Type:       "car",
			Brand:      "Toyota",
			Model:      "Camry",
			Color:      "silver",
			Confidence: 0.87,
		},
		Odometer: entity.OdometerReading{Value: &mileage, Confidence: 0.92},
		Damage: entity.DamageVerdict{
			Scratches:  entity.NewDamageCount(2),
			Dents:      entity.NewDamageCount(1),
			Rust:       entity.NewDamageCount(0),
			Severity:   entity.SeverityLow,
			Confidence: 0.71,
			Locations:  []entity.DamageLocation{},
		},
		Exhaust: entity.ExhaustVerdict{Type: entity.ExhaustStock, Confidence: 0.78, FramesAnalyzed: 10},
	}

	frames := make([]string, 0, 10)
	for i := 1; i <= 10; i++ {
		frames = append(frames, fmt.Sprintf("frames/%s/frame_%04d.jpg", inspectionID, i))
	}

	return &entity.InspectionResult{
		InspectionID: inspectionID,
		Frames:       frames,
		VehicleInfo:  stages.Vehicle,
		Odometer:     stages.Odometer,
		Damage:       stages.Damage,
		Exhaust:      stages.Exhaust,
		Report:       TemplateReport(stages),
	}
}

var _ Processor = (*MockProcessor)(nil)
