package telegram

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/errors"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func sampleResult() *entity.InspectionResult {
	mileage := 45210
	damage := entity.EmptyDamageVerdict()
	damage.Scratches = entity.NewDamageCount(2)
	damage.Severity = entity.SeverityLow
	damage.Locations = []entity.DamageLocation{
		{Type: entity.DamageScratch, Confidence: 0.83, Snapshot: "damage/insp/scratch_01_frame0003.jpg"},
		{Type: entity.DamageScratch, Confidence: 0.51, Snapshot: "damage/insp/scratch_02_frame0007.jpg"},
	}
	return &entity.InspectionResult{
		InspectionID: "insp",
		VehicleInfo:  entity.VehicleInfo{Type: "car", Brand: "Toyota", Model: "Camry", Color: "white", Confidence: 0.8},
		Odometer:     entity.OdometerReading{Value: &mileage, Confidence: 0.9},
		Damage:       damage,
		Exhaust:      entity.ExhaustVerdict{Type: entity.ExhaustStock, Confidence: 0.7},
		Report:       entity.Report{Summary: "Good condition.", Recommendations: []string{"Verify odometer"}},
	}
}

func TestFormatResult(t *testing.T) {
	text := FormatResult(sampleResult())

	require.Contains(t, text, "Осмотр insp завершён")
	require.Contains(t, text, "Toyota Camry car")
	require.Contains(t, text, "Пробег: 45210 км")
	require.Contains(t, text, "царапин 2")
	require.Contains(t, text, "• Verify odometer")

	result := sampleResult()
	result.Odometer = entity.UnreadOdometer("")
	require.Contains(t, FormatResult(result), msgNoOdometer)
}

func TestNotifier_SendsSummaryAndTopSnapshot(t *testing.T) {
	api := &fakeSender{}
	n := newNotifier(api, 42, "/srv/uploads", zap.NewNop())

	require.NoError(t, n.Notify(context.Background(), sampleResult()))
	require.Len(t, api.sent, 2)

	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.Equal(t, int64(42), msg.ChatID)

	photo, ok := api.sent[1].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	require.Equal(t, tgbotapi.FilePath("/srv/uploads/damage/insp/scratch_01_frame0003.jpg"), photo.File)
}

func TestNotifier_Failure(t *testing.T) {
	api := &fakeSender{err: errors.New("chat not found")}
	n := newNotifier(api, 42, "/srv/uploads", zap.NewNop())

	require.Error(t, n.Notify(context.Background(), sampleResult()))
	require.Len(t, api.sent, 1)
}
