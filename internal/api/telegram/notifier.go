package telegram

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/domain/port"
	"vehicle-intelligence/internal/errors"
)

const (
	msgHeader        = "🚗 Осмотр %s завершён"
	msgVehicle       = "🔎 Автомобиль: %s %s %s, цвет %s (уверенность %.0f%%)"
	msgOdometer      = "🧭 Пробег: %d км (уверенность %.0f%%)"
	msgNoOdometer    = "🧭 Пробег: не распознан"
	msgDamage        = "🛠 Повреждения: царапин %d, вмятин %d, ржавчины %d. Тяжесть: %s"
	msgExhaust       = "💨 Выхлоп: %s (уверенность %.0f%%)"
	msgRecommends    = "📋 Рекомендации:"
	msgDamageCaption = "Наиболее уверенное повреждение: %s, %.0f%%"
)

// sender часть BotAPI, которая нужна уведомителю
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier отправляет итог осмотра в Telegram-чат
type Notifier struct {
	api    sender
	chatID int64
	root   string
	logger *zap.Logger
}

// NewNotifier создаёт уведомитель. root корень раздачи, от которого
// отсчитываются пути снимков.
func NewNotifier(token string, chatID int64, root string, logger *zap.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "authorize telegram bot")
	}

	logger.Info("telegram notifier authorized", zap.String("account", api.Self.UserName))

	return newNotifier(api, chatID, root, logger), nil
}

func newNotifier(api sender, chatID int64, root string, logger *zap.Logger) *Notifier {
	return &Notifier{api: api, chatID: chatID, root: root, logger: logger}
}

// Notify отправляет сводку и снимок самого уверенного повреждения
func (n *Notifier) Notify(ctx context.Context, result *entity.InspectionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, FormatResult(result))
	if _, err := n.api.Send(msg); err != nil {
		return errors.Wrap(err, "send inspection summary")
	}

	// Места повреждений отсортированы по убыванию уверенности
	for _, loc := range result.Damage.Locations {
		if loc.Snapshot == "" {
			continue
		}
		photo := tgbotapi.NewPhoto(n.chatID, tgbotapi.FilePath(n.resolve(loc.Snapshot)))
		photo.Caption = fmt.Sprintf(msgDamageCaption, loc.Type, loc.Confidence*100)
		if _, err := n.api.Send(photo); err != nil {
			n.logger.Warn("send damage snapshot", zap.String("snapshot", loc.Snapshot), zap.Error(err))
		}
		break
	}
	return nil
}

func (n *Notifier) resolve(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(n.root, filepath.FromSlash(rel))
}

// FormatResult текст сводки осмотра
func FormatResult(result *entity.InspectionResult) string {
	v, o, d, e := result.VehicleInfo, result.Odometer, result.Damage, result.Exhaust

	lines := []string{
		fmt.Sprintf(msgHeader, result.InspectionID),
		"",
		fmt.Sprintf(msgVehicle, v.Brand, v.Model, v.Type, v.Color, v.Confidence*100),
	}
	if o.Value != nil {
		lines = append(lines, fmt.Sprintf(msgOdometer, *o.Value, o.Confidence*100))
	} else {
		lines = append(lines, msgNoOdometer)
	}
	lines = append(lines,
		fmt.Sprintf(msgDamage, d.Scratches.Count, d.Dents.Count, d.Rust.Count, d.Severity),
		fmt.Sprintf(msgExhaust, e.Type, e.Confidence*100),
	)

	if summary := strings.TrimSpace(result.Report.Summary); summary != "" {
		lines = append(lines, "", summary)
	}
	if len(result.Report.Recommendations) > 0 {
		lines = append(lines, "", msgRecommends)
		for _, r := range result.Report.Recommendations {
			lines = append(lines, "• "+r)
		}
	}
	return strings.Join(lines, "\n")
}

// Проверка реализации интерфейса
var _ port.ReportNotifier = (*Notifier)(nil)
