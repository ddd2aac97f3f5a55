package port

import (
	"context"

	"vehicle-intelligence/internal/domain/entity"
)

// PathGuard проверяет, что путь из запроса лежит внутри разрешённых каталогов
type PathGuard interface {
	// Resolve возвращает абсолютный путь или ошибку валидации
	Resolve(path string) (string, error)
}

// ArtifactLayout раскладка файлов осмотра под корнем раздачи
type ArtifactLayout interface {
	FramesDir(inspectionID string) string
	DamageDir(inspectionID string) string
	ExhaustDir(inspectionID string) string
	// Ensure создаёт каталоги осмотра
	Ensure(inspectionID string) error
	// Import переносит внешний файл под корень раздачи и возвращает новый путь
	Import(inspectionID, path string) (string, error)
	// Relative приводит путь к виду относительно корня раздачи с разделителем "/"
	Relative(path string) string
}

// InspectionTracker хранит состояние осмотров, которые сейчас обрабатываются
type InspectionTracker interface {
	// Begin регистрирует осмотр; false, если осмотр с таким ID уже выполняется
	Begin(ctx context.Context, inspectionID string) bool

	// SetState обновляет состояние осмотра
	SetState(ctx context.Context, inspectionID string, state entity.PipelineState)

	// State возвращает текущее состояние осмотра
	State(ctx context.Context, inspectionID string) (entity.PipelineState, bool)

	// Finish удаляет осмотр из списка выполняемых
	Finish(ctx context.Context, inspectionID string)
}

// ArtifactMirror копирует артефакты осмотра во внешнее хранилище
type ArtifactMirror interface {
	Mirror(ctx context.Context, relativePaths []string) error
}

// ReportNotifier отправляет итог осмотра во внешний канал
type ReportNotifier interface {
	Notify(ctx context.Context, result *entity.InspectionResult) error
}
