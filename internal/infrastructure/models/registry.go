package models

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"vehicle-intelligence/internal/domain/port"
	"vehicle-intelligence/internal/errors"
)

// DetectorLoader загружает модель детекции объектов
type DetectorLoader func(ctx context.Context) (port.ObjectDetector, error)

// ClassifierLoader загружает классификатор вместе с препроцессором
type ClassifierLoader func(ctx context.Context) (port.EmbeddingClassifier, error)

// Registry владеет общими моделями процесса. После Initialize модели
// только читаются и безопасны для одновременного использования.
type Registry struct {
	loadDetector   DetectorLoader
	loadClassifier ClassifierLoader
	logger         *zap.Logger

	mu          sync.Mutex
	initialized atomic.Bool
	detector    port.ObjectDetector
	classifier  port.EmbeddingClassifier
}

// NewRegistry создаёт реестр. Модели не загружаются до Initialize.
func NewRegistry(detector DetectorLoader, classifier ClassifierLoader, logger *zap.Logger) *Registry {
	return &Registry{
		loadDetector:   detector,
		loadClassifier: classifier,
		logger:         logger,
	}
}

// Initialize загружает все модели ровно один раз. Повторный вызов ничего не делает.
// Если хотя бы одна модель не загрузилась, реестр остаётся неинициализированным.
func (r *Registry) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized.Load() {
		r.logger.Warn("model registry already initialized, skipping")
		return nil
	}

	started := time.Now()
	r.logger.Info("loading models")

	detector, err := r.loadDetector(ctx)
	if err == nil && detector == nil {
		err = errors.New("loader returned no detector")
	}
	if err != nil {
		return r.failed("object detector", err)
	}

	classifier, err := r.loadClassifier(ctx)
	if err == nil && classifier == nil {
		err = errors.New("loader returned no classifier")
	}
	if err != nil {
		if cerr := closeModel(detector); cerr != nil {
			r.logger.Warn("release detector after failed initialization", zap.Error(cerr))
		}
		return r.failed("embedding classifier", err)
	}

	r.detector = detector
	r.classifier = classifier
	r.initialized.Store(true)

	r.logger.Info("models loaded", zap.Duration("duration", time.Since(started)))
	return nil
}

func (r *Registry) failed(model string, err error) error {
	r.logger.Error("model load failed", zap.String("model", model), zap.Error(err))
	return errors.ModelInitialization(err, model)
}

// Ready сообщает, загружены ли модели.
func (r *Registry) Ready() bool {
	return r.initialized.Load()
}

// ObjectDetector общий детектор объектов.
func (r *Registry) ObjectDetector() (port.ObjectDetector, error) {
	if !r.initialized.Load() {
		return nil, errors.Mark(errors.New("object detector requested before initialization"), errors.ErrNotInitialized)
	}
	return r.detector, nil
}

// EmbeddingClassifier общий классификатор.
func (r *Registry) EmbeddingClassifier() (port.EmbeddingClassifier, error) {
	if !r.initialized.Load() {
		return nil, errors.Mark(errors.New("embedding classifier requested before initialization"), errors.ErrNotInitialized)
	}
	return r.classifier, nil
}

// Close освобождает модели, которые держат ресурсы.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized.Load() {
		return nil
	}
	err := closeModel(r.detector)
	if cerr := closeModel(r.classifier); err == nil {
		err = cerr
	}
	r.initialized.Store(false)
	return err
}

func closeModel(model interface{}) error {
	if c, ok := model.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
