package container

import (
	"context"
	"net/http"
	"os"

	"go.uber.org/zap"

	"vehicle-intelligence/config"
	"vehicle-intelligence/internal/api/telegram"
	app "vehicle-intelligence/internal/application"
	"vehicle-intelligence/internal/domain/port"
	"vehicle-intelligence/internal/errors"
	"vehicle-intelligence/internal/infrastructure/inference"
	"vehicle-intelligence/internal/infrastructure/llm"
	"vehicle-intelligence/internal/infrastructure/models"
	"vehicle-intelligence/internal/infrastructure/storage"
	"vehicle-intelligence/internal/infrastructure/vision"
)

// Container собранные сервисы процесса
type Container struct {
	Processor app.Processor
	Tracker   *storage.MemoryInspectionTracker

	registry *models.Registry
	pipeline *app.InspectionPipeline
}

// New собирает зависимости. В mock-режиме модели не загружаются.
// Ошибка загрузки моделей фатальна: сервис не должен принимать запросы
// с частично загруженным реестром.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{
		Tracker: storage.NewMemoryInspectionTracker(),
	}

	if cfg.MockMode {
		logger.Warn("mock mode enabled, models are not loaded", zap.Duration("delay", cfg.MockDelay))
		c.Processor = app.NewMockProcessor(cfg.MockDelay, logger)
		return c, nil
	}

	if err := os.MkdirAll(cfg.UploadsRoot, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create uploads root %s", cfg.UploadsRoot)
	}
	guard, err := storage.NewPathPolicy(cfg.AllowedUploadPaths)
	if err != nil {
		return nil, err
	}
	layout, err := storage.NewLayout(cfg.UploadsRoot)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: inference.DefaultTimeout}
	classifierClient := inference.NewClassifierClient(cfg.ClassifierURL, httpClient)

	c.registry = models.NewRegistry(
		func(ctx context.Context) (port.ObjectDetector, error) {
			if cfg.YOLOModelPath == "" {
				logger.Warn("YOLO_MODEL_PATH is empty, vehicle regions fall back to full frames")
				return vision.NoopDetector{}, nil
			}
			return vision.LoadYOLODetector(cfg.YOLOModelPath, cfg.DetectorPoolSize)
		},
		func(ctx context.Context) (port.EmbeddingClassifier, error) {
			if err := classifierClient.Ready(ctx); err != nil {
				return nil, err
			}
			return classifierClient, nil
		},
		logger,
	)
	if err := c.registry.Initialize(ctx); err != nil {
		return nil, err
	}
	detector, err := c.registry.ObjectDetector()
	if err != nil {
		return nil, err
	}
	classifier, err := c.registry.EmbeddingClassifier()
	if err != nil {
		return nil, err
	}

	var generator port.TextGenerator
	if cfg.LLM.APIKey != "" {
		generator = llm.NewClient(llm.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			RPS:     cfg.LLM.RPS,
		})
	} else {
		logger.Warn("LLM_API_KEY is empty, reports use the template and odometer skips cross-validation")
	}

	tuning := cfg.Tuning
	ocr := inference.NewOCRClient(cfg.OCRURL, httpClient)

	deps := app.PipelineDeps{
		Guard:     guard,
		Layout:    layout,
		Tracker:   c.Tracker,
		Extractor: vision.NewFrameExtractor(tuning.Frames, logger),
		Vehicle:   app.NewVehicleIdentifier(detector, classifier, vision.HSVColorEstimator{}, tuning.Vehicle, logger),
		Odometer:  app.NewOdometerReader(ocr, vision.NewOCRPreprocessor(), generator, tuning.Odometer, logger),
		Dashboard: vision.NewDashboardDetector(tuning.Odometer.DashboardFrames, logger),
		Damage:    vision.NewDamageEngine(detector, tuning.Damage, tuning.Severity, logger),
		Exhaust:   vision.NewExhaustClassifier(tuning.Exhaust, logger),
		Reporter:  app.NewReportSynthesizer(generator, tuning.Report, logger),
	}

	if cfg.Minio.Endpoint != "" {
		mirror, err := storage.NewMinioMirror(ctx, storage.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			Region:    cfg.Minio.Region,
			Bucket:    cfg.Minio.Bucket,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
		}, layout.Root(), logger)
		if err != nil {
			logger.Warn("artifact mirror disabled", zap.Error(err))
		} else {
			deps.Mirror = mirror
		}
	}

	if cfg.Telegram.Token != "" {
		notifier, err := telegram.NewNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, layout.Root(), logger)
		if err != nil {
			logger.Warn("telegram notifier disabled", zap.Error(err))
		} else {
			deps.Notifier = notifier
		}
	}

	c.pipeline = app.NewInspectionPipeline(deps, app.PipelineConfig{
		ExtractionTimeout: cfg.ExtractionTimeout,
		OdometerTimeout:   cfg.OdometerTimeout,
	}, logger)
	c.Processor = c.pipeline

	return c, nil
}

// Ready сообщает, можно ли принимать запросы
func (c *Container) Ready() bool {
	if c.registry == nil {
		return true
	}
	return c.registry.Ready()
}

// Close дожидается фоновой постобработки и освобождает модели.
func (c *Container) Close() error {
	if c.pipeline != nil {
		c.pipeline.Wait()
	}
	if c.registry != nil {
		return c.registry.Close()
	}
	return nil
}
