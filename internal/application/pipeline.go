package app

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/domain/port"
	"vehicle-intelligence/internal/errors"
	"vehicle-intelligence/internal/logging"
)

const (
	DefaultExtractionTimeout = 5 * time.Minute
	DefaultOdometerTimeout   = 30 * time.Second

	postProcessTimeout = 2 * time.Minute
)

var (
	inspectionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

	videoExtensions = map[string]bool{
		".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true, ".m4v": true,
	}
)

// Processor обрабатывает запрос на осмотр.
type Processor interface {
	Process(ctx context.Context, req entity.InspectionRequest) (*entity.InspectionResult, error)
}

// PipelineDeps зависимости конвейера. Mirror и Notifier необязательны.
type PipelineDeps struct {
	Guard     port.PathGuard
	Layout    port.ArtifactLayout
	Tracker   port.InspectionTracker
	Extractor port.FrameExtractor
	Vehicle   port.VehicleIdentifier
	Odometer  port.OdometerReader
	Dashboard port.DashboardLocator
	Damage    port.DamageScanner
	Exhaust   port.ExhaustInspector
	Reporter  port.ReportSynthesizer
	Mirror    port.ArtifactMirror
	Notifier  port.ReportNotifier
}

// PipelineConfig таймауты конвейера.
type PipelineConfig struct {
	ExtractionTimeout time.Duration
	OdometerTimeout   time.Duration
}

// InspectionPipeline оркестратор осмотра: извлечение кадров, четыре
// параллельных этапа анализа, синтез отчёта.
type InspectionPipeline struct {
	deps   PipelineDeps
	cfg    PipelineConfig
	logger *zap.Logger

	background sync.WaitGroup
}

// NewInspectionPipeline создаёт оркестратор.
func NewInspectionPipeline(deps PipelineDeps, cfg PipelineConfig, logger *zap.Logger) *InspectionPipeline {
	if cfg.ExtractionTimeout <= 0 {
		cfg.ExtractionTimeout = DefaultExtractionTimeout
	}
	if cfg.OdometerTimeout <= 0 {
		cfg.OdometerTimeout = DefaultOdometerTimeout
	}
	return &InspectionPipeline{deps: deps, cfg: cfg, logger: logger}
}

// Process проводит один осмотр от валидации до готового отчёта.
func (p *InspectionPipeline) Process(ctx context.Context, req entity.InspectionRequest) (*entity.InspectionResult, error) {
	id := req.InspectionID
	if !inspectionIDPattern.MatchString(id) {
		return nil, errors.Validation("inspection_id must match %s", inspectionIDPattern.String())
	}
	if !p.deps.Tracker.Begin(ctx, id) {
		return nil, errors.Validation("inspection %s is already being processed", id)
	}
	defer p.deps.Tracker.Finish(ctx, id)

	log := logging.WithOperation(p.logger, "process", id)
	started := time.Now()

	result, err := p.run(ctx, req, log)
	if err != nil {
		p.deps.Tracker.SetState(ctx, id, entity.StateFailed)
		log.Warn("inspection failed", zap.Error(err), zap.Duration("duration", time.Since(started)))
		return nil, err
	}

	p.deps.Tracker.SetState(ctx, id, entity.StateComplete)
	log.Info("inspection complete",
		zap.Int("frames", len(result.Frames)),
		zap.String("severity", string(result.Damage.Severity)),
		zap.String("report_source", string(result.Report.Source)),
		zap.Duration("duration", time.Since(started)),
	)
	p.postProcess(ctx, result)
	return result, nil
}

func (p *InspectionPipeline) run(ctx context.Context, req entity.InspectionRequest, log *zap.Logger) (*entity.InspectionResult, error) {
	id := req.InspectionID

	p.deps.Tracker.SetState(ctx, id, entity.StateValidating)
	videoPath, odometerImage, err := p.validate(req, log)
	if err != nil {
		return nil, err
	}
	if err := p.deps.Layout.Ensure(id); err != nil {
		return nil, errors.Wrap(err, "prepare inspection directories")
	}
	if odometerImage != "" {
		imported, err := p.deps.Layout.Import(id, odometerImage)
		if err != nil {
			log.Warn("cannot import odometer image, reading dashboard from frames", zap.Error(err))
		}
		odometerImage = imported
	}

	p.deps.Tracker.SetState(ctx, id, entity.StateExtracting)
	frames, err := p.extract(ctx, videoPath, p.deps.Layout.FramesDir(id), log)
	if err != nil {
		return nil, err
	}
	framePaths := entity.FramePaths(frames)

	p.deps.Tracker.SetState(ctx, id, entity.StateParallelAnalysis)
	stages, err := p.analyze(ctx, id, framePaths, odometerImage, log)
	if err != nil {
		return nil, err
	}
	p.normalize(&stages)

	p.deps.Tracker.SetState(ctx, id, entity.StateSynthesizing)
	synthStarted := time.Now()
	report := p.deps.Reporter.Synthesize(ctx, stages)
	log.Info("report synthesized", zap.String("source", string(report.Source)), zap.Duration("duration", time.Since(synthStarted)))

	relFrames := make([]string, len(framePaths))
	for i, f := range framePaths {
		relFrames[i] = p.deps.Layout.Relative(f)
	}

	return &entity.InspectionResult{
		InspectionID: id,
		Frames:       relFrames,
		VehicleInfo:  stages.Vehicle,
		Odometer:     stages.Odometer,
		Damage:       stages.Damage,
		Exhaust:      stages.Exhaust,
		Report:       report,
	}, nil
}

// validate проверяет видео и понижает отсутствующий снимок одометра до пустого.
func (p *InspectionPipeline) validate(req entity.InspectionRequest, log *zap.Logger) (string, string, error) {
	if strings.TrimSpace(req.VideoPath) == "" {
		return "", "", errors.Validation("video_path is required")
	}
	videoPath, err := p.deps.Guard.Resolve(req.VideoPath)
	if err != nil {
		return "", "", err
	}

	if !videoExtensions[strings.ToLower(filepath.Ext(videoPath))] {
		return "", "", errors.Validation("unsupported video format %q", filepath.Ext(videoPath))
	}
	info, err := os.Stat(videoPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", errors.NotFound("video file not found: %s", req.VideoPath)
		}
		return "", "", errors.Wrapf(err, "stat video %s", req.VideoPath)
	}
	if !info.Mode().IsRegular() {
		return "", "", errors.Validation("video path is not a regular file: %s", req.VideoPath)
	}

	if req.OdometerImagePath == "" {
		return videoPath, "", nil
	}
	imagePath, err := p.deps.Guard.Resolve(req.OdometerImagePath)
	if err != nil {
		return "", "", err
	}
	if info, err := os.Stat(imagePath); err != nil || !info.Mode().IsRegular() {
		log.Warn("odometer image is not available, reading dashboard from frames", zap.String("path", req.OdometerImagePath))
		return videoPath, "", nil
	}
	return videoPath, imagePath, nil
}

type extraction struct {
	frames []entity.Frame
	err    error
}

// extract обязательный этап с жёстким таймаутом.
func (p *InspectionPipeline) extract(ctx context.Context, videoPath, outputDir string, log *zap.Logger) ([]entity.Frame, error) {
	started := time.Now()
	extractCtx, cancel := context.WithTimeout(ctx, p.cfg.ExtractionTimeout)
	defer cancel()

	done := make(chan extraction, 1)
	go func() {
		frames, err := p.deps.Extractor.Extract(extractCtx, videoPath, outputDir)
		done <- extraction{frames: frames, err: err}
	}()

	var res extraction
	select {
	case res = <-done:
	case <-extractCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.ExtractionTimeout("frame extraction exceeded %s", p.cfg.ExtractionTimeout)
	}

	if res.err != nil {
		if errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, errors.ExtractionTimeout("frame extraction exceeded %s", p.cfg.ExtractionTimeout)
		}
		return nil, errors.Wrap(res.err, "extract frames")
	}
	if len(res.frames) == 0 {
		return nil, errors.Validation("no usable frames could be extracted from the video")
	}

	log.Info("frames extracted", zap.Int("frames", len(res.frames)), zap.Duration("duration", time.Since(started)))
	return res.frames, nil
}

// analyze запускает четыре этапа одновременно и ждёт все. Ошибка
// идентификации отменяет остальные этапы.
func (p *InspectionPipeline) analyze(ctx context.Context, id string, framePaths []string, odometerImage string, log *zap.Logger) (entity.StageResults, error) {
	var stages entity.StageResults
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer timed(log, "identify")()
		info, err := p.deps.Vehicle.Identify(gctx, framePaths)
		if err != nil {
			return errors.Wrap(err, "identify vehicle")
		}
		stages.Vehicle = info
		return nil
	})
	g.Go(func() error {
		defer timed(log, "odometer")()
		stages.Odometer = p.readOdometer(gctx, framePaths, odometerImage, log)
		return nil
	})
	g.Go(func() error {
		defer timed(log, "damage")()
		stages.Damage = p.deps.Damage.Scan(gctx, framePaths, p.deps.Layout.DamageDir(id))
		return nil
	})
	g.Go(func() error {
		defer timed(log, "exhaust")()
		stages.Exhaust = p.deps.Exhaust.Inspect(gctx, framePaths, p.deps.Layout.ExhaustDir(id))
		return nil
	})

	if err := g.Wait(); err != nil {
		return entity.StageResults{}, err
	}
	return stages, nil
}

// readOdometer читает снимок пользователя с отдельным таймаутом, иначе ищет
// приборную панель в кадрах.
func (p *InspectionPipeline) readOdometer(ctx context.Context, framePaths []string, userImage string, log *zap.Logger) entity.OdometerReading {
	if userImage == "" {
		return p.deps.Odometer.Read(ctx, p.deps.Dashboard.Locate(ctx, framePaths))
	}

	readCtx, cancel := context.WithTimeout(ctx, p.cfg.OdometerTimeout)
	defer cancel()

	done := make(chan entity.OdometerReading, 1)
	go func() {
		done <- p.deps.Odometer.Read(readCtx, []string{userImage})
	}()

	select {
	case reading := <-done:
		return reading
	case <-readCtx.Done():
		log.Warn("odometer read timed out", zap.Duration("timeout", p.cfg.OdometerTimeout))
		return entity.UnreadOdometer(userImage)
	}
}

// normalize приводит все пути к виду относительно корня раздачи.
func (p *InspectionPipeline) normalize(stages *entity.StageResults) {
	rel := p.deps.Layout.Relative
	for i := range stages.Damage.Locations {
		loc := &stages.Damage.Locations[i]
		loc.FrameRef = rel(loc.FrameRef)
		loc.Snapshot = rel(loc.Snapshot)
	}
	stages.Exhaust.Snapshot = rel(stages.Exhaust.Snapshot)
	stages.Odometer.ImagePath = rel(stages.Odometer.ImagePath)
}

// postProcess копирует артефакты и отправляет уведомление в фоне.
func (p *InspectionPipeline) postProcess(ctx context.Context, result *entity.InspectionResult) {
	if p.deps.Mirror == nil && p.deps.Notifier == nil {
		return
	}

	log := logging.WithOperation(p.logger, "post_process", result.InspectionID)
	bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postProcessTimeout)

	p.background.Add(1)
	go func() {
		defer p.background.Done()
		defer cancel()

		if p.deps.Mirror != nil {
			if err := p.deps.Mirror.Mirror(bgCtx, Artifacts(result)); err != nil {
				log.Warn("artifact mirror failed", zap.Error(err))
			}
		}
		if p.deps.Notifier != nil {
			if err := p.deps.Notifier.Notify(bgCtx, result); err != nil {
				log.Warn("report notification failed", zap.Error(err))
			}
		}
	}()
}

// Wait дожидается фоновых задач после завершённых осмотров.
func (p *InspectionPipeline) Wait() {
	p.background.Wait()
}

// Artifacts относительные пути всех файлов, созданных осмотром.
func Artifacts(result *entity.InspectionResult) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		// пути вне корня раздачи не копируются
		if path == "" || filepath.IsAbs(path) || strings.HasPrefix(path, "../") {
			return
		}
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, f := range result.Frames {
		add(f)
	}
	for _, loc := range result.Damage.Locations {
		add(loc.Snapshot)
	}
	add(result.Exhaust.Snapshot)
	add(result.Odometer.ImagePath)
	return out
}

func timed(log *zap.Logger, stage string) func() {
	started := time.Now()
	return func() {
		log.Info("stage finished", zap.String("stage", stage), zap.Duration("duration", time.Since(started)))
	}
}

var _ Processor = (*InspectionPipeline)(nil)
