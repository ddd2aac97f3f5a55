package vision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/domain/port"
	"vehicle-intelligence/internal/errors"
)

// frameAnalysis кандидаты повреждений одного кадра в координатах кадра
type frameAnalysis struct {
	Width      int
	Height     int
	Candidates []entity.DamageLocation
}

type frameAnalyzer func(ctx context.Context, framePath string, region *entity.VehicleRegion) (frameAnalysis, error)

type snapshotWriter func(framePath string, box entity.VehicleRegion, padding int, dst string) error

// DamageEngine эвристический поиск царапин, вмятин и ржавчины по кадрам.
type DamageEngine struct {
	detector port.ObjectDetector
	tuning   entity.DamageTuning
	severity entity.SeverityTuning
	logger   *zap.Logger

	analyze  frameAnalyzer
	snapshot snapshotWriter
}

// NewDamageEngine создаёт движок. detector может быть nil: тогда анализируется весь кадр.
func NewDamageEngine(detector port.ObjectDetector, tuning entity.DamageTuning, severity entity.SeverityTuning, logger *zap.Logger) *DamageEngine {
	e := &DamageEngine{
		detector: detector,
		tuning:   tuning,
		severity: severity,
		logger:   logger,
		snapshot: writeSnapshot,
	}
	e.analyze = e.analyzeFrame
	return e
}

// Scan анализирует кадры по порядку и возвращает агрегированный вердикт.
// Ошибка на кадре пропускает только этот кадр.
func (e *DamageEngine) Scan(ctx context.Context, framePaths []string, snapshotDir string) entity.DamageVerdict {
	dedup := NewDeduplicator(e.tuning.Dedup)
	var accepted []entity.DamageLocation
	skipped, duplicates := 0, 0

	for idx, path := range framePaths {
		if ctx.Err() != nil {
			e.logger.Warn("damage scan interrupted", zap.Int("frames_scanned", idx), zap.Error(ctx.Err()))
			break
		}

		analysis, err := e.analyzeSafely(ctx, path, e.locateVehicle(ctx, path))
		if err != nil {
			skipped++
			e.logger.Warn("damage scan skipped frame", zap.String("frame", path), zap.Error(err))
			continue
		}

		for _, candidate := range analysis.Candidates {
			candidate.FrameRef = path
			candidate.FrameIndex = idx
			candidate.Confidence = entity.ClampConfidence(candidate.Confidence)
			if !dedup.Accept(candidate) {
				duplicates++
				continue
			}
			accepted = append(accepted, candidate)
		}
	}

	verdict := Aggregate(accepted, e.tuning.MaxLocations, e.severity)
	if snapshotDir != "" && len(verdict.Locations) > 0 {
		e.persistSnapshots(verdict.Locations, snapshotDir)
	}

	e.logger.Info("damage scan finished",
		zap.Int("frames", len(framePaths)),
		zap.Int("skipped_frames", skipped),
		zap.Int("duplicates", duplicates),
		zap.Int("scratches", verdict.Scratches.Count),
		zap.Int("dents", verdict.Dents.Count),
		zap.Int("rust", verdict.Rust.Count),
		zap.String("severity", string(verdict.Severity)),
	)
	return verdict
}

// locateVehicle область кузова по детектору; nil, если автомобиль не найден.
func (e *DamageEngine) locateVehicle(ctx context.Context, framePath string) *entity.VehicleRegion {
	if e.detector == nil {
		return nil
	}
	detections, err := e.detector.Detect(ctx, framePath)
	if err != nil {
		e.logger.Debug("vehicle localization failed, using full frame", zap.String("frame", framePath), zap.Error(err))
		return nil
	}
	return LargestVehicle(detections, damageRegionClasses)
}

func (e *DamageEngine) analyzeSafely(ctx context.Context, framePath string, region *entity.VehicleRegion) (analysis frameAnalysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("panic while analyzing frame: %v", r)
		}
	}()
	return e.analyze(ctx, framePath, region)
}

func (e *DamageEngine) persistSnapshots(locations []entity.DamageLocation, dir string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		e.logger.Warn("cannot create snapshot directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	for i := range locations {
		loc := &locations[i]
		dst := filepath.Join(dir, fmt.Sprintf("%s_%02d_frame%04d.jpg", loc.Type, i+1, loc.FrameIndex))
		if err := e.snapshot(loc.FrameRef, loc.BBox, e.padding(loc.Type), dst); err != nil {
			e.logger.Warn("snapshot failed", zap.String("frame", loc.FrameRef), zap.Error(err))
			continue
		}
		loc.Snapshot = dst
	}
}

func (e *DamageEngine) padding(kind entity.DamageType) int {
	switch kind {
	case entity.DamageScratch:
		return e.tuning.Scratch.SnapshotPadding
	case entity.DamageRust:
		return e.tuning.Rust.SnapshotPadding
	case entity.DamageDent:
		return e.tuning.Dent.SnapshotPadding
	default:
		return 0
	}
}

var _ port.DamageScanner = (*DamageEngine)(nil)
