package vision

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/domain/port"
	"vehicle-intelligence/internal/errors"
)

// exhaustMeasurement признаки задней части кадра
type exhaustMeasurement struct {
	Circles        int
	EdgeComplexity float64
}

// ExhaustClassifier определяет, стоковый ли выхлоп, по нижней части кадров.
type ExhaustClassifier struct {
	tuning entity.ExhaustTuning
	logger *zap.Logger

	measure  func(ctx context.Context, framePath string) (exhaustMeasurement, error)
	snapshot func(framePath, dst string) error
}

// NewExhaustClassifier создаёт классификатор выхлопа.
func NewExhaustClassifier(tuning entity.ExhaustTuning, logger *zap.Logger) *ExhaustClassifier {
	c := &ExhaustClassifier{tuning: tuning, logger: logger}
	c.measure = c.measureFrame
	c.snapshot = c.saveRearCrop
	return c
}

// Inspect голосует по всем читаемым кадрам и сохраняет снимок самого уверенного.
func (c *ExhaustClassifier) Inspect(ctx context.Context, framePaths []string, snapshotDir string) entity.ExhaustVerdict {
	observations := make([]ExhaustObservation, 0, len(framePaths))
	for idx, path := range framePaths {
		if ctx.Err() != nil {
			break
		}
		m, err := c.measureSafely(ctx, path)
		if err != nil {
			c.logger.Debug("exhaust frame skipped", zap.String("frame", path), zap.Error(err))
			continue
		}
		kind, confidence := ClassifyExhaustFrame(m.Circles, m.EdgeComplexity, c.tuning)
		observations = append(observations, ExhaustObservation{
			FrameIndex: idx,
			FramePath:  path,
			Type:       kind,
			Confidence: confidence,
		})
	}

	verdict, best := VoteExhaust(observations)
	if best >= 0 && snapshotDir != "" {
		dst := filepath.Join(snapshotDir, "exhaust.jpg")
		if err := os.MkdirAll(snapshotDir, 0o755); err != nil {
			c.logger.Warn("cannot create exhaust snapshot directory", zap.Error(err))
		} else if err := c.snapshot(observations[best].FramePath, dst); err != nil {
			c.logger.Warn("exhaust snapshot failed", zap.Error(err))
		} else {
			verdict.Snapshot = dst
		}
	}

	c.logger.Info("exhaust classified",
		zap.String("type", string(verdict.Type)),
		zap.Float64("confidence", verdict.Confidence),
		zap.Int("frames_analyzed", verdict.FramesAnalyzed),
	)
	return verdict
}

func (c *ExhaustClassifier) measureSafely(ctx context.Context, framePath string) (m exhaustMeasurement, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("panic while measuring exhaust: %v", r)
		}
	}()
	return c.measure(ctx, framePath)
}

var _ port.ExhaustInspector = (*ExhaustClassifier)(nil)
