package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"vehicle-intelligence/internal/domain/entity"
)

// sleepCtx ждёт d или отмены контекста.
func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

type stubExtractor struct {
	frames int
	delay  time.Duration
	err    error
}

func (s *stubExtractor) Extract(ctx context.Context, videoPath, outputDir string) ([]entity.Frame, error) {
	sleepCtx(ctx, s.delay)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	frames := make([]entity.Frame, 0, s.frames)
	for i := 1; i <= s.frames; i++ {
		path := filepath.Join(outputDir, fmt.Sprintf("frame_%04d.jpg", i))
		if err := os.WriteFile(path, []byte("jpeg"), 0o644); err != nil {
			return nil, err
		}
		frames = append(frames, entity.Frame{Path: path, SequenceIndex: i - 1})
	}
	return frames, nil
}

type stubVehicle struct {
	delay time.Duration
	err   error
}

func (s *stubVehicle) Identify(ctx context.Context, framePaths []string) (entity.VehicleInfo, error) {
	sleepCtx(ctx, s.delay)
	if s.err != nil {
		return entity.VehicleInfo{}, s.err
	}
	return entity.VehicleInfo{Type: "car", Brand: "Toyota", Model: "Camry", Color: "white", Confidence: 0.8}, nil
}

type stubOdometer struct {
	delay time.Duration
	// release если задан, Read ждёт его закрытия, игнорируя контекст
	release chan struct{}

	calls atomic.Int32
	mu    sync.Mutex
	seen  [][]string
}

func (s *stubOdometer) Read(ctx context.Context, imagePaths []string) entity.OdometerReading {
	s.calls.Add(1)
	s.mu.Lock()
	s.seen = append(s.seen, imagePaths)
	s.mu.Unlock()
	if s.release != nil {
		<-s.release
	}
	sleepCtx(ctx, s.delay)
	value := 123456
	path := ""
	if len(imagePaths) > 0 {
		path = imagePaths[0]
	}
	return entity.OdometerReading{Value: &value, Confidence: 0.9, ImagePath: path}
}

type stubDashboard struct{}

func (stubDashboard) Locate(ctx context.Context, framePaths []string) []string {
	out := make([]string, 0, len(framePaths))
	for _, p := range framePaths {
		out = append(out, p+"_dashboard.jpg")
	}
	return out
}

type stubDamage struct {
	delay time.Duration
}

func (s *stubDamage) Scan(ctx context.Context, framePaths []string, snapshotDir string) entity.DamageVerdict {
	sleepCtx(ctx, s.delay)
	verdict := entity.EmptyDamageVerdict()
	if len(framePaths) == 0 {
		return verdict
	}
	verdict.Scratches = entity.NewDamageCount(1)
	verdict.Confidence = 0.7
	verdict.Locations = []entity.DamageLocation{{
		Type:       entity.DamageScratch,
		FrameRef:   framePaths[0],
		BBox:       entity.VehicleRegion{X1: 10, Y1: 10, X2: 160, Y2: 50},
		Confidence: 0.7,
		Snapshot:   filepath.Join(snapshotDir, "scratch_01_frame0000.jpg"),
	}}
	return verdict
}

type stubExhaust struct {
	delay time.Duration
}

func (s *stubExhaust) Inspect(ctx context.Context, framePaths []string, snapshotDir string) entity.ExhaustVerdict {
	sleepCtx(ctx, s.delay)
	return entity.ExhaustVerdict{
		Type:           entity.ExhaustStock,
		Confidence:     0.7,
		Snapshot:       filepath.Join(snapshotDir, "exhaust.jpg"),
		FramesAnalyzed: len(framePaths),
	}
}

type stubGenerator struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	if len(s.responses) > 0 {
		return s.responses[len(s.responses)-1], nil
	}
	return "", nil
}

func (s *stubGenerator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubOCR struct {
	spans []entity.TextSpan
	err   error
	calls atomic.Int32
}

func (s *stubOCR) Recognize(ctx context.Context, image []byte) ([]entity.TextSpan, error) {
	s.calls.Add(1)
	return s.spans, s.err
}

type stubVariants struct {
	err error
}

func (s stubVariants) Variants(ctx context.Context, imagePath string) ([]entity.ImageVariant, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []entity.ImageVariant{{Name: "gray", Data: []byte("a")}, {Name: "clahe", Data: []byte("b")}}, nil
}

type stubMirror struct {
	mu    sync.Mutex
	paths []string
}

func (s *stubMirror) Mirror(ctx context.Context, relativePaths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, relativePaths...)
	return nil
}

type stubNotifier struct {
	notified atomic.Int32
}

func (s *stubNotifier) Notify(ctx context.Context, result *entity.InspectionResult) error {
	s.notified.Add(1)
	return nil
}
