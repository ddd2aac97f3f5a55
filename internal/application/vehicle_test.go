package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/errors"
)

type stubDetector struct {
	detections []entity.Detection
	err        error
}

func (s stubDetector) Detect(ctx context.Context, imagePath string) ([]entity.Detection, error) {
	return s.detections, s.err
}

// stubClassifier отдаёт наибольшую вероятность метке, содержащей favourite.
type stubClassifier struct {
	favourite string
	err       error
	frames    [][]string
}

func (s *stubClassifier) Classify(ctx context.Context, imagePaths []string, labels []string) ([]float64, error) {
	s.frames = append(s.frames, imagePaths)
	if s.err != nil {
		return nil, s.err
	}
	probs := make([]float64, len(labels))
	for i, l := range labels {
		probs[i] = 0.01
		if strings.Contains(l, s.favourite) {
			probs[i] = 0.6
		}
	}
	return probs, nil
}

type stubColor struct {
	region *entity.VehicleRegion
}

func (s *stubColor) EstimateColor(ctx context.Context, imagePath string, region *entity.VehicleRegion) (string, error) {
	s.region = region
	return "red", nil
}

func writeFrames(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, n)
	for i := range paths {
		paths[i] = filepath.Join(dir, "frame_"+string(rune('a'+i))+".jpg")
		require.NoError(t, os.WriteFile(paths[i], []byte("jpeg"), 0o644))
	}
	return paths
}

func TestVehicleIdentifier_Identify(t *testing.T) {
	detector := stubDetector{detections: []entity.Detection{
		{ClassID: 0, Label: "object", Confidence: 0.99, Box: entity.VehicleRegion{X2: 500, Y2: 500}},
		{ClassID: 7, Label: "truck", Confidence: 0.5, Box: entity.VehicleRegion{X2: 50, Y2: 50}},
		{ClassID: 2, Label: "car", Confidence: 0.9, Box: entity.VehicleRegion{X1: 10, Y1: 10, X2: 300, Y2: 200}},
	}}
	classifier := &stubClassifier{favourite: "Toyota"}
	colors := &stubColor{}
	tuning := entity.DefaultTuning().Vehicle
	tuning.Catalog = map[string][]string{"Toyota": {"Corolla", "Camry"}}
	identifier := NewVehicleIdentifier(detector, classifier, colors, tuning, zap.NewNop())

	frames := writeFrames(t, 7)
	info, err := identifier.Identify(context.Background(), frames)
	require.NoError(t, err)
	require.Equal(t, "car", info.Type)
	require.Equal(t, "Toyota", info.Brand)
	require.Equal(t, "Corolla", info.Model)
	require.Equal(t, "red", info.Color)
	require.InDelta(t, 0.6, info.Confidence, 1e-9)
	require.Equal(t, entity.VehicleRegion{X1: 10, Y1: 10, X2: 300, Y2: 200}, *colors.region)

	// марка и модель классифицируются по первым трём кадрам
	require.Len(t, classifier.frames, 2)
	require.Equal(t, frames[:3], classifier.frames[0])
}

func TestVehicleIdentifier_BrandWithoutCatalog(t *testing.T) {
	classifier := &stubClassifier{favourite: "Kia"}
	identifier := NewVehicleIdentifier(stubDetector{}, classifier, &stubColor{}, entity.DefaultTuning().Vehicle, zap.NewNop())

	info, err := identifier.Identify(context.Background(), writeFrames(t, 2))
	require.NoError(t, err)
	require.Equal(t, "Kia", info.Brand)
	require.Equal(t, entity.Unknown, info.Model)
	require.Equal(t, "car", info.Type)
	require.Len(t, classifier.frames, 1)
}

func TestVehicleIdentifier_DegradesOnClassifierFailure(t *testing.T) {
	identifier := NewVehicleIdentifier(
		stubDetector{err: errors.New("detector down")},
		&stubClassifier{err: errors.NewCollaboratorError("classifier", 503, nil)},
		nil,
		entity.DefaultTuning().Vehicle,
		zap.NewNop(),
	)

	info, err := identifier.Identify(context.Background(), writeFrames(t, 3))
	require.NoError(t, err)
	require.Equal(t, entity.UnknownVehicle(), info)
}

func TestVehicleIdentifier_WithoutReadableFrames(t *testing.T) {
	identifier := NewVehicleIdentifier(stubDetector{}, &stubClassifier{}, nil, entity.DefaultTuning().Vehicle, zap.NewNop())

	_, err := identifier.Identify(context.Background(), []string{"/nonexistent/frame_0001.jpg"})
	require.Error(t, err)
}
