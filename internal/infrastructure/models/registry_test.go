package models

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/domain/port"
	"vehicle-intelligence/internal/errors"
)

type fakeDetector struct {
	closed bool
}

func (d *fakeDetector) Detect(ctx context.Context, imagePath string) ([]entity.Detection, error) {
	return nil, nil
}

func (d *fakeDetector) Close() error {
	d.closed = true
	return nil
}

type fakeClassifier struct{}

func (fakeClassifier) Classify(ctx context.Context, imagePaths []string, labels []string) ([]float64, error) {
	return make([]float64, len(labels)), nil
}

type loaderCounts struct {
	mu         sync.Mutex
	detector   int
	classifier int
}

func newCountingRegistry(logger *zap.Logger, det *fakeDetector, classifierErr error) (*Registry, *loaderCounts) {
	counts := &loaderCounts{}
	r := NewRegistry(
		func(ctx context.Context) (port.ObjectDetector, error) {
			counts.mu.Lock()
			counts.detector++
			counts.mu.Unlock()
			return det, nil
		},
		func(ctx context.Context) (port.EmbeddingClassifier, error) {
			counts.mu.Lock()
			counts.classifier++
			counts.mu.Unlock()
			if classifierErr != nil {
				return nil, classifierErr
			}
			return fakeClassifier{}, nil
		},
		logger,
	)
	return r, counts
}

func TestRegistry_AccessBeforeInitialize(t *testing.T) {
	r, _ := newCountingRegistry(zap.NewNop(), &fakeDetector{}, nil)

	_, err := r.ObjectDetector()
	require.True(t, errors.Is(err, errors.ErrNotInitialized))
	_, err = r.EmbeddingClassifier()
	require.True(t, errors.Is(err, errors.ErrNotInitialized))
	require.False(t, r.Ready())
}

func TestRegistry_InitializeOnce(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r, counts := newCountingRegistry(zap.New(core), &fakeDetector{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Initialize(context.Background()))
		}()
	}
	wg.Wait()

	require.Equal(t, 1, counts.detector)
	require.Equal(t, 1, counts.classifier)
	require.True(t, r.Ready())
	require.Equal(t, 7, logs.FilterMessage("model registry already initialized, skipping").Len())

	detector, err := r.ObjectDetector()
	require.NoError(t, err)
	require.NotNil(t, detector)
}

func TestRegistry_InitializeFailure(t *testing.T) {
	det := &fakeDetector{}
	r, _ := newCountingRegistry(zap.NewNop(), det, errors.New("processor missing"))

	err := r.Initialize(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrModelInitialization))
	require.False(t, r.Ready())
	require.True(t, det.closed)

	_, err = r.ObjectDetector()
	require.True(t, errors.Is(err, errors.ErrNotInitialized))
}

func TestRegistry_Close(t *testing.T) {
	det := &fakeDetector{}
	r, _ := newCountingRegistry(zap.NewNop(), det, nil)
	require.NoError(t, r.Initialize(context.Background()))

	require.NoError(t, r.Close())
	require.True(t, det.closed)
	require.False(t, r.Ready())
}
