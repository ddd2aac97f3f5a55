package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vehicle-intelligence/config"
	app "vehicle-intelligence/internal/application"
	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/errors"
)

func classifierSidecar(t *testing.T, loaded bool) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if loaded {
			_, _ = w.Write([]byte(`{"status":"ok","model_loaded":true,"processor_loaded":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"loading","model_loaded":true,"processor_loaded":false}`))
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func testConfig(t *testing.T, classifierURL string) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		AllowedUploadPaths: []string{dir},
		UploadsRoot:        dir,
		ClassifierURL:      classifierURL,
		OCRURL:             "http://127.0.0.1:1",
		Tuning:             entity.DefaultTuning(),
	}
}

func TestNew_MockMode(t *testing.T) {
	c, err := New(context.Background(), &config.Config{MockMode: true}, zap.NewNop())
	require.NoError(t, err)
	require.True(t, c.Ready())
	require.IsType(t, &app.MockProcessor{}, c.Processor)
	require.NotNil(t, c.Tracker)
	require.NoError(t, c.Close())
}

func TestNew_WiresPipeline(t *testing.T) {
	c, err := New(context.Background(), testConfig(t, classifierSidecar(t, true)), zap.NewNop())
	require.NoError(t, err)
	require.True(t, c.Ready())
	require.IsType(t, &app.InspectionPipeline{}, c.Processor)

	require.NoError(t, c.Close())
	require.False(t, c.Ready())
}

func TestNew_FailsWhenClassifierNotLoaded(t *testing.T) {
	_, err := New(context.Background(), testConfig(t, classifierSidecar(t, false)), zap.NewNop())
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrModelInitialization))
}

func TestNew_RequiresAllowedPaths(t *testing.T) {
	cfg := testConfig(t, classifierSidecar(t, true))
	cfg.AllowedUploadPaths = nil

	_, err := New(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
}
