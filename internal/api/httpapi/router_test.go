package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/errors"
	"vehicle-intelligence/internal/infrastructure/storage"
)

type stubProcessor struct {
	err  error
	last entity.InspectionRequest
}

func (s *stubProcessor) Process(ctx context.Context, req entity.InspectionRequest) (*entity.InspectionResult, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &entity.InspectionResult{InspectionID: req.InspectionID, Frames: []string{"frames/x/frame_0001.jpg"}}, nil
}

func newTestServer(t *testing.T, processor *stubProcessor, production bool, ready bool) *httptest.Server {
	t.Helper()
	tracker := storage.NewMemoryInspectionTracker()
	tracker.Begin(context.Background(), "running-1")
	tracker.SetState(context.Background(), "running-1", entity.StateExtracting)

	server := httptest.NewServer(NewRouter(Deps{
		Processor:  processor,
		Tracker:    tracker,
		Ready:      func() bool { return ready },
		Production: production,
		Logger:     zap.NewNop(),
	}))
	t.Cleanup(server.Close)
	return server
}

func post(t *testing.T, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func errorCode(t *testing.T, body map[string]interface{}) (string, string) {
	t.Helper()
	detail, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "missing error envelope: %v", body)
	return detail["code"].(string), detail["message"].(string)
}

func TestRouter_ProcessSuccess(t *testing.T) {
	processor := &stubProcessor{}
	server := newTestServer(t, processor, false, true)

	for _, path := range []string{"/process", "/api/process"} {
		resp, body := post(t, server.URL+path, `{"video_path":"/data/v.mp4","inspection_id":"abc","odometer_image_path":"/data/o.jpg"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "abc", body["inspection_id"])
		require.NotEmpty(t, resp.Header.Get(requestIDHeader))
	}
	require.Equal(t, "/data/o.jpg", processor.last.OdometerImagePath)
}

func TestRouter_ProcessErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{errors.Validation("path outside allow list"), http.StatusBadRequest, "invalid_request"},
		{errors.VideoOpen("/data/v.mp4", nil), http.StatusBadRequest, "invalid_request"},
		{errors.NotFound("video file not found"), http.StatusNotFound, "not_found"},
		{errors.ExtractionTimeout("too long"), http.StatusRequestTimeout, "extraction_timeout"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		server := newTestServer(t, &stubProcessor{err: tc.err}, false, true)
		resp, body := post(t, server.URL+"/process", `{"video_path":"/data/v.mp4","inspection_id":"abc"}`)
		require.Equal(t, tc.status, resp.StatusCode, tc.err.Error())
		code, _ := errorCode(t, body)
		require.Equal(t, tc.code, code)
	}
}

func TestRouter_ProcessSchemaValidation(t *testing.T) {
	server := newTestServer(t, &stubProcessor{}, false, true)

	for _, body := range []string{`{"video_path":`, `{"video_path":"/data/v.mp4"}`, `[]`} {
		resp, out := post(t, server.URL+"/process", body)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, body)
		code, _ := errorCode(t, out)
		require.Equal(t, "schema_validation", code)
	}
}

func TestRouter_ProductionHidesInternalErrors(t *testing.T) {
	server := newTestServer(t, &stubProcessor{err: errors.New("gocv: segfault at 0xdead")}, true, true)

	resp, body := post(t, server.URL+"/process", `{"video_path":"/data/v.mp4","inspection_id":"abc"}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	_, message := errorCode(t, body)
	require.Equal(t, "internal server error", message)

	server = newTestServer(t, &stubProcessor{err: errors.Validation("bad path")}, true, true)
	_, body = post(t, server.URL+"/process", `{"video_path":"/data/v.mp4","inspection_id":"abc"}`)
	_, message = errorCode(t, body)
	require.Contains(t, message, "bad path")
}

func TestRouter_HealthAndReady(t *testing.T) {
	server := newTestServer(t, &stubProcessor{}, false, false)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	ready := newTestServer(t, &stubProcessor{}, false, true)
	resp, err = http.Get(ready.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_InspectionState(t *testing.T) {
	server := newTestServer(t, &stubProcessor{}, false, true)

	resp, err := http.Get(server.URL + "/inspections/running-1/state")
	require.NoError(t, err)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "extracting", body["state"])

	resp, err = http.Get(server.URL + "/inspections/unknown/state")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_RequestIDPropagation(t *testing.T) {
	server := newTestServer(t, &stubProcessor{}, false, true)
	id := "6f1c2b0e-8a63-4c1e-9d55-1b0f3f5f2a10"

	req, err := http.NewRequest(http.MethodGet, server.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, id, resp.Header.Get(requestIDHeader))
}
