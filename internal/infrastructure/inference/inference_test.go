package inference

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vehicle-intelligence/internal/errors"
)

func TestClassifierClient_Classify(t *testing.T) {
	image := filepath.Join(t.TempDir(), "frame.jpg")
	require.NoError(t, os.WriteFile(image, []byte("jpeg-bytes"), 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/classify", r.URL.Path)
		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, []string{"a photo of a Toyota vehicle", "a photo of a Honda vehicle"}, req.Labels)
		require.Equal(t, base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")), req.Images[0])
		_ = json.NewEncoder(w).Encode(classifyResponse{Probabilities: []float64{0.7, 0.3}})
	}))
	defer server.Close()

	client := NewClassifierClient(server.URL+"/", server.Client())
	probs, err := client.Classify(context.Background(), []string{image},
		[]string{"a photo of a Toyota vehicle", "a photo of a Honda vehicle"})
	require.NoError(t, err)
	require.Equal(t, []float64{0.7, 0.3}, probs)
}

func TestClassifierClient_LengthMismatch(t *testing.T) {
	image := filepath.Join(t.TempDir(), "frame.jpg")
	require.NoError(t, os.WriteFile(image, []byte("x"), 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(classifyResponse{Probabilities: []float64{1}})
	}))
	defer server.Close()

	_, err := NewClassifierClient(server.URL, nil).Classify(context.Background(), []string{image}, []string{"a", "b"})
	require.True(t, errors.Is(err, errors.ErrCollaborator))
}

func TestClassifierClient_StatusCode(t *testing.T) {
	image := filepath.Join(t.TempDir(), "frame.jpg")
	require.NoError(t, os.WriteFile(image, []byte("x"), 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model warming up", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClassifierClient(server.URL, nil).Classify(context.Background(), []string{image}, []string{"a"})
	require.Error(t, err)
	require.Equal(t, http.StatusServiceUnavailable, errors.StatusCode(err))
}

func TestClassifierClient_Ready(t *testing.T) {
	health := ClassifierHealth{Status: "ok", ModelLoaded: true, ProcessorLoaded: false}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(health)
	}))
	defer server.Close()

	client := NewClassifierClient(server.URL, nil)
	require.Error(t, client.Ready(context.Background()))

	health.ProcessorLoaded = true
	require.NoError(t, client.Ready(context.Background()))
}

func TestOCRClient_Recognize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ocr", r.URL.Path)
		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, "png-bytes", string(data))

		_, _ = w.Write([]byte(`{"spans":[{"text":"ODO 045,210 km","confidence":0.91},{"text":"x","confidence":3}]}`))
	}))
	defer server.Close()

	spans, err := NewOCRClient(server.URL, nil).Recognize(context.Background(), []byte("png-bytes"))
	require.NoError(t, err)
	require.Len(t, spans, 2)
	require.Equal(t, "ODO 045,210 km", spans[0].Text)
	require.Equal(t, 1.0, spans[1].Confidence)
}

func TestOCRClient_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOCRClient(server.URL, nil).Recognize(ctx, []byte("x"))
	require.True(t, errors.Is(err, context.Canceled))
	require.Zero(t, errors.StatusCode(err))
}
