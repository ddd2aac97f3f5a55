package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"vehicle-intelligence/internal/errors"
)

func TestClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "test-model", body["model"])
		require.Equal(t, "json_object", body["response_format"].(map[string]interface{})["type"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"value\":45210,\"confidence\":0.9}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: server.URL + "/v1", Model: "test-model", RPS: 100})
	text, err := client.Generate(context.Background(), "read the odometer")
	require.NoError(t, err)
	require.JSONEq(t, `{"value":45210,"confidence":0.9}`, text)
}

func TestClient_TranslatesStatusCodes(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusForbidden, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"denied","type":"error","code":null}}`))
		}))

		client := NewClient(Config{APIKey: "k", BaseURL: server.URL + "/v1", Model: "m"})
		_, err := client.Generate(context.Background(), "p")
		server.Close()

		require.Error(t, err)
		require.True(t, errors.Is(err, errors.ErrCollaborator))
		require.Equal(t, status, errors.StatusCode(err), "status %d", status)
	}
}

func TestClient_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	_, err := NewClient(Config{APIKey: "k", BaseURL: server.URL + "/v1"}).Generate(context.Background(), "p")
	require.True(t, errors.Is(err, errors.ErrCollaborator))
	require.Zero(t, errors.StatusCode(err))
}

func TestIsReasoningModel(t *testing.T) {
	require.True(t, isReasoningModel("o3-mini"))
	require.True(t, isReasoningModel("gpt-5"))
	require.False(t, isReasoningModel(DefaultModel))
}
