package errors

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarksSurviveWrapping(t *testing.T) {
	err := Wrap(Validation("path %q is outside allowed directories", "../../etc/passwd"), "validate video")
	require.True(t, Is(err, ErrValidation))
	require.False(t, Is(err, ErrNotFound))

	err = Wrap(NotFound("video %s does not exist", "a.mp4"), "validate video")
	require.True(t, Is(err, ErrNotFound))
}

func TestCollaboratorStatusCode(t *testing.T) {
	err := Wrap(NewCollaboratorError("llm", http.StatusTooManyRequests, New("quota exceeded")), "generate")
	require.True(t, Is(err, ErrCollaborator))
	require.Equal(t, http.StatusTooManyRequests, StatusCode(err))
	require.Contains(t, err.Error(), "status 429")

	require.Zero(t, StatusCode(New("plain")))
}

func TestVideoOpenKeepsCause(t *testing.T) {
	err := VideoOpen("clip.mp4", context.DeadlineExceeded)
	require.True(t, Is(err, ErrVideoOpen))
	require.True(t, Is(err, context.DeadlineExceeded))
}
