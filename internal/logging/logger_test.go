package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithOperationAddsFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := WithOperation(zap.New(core), "damage.scan", "insp-1")

	logger.Info("frame skipped")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "damage.scan", fields["operation"])
	require.Equal(t, "insp-1", fields["inspection_id"])
}

func TestWithOperationOmitsEmptyInspection(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	WithOperation(zap.New(core), "registry.initialize", "").Info("loaded")

	_, ok := logs.All()[0].ContextMap()["inspection_id"]
	require.False(t, ok)
}

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		logger, err := NewLogger(env)
		require.NoError(t, err)
		require.NotNil(t, logger)
	}
}
