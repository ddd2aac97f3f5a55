package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"vehicle-intelligence/internal/domain/entity"
)

func TestMemoryInspectionTracker_Lifecycle(t *testing.T) {
	tracker := NewMemoryInspectionTracker()
	ctx := context.Background()

	require.True(t, tracker.Begin(ctx, "a"))
	require.False(t, tracker.Begin(ctx, "a"))

	state, ok := tracker.State(ctx, "a")
	require.True(t, ok)
	require.Equal(t, entity.StateValidating, state)

	tracker.SetState(ctx, "a", entity.StateExtracting)
	state, _ = tracker.State(ctx, "a")
	require.Equal(t, entity.StateExtracting, state)

	tracker.Finish(ctx, "a")
	_, ok = tracker.State(ctx, "a")
	require.False(t, ok)

	tracker.SetState(ctx, "a", entity.StateComplete)
	_, ok = tracker.State(ctx, "a")
	require.False(t, ok)
}

func TestMemoryInspectionTracker_ConcurrentBegin(t *testing.T) {
	tracker := NewMemoryInspectionTracker()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tracker.Begin(ctx, "same") {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, started)
}
