package storage

import (
	"context"
	"sync"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/domain/port"
)

// MemoryInspectionTracker in-memory хранилище состояний выполняемых осмотров
type MemoryInspectionTracker struct {
	mu     sync.RWMutex
	states map[string]entity.PipelineState
}

// NewMemoryInspectionTracker создаёт новое in-memory хранилище
func NewMemoryInspectionTracker() *MemoryInspectionTracker {
	return &MemoryInspectionTracker{
		states: make(map[string]entity.PipelineState),
	}
}

// Begin регистрирует осмотр в состоянии validating
func (t *MemoryInspectionTracker) Begin(ctx context.Context, inspectionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.states[inspectionID]; exists {
		return false
	}
	t.states[inspectionID] = entity.StateValidating
	return true
}

// SetState обновляет состояние осмотра, если он зарегистрирован
func (t *MemoryInspectionTracker) SetState(ctx context.Context, inspectionID string, state entity.PipelineState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.states[inspectionID]; exists {
		t.states[inspectionID] = state
	}
}

// State возвращает текущее состояние осмотра
func (t *MemoryInspectionTracker) State(ctx context.Context, inspectionID string) (entity.PipelineState, bool) {
	t.mu.RLock()
	state, exists := t.states[inspectionID]
	t.mu.RUnlock()

	return state, exists
}

// Finish удаляет осмотр из хранилища
func (t *MemoryInspectionTracker) Finish(ctx context.Context, inspectionID string) {
	t.mu.Lock()
	delete(t.states, inspectionID)
	t.mu.Unlock()
}

// Проверка реализации интерфейса
var _ port.InspectionTracker = (*MemoryInspectionTracker)(nil)
