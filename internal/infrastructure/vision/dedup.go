package vision

import (
	"math"

	"vehicle-intelligence/internal/domain/entity"
)

// Deduplicator отбрасывает повторные наблюдения одного дефекта на соседних кадрах.
// Находка считается дубликатом, если её центр ближе радиуса своего типа к ранее
// принятой находке того же типа и кадры отстоят не больше чем на FrameWindow.
type Deduplicator struct {
	tuning   entity.DedupTuning
	accepted map[entity.DamageType][]entity.DamageLocation
}

// NewDeduplicator создаёт пустой дедупликатор для одного прогона.
func NewDeduplicator(tuning entity.DedupTuning) *Deduplicator {
	return &Deduplicator{
		tuning:   tuning,
		accepted: make(map[entity.DamageType][]entity.DamageLocation),
	}
}

// Accept возвращает true и запоминает находку, если она не дубликат.
func (d *Deduplicator) Accept(loc entity.DamageLocation) bool {
	radius := d.tuning.Radius(loc.Type)
	cx, cy := loc.BBox.Center()
	for _, prev := range d.accepted[loc.Type] {
		if absInt(loc.FrameIndex-prev.FrameIndex) > d.tuning.FrameWindow {
			continue
		}
		px, py := prev.BBox.Center()
		if math.Hypot(float64(cx-px), float64(cy-py)) <= radius {
			return false
		}
	}
	d.accepted[loc.Type] = append(d.accepted[loc.Type], loc)
	return true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
