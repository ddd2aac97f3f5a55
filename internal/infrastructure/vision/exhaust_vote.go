package vision

import (
	"math"

	"vehicle-intelligence/internal/domain/entity"
)

// ExhaustObservation классификация выхлопа на одном кадре
type ExhaustObservation struct {
	FrameIndex int
	FramePath  string
	Type       entity.ExhaustType
	Confidence float64
}

// ClassifyExhaustFrame классифицирует кадр по числу найденных окружностей и
// доле пикселей-границ в задней части кадра.
func ClassifyExhaustFrame(circles int, edgeComplexity float64, t entity.ExhaustTuning) (entity.ExhaustType, float64) {
	switch {
	case circles > 0:
		bonus := math.Min(t.CircleBonusMax, 0.05*float64(circles-1))
		return entity.ExhaustStock, entity.ClampConfidence(t.CircleConfidence + bonus)
	case edgeComplexity > t.ModifiedComplexity:
		return entity.ExhaustModified, entity.ClampConfidence(t.ModifiedConfidence)
	default:
		return entity.ExhaustStock, entity.ClampConfidence(t.DefaultConfidence)
	}
}

// VoteExhaust выбирает тип большинством голосов. При равенстве побеждает stock.
// Уверенность равна средней уверенности голосов за победивший тип. Второе значение
// индекс самого уверенного наблюдения победившего типа или -1.
func VoteExhaust(observations []ExhaustObservation) (entity.ExhaustVerdict, int) {
	if len(observations) == 0 {
		return entity.DefaultExhaust(), -1
	}

	votes := map[entity.ExhaustType]int{}
	for _, o := range observations {
		votes[o.Type]++
	}
	winner := entity.ExhaustStock
	if votes[entity.ExhaustModified] > votes[entity.ExhaustStock] {
		winner = entity.ExhaustModified
	}

	best := -1
	sum := 0.0
	for i, o := range observations {
		if o.Type != winner {
			continue
		}
		sum += o.Confidence
		if best < 0 || o.Confidence > observations[best].Confidence {
			best = i
		}
	}

	return entity.ExhaustVerdict{
		Type:           winner,
		Confidence:     entity.ClampConfidence(sum / float64(votes[winner])),
		FramesAnalyzed: len(observations),
	}, best
}
