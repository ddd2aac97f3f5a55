package vision

import (
	"math"
	"sort"

	"vehicle-intelligence/internal/domain/entity"
)

// Нижние границы порогов Canny для тёмных кадров, где медиана близка к нулю.
const (
	minCannyLower = 10
	minCannyUpper = 30
)

// MedianIntensity медиана яркости 8-битного изображения.
func MedianIntensity(pixels []byte) float64 {
	if len(pixels) == 0 {
		return 0
	}
	var hist [256]int
	for _, p := range pixels {
		hist[p]++
	}
	half := (len(pixels) + 1) / 2
	seen := 0
	for value, count := range hist {
		seen += count
		if seen >= half {
			return float64(value)
		}
	}
	return 255
}

// CannyThresholds пороги Canny вокруг медианной яркости: (1-sigma)*m и (1+sigma)*m.
func CannyThresholds(median, sigma float64) (lower, upper float32) {
	lo := math.Max(minCannyLower, (1-sigma)*median)
	hi := math.Min(255, math.Max(minCannyUpper, (1+sigma)*median))
	if hi < lo {
		hi = lo
	}
	return float32(lo), float32(hi)
}

// AspectRatio отношение большей стороны к меньшей, 0 для вырожденного прямоугольника.
func AspectRatio(width, height int) float64 {
	if width <= 0 || height <= 0 {
		return 0
	}
	long, short := float64(width), float64(height)
	if short > long {
		long, short = short, long
	}
	return long / short
}

// Circularity 4π·area/perimeter², 1 для идеального круга.
func Circularity(area, perimeter float64) float64 {
	if perimeter <= 0 || area <= 0 {
		return 0
	}
	return 4 * math.Pi * area / (perimeter * perimeter)
}

// ScratchConfidence переводит контраст контура с окружением и плотность границ
// в уверенность из [ConfidenceFloor, ConfidenceCeil]. ok == false, если исходная
// оценка ниже minEvidence.
func ScratchConfidence(interiorMean, ringMean, edgeDensity float64, t entity.ScratchTuning, minEvidence float64) (confidence float64, ok bool) {
	contrast := math.Abs(interiorMean-ringMean) / 255
	density := math.Min(1, edgeDensity*t.EdgeDensityScale)
	evidence := entity.ClampConfidence(t.ContrastWeight*contrast + t.EdgeWeight*density)
	if evidence < minEvidence {
		return 0, false
	}
	return entity.ClampConfidence(t.ConfidenceFloor + evidence*(t.ConfidenceCeil-t.ConfidenceFloor)), true
}

// RustConfidence смешивает среднюю насыщенность и яркость области с нормированной площадью.
func RustConfidence(meanSaturation, meanValue, area float64, t entity.RustTuning) float64 {
	areaTerm := 0.0
	if t.AreaNorm > 0 {
		areaTerm = math.Min(1, area/t.AreaNorm)
	}
	return entity.ClampConfidence(
		t.SaturationWeight*meanSaturation/255 +
			t.ValueWeight*meanValue/255 +
			t.AreaWeight*areaTerm,
	)
}

// DentConfidence смешивает площадь, округлость и тень: центр вмятины темнее её края.
func DentConfidence(area, circularity, centerMean, edgeMean float64, t entity.DentTuning) float64 {
	areaTerm := 0.0
	if t.AreaNorm > 0 {
		areaTerm = math.Min(1, area/t.AreaNorm)
	}
	shadow := 0.0
	if t.ShadowScale > 0 {
		shadow = entity.ClampConfidence((edgeMean - centerMean) / t.ShadowScale)
	}
	return entity.ClampConfidence(
		t.AreaWeight*areaTerm +
			t.CircularityWeight*math.Min(1, circularity) +
			t.ShadowWeight*shadow,
	)
}

// ClassifySeverity уровень тяжести по числу повреждений и средней уверенности.
// Не убывает по total при фиксированной средней уверенности.
func ClassifySeverity(total int, meanConfidence float64, t entity.SeverityTuning) entity.Severity {
	switch {
	case total <= 0:
		return entity.SeverityLow
	case total > t.HighTotal, total > t.ElevatedTotal && meanConfidence > t.ElevatedConfidence:
		return entity.SeverityHigh
	case total > t.MediumTotal, meanConfidence > t.MediumConfidence:
		return entity.SeverityMedium
	default:
		return entity.SeverityLow
	}
}

// Aggregate строит вердикт из принятых повреждений: счётчики по типам, средняя
// уверенность, уровень тяжести и maxLocations самых уверенных находок.
func Aggregate(accepted []entity.DamageLocation, maxLocations int, t entity.SeverityTuning) entity.DamageVerdict {
	verdict := entity.EmptyDamageVerdict()
	if len(accepted) == 0 {
		return verdict
	}

	counts := make(map[entity.DamageType]int, 3)
	sum := 0.0
	for _, loc := range accepted {
		counts[loc.Type]++
		sum += loc.Confidence
	}
	mean := entity.ClampConfidence(sum / float64(len(accepted)))

	verdict.Scratches = entity.NewDamageCount(counts[entity.DamageScratch])
	verdict.Dents = entity.NewDamageCount(counts[entity.DamageDent])
	verdict.Rust = entity.NewDamageCount(counts[entity.DamageRust])
	verdict.Confidence = mean
	verdict.Severity = ClassifySeverity(len(accepted), mean, t)

	locations := append([]entity.DamageLocation(nil), accepted...)
	sort.SliceStable(locations, func(i, j int) bool {
		return locations[i].Confidence > locations[j].Confidence
	})
	if maxLocations > 0 && len(locations) > maxLocations {
		locations = locations[:maxLocations]
	}
	verdict.Locations = locations
	return verdict
}
