package vision

import (
	"context"
	"sort"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/domain/port"
)

// VehicleClasses классы COCO, которые относятся к транспортным средствам.
var VehicleClasses = map[int]string{
	2: "car",
	3: "motorcycle",
	5: "bus",
	7: "truck",
}

// damageRegionClasses классы, по которым ищется область кузова для поиска повреждений.
var damageRegionClasses = map[int]bool{2: true, 3: true, 7: true}

// IoU отношение площади пересечения к площади объединения.
func IoU(a, b entity.VehicleRegion) float64 {
	inter := entity.VehicleRegion{
		X1: maxInt(a.X1, b.X1),
		Y1: maxInt(a.Y1, b.Y1),
		X2: minInt(a.X2, b.X2),
		Y2: minInt(a.Y2, b.Y2),
	}
	ia := inter.Area()
	if ia == 0 {
		return 0
	}
	union := a.Area() + b.Area() - ia
	if union <= 0 {
		return 0
	}
	return float64(ia) / float64(union)
}

// NonMaxSuppression жадно оставляет самые уверенные рамки каждого класса,
// отбрасывая рамки того же класса с IoU выше threshold.
// Реализация на чистом Go, чтобы разбор выхода YOLO и NMS проверялись тестами
// без OpenCV (сборка без тега gocv). Семантика та же, что у gocv.NMSBoxes,
// но подавление идёт только внутри класса.
func NonMaxSuppression(detections []entity.Detection, threshold float64) []entity.Detection {
	sorted := append([]entity.Detection(nil), detections...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]entity.Detection, 0, len(sorted))
	for _, d := range sorted {
		suppressed := false
		for _, k := range kept {
			if k.ClassID == d.ClassID && IoU(k.Box, d.Box) > threshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, d)
		}
	}
	return kept
}

// DecodeYOLOOutput разбирает выход YOLOv8 формы [1, 4+classes, boxes]:
// data[attr*boxes+i], где attr 0..3 это cx, cy, w, h во входных координатах сети.
// scaleX и scaleY переводят координаты в пиксели исходника.
func DecodeYOLOOutput(data []float32, attributes, boxes int, scoreThreshold, scaleX, scaleY float64, width, height int) []entity.Detection {
	if attributes <= 4 || boxes <= 0 || len(data) < attributes*boxes {
		return nil
	}

	var out []entity.Detection
	for i := 0; i < boxes; i++ {
		bestClass, bestScore := -1, 0.0
		for c := 0; c < attributes-4; c++ {
			score := float64(data[(4+c)*boxes+i])
			if score > bestScore {
				bestClass, bestScore = c, score
			}
		}
		if bestClass < 0 || bestScore < scoreThreshold {
			continue
		}

		cx := float64(data[i]) * scaleX
		cy := float64(data[boxes+i]) * scaleY
		w := float64(data[2*boxes+i]) * scaleX
		h := float64(data[3*boxes+i]) * scaleY
		box := entity.VehicleRegion{
			X1: int(cx - w/2),
			Y1: int(cy - h/2),
			X2: int(cx + w/2),
			Y2: int(cy + h/2),
		}.Clip(width, height)
		if box.Empty() {
			continue
		}

		label, ok := VehicleClasses[bestClass]
		if !ok {
			label = "object"
		}
		out = append(out, entity.Detection{
			ClassID:    bestClass,
			Label:      label,
			Confidence: entity.ClampConfidence(bestScore),
			Box:        box,
		})
	}
	return out
}

// LargestVehicle возвращает рамку наибольшей площади среди классов из allowed, или nil.
func LargestVehicle(detections []entity.Detection, allowed map[int]bool) *entity.VehicleRegion {
	var best *entity.VehicleRegion
	for i := range detections {
		d := detections[i]
		if !allowed[d.ClassID] || d.Box.Empty() {
			continue
		}
		if best == nil || d.Box.Area() > best.Area() {
			box := d.Box
			best = &box
		}
	}
	return best
}

// NoopDetector детектор, который ничего не находит. Движок в этом случае
// анализирует кадр целиком.
type NoopDetector struct{}

// Detect всегда возвращает пустой список
func (NoopDetector) Detect(ctx context.Context, imagePath string) ([]entity.Detection, error) {
	return nil, nil
}

var _ port.ObjectDetector = NoopDetector{}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Параметры YOLOv8
const (
	yoloInputSize      = 640
	yoloScoreThreshold = 0.25
	yoloNMSThreshold   = 0.45
)
