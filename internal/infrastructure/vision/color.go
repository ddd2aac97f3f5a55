package vision

import "vehicle-intelligence/internal/domain/entity"

// ColorRange диапазон цвета в HSV (OpenCV: H 0..180, S и V 0..255).
type ColorRange struct {
	Name  string
	Lower [3]float64
	Upper [3]float64
}

// ColorRanges диапазоны цветов кузова. Красный задан двумя диапазонами,
// так как оттенок переходит через 180.
var ColorRanges = []ColorRange{
	{Name: "white", Lower: [3]float64{0, 0, 200}, Upper: [3]float64{180, 30, 255}},
	{Name: "black", Lower: [3]float64{0, 0, 0}, Upper: [3]float64{180, 255, 50}},
	{Name: "silver", Lower: [3]float64{0, 0, 150}, Upper: [3]float64{180, 20, 220}},
	{Name: "gray", Lower: [3]float64{0, 0, 50}, Upper: [3]float64{180, 30, 200}},
	{Name: "red", Lower: [3]float64{0, 100, 100}, Upper: [3]float64{10, 255, 255}},
	{Name: "red", Lower: [3]float64{160, 100, 100}, Upper: [3]float64{180, 255, 255}},
	{Name: "blue", Lower: [3]float64{100, 100, 100}, Upper: [3]float64{130, 255, 255}},
	{Name: "green", Lower: [3]float64{35, 100, 100}, Upper: [3]float64{85, 255, 255}},
	{Name: "brown", Lower: [3]float64{10, 100, 50}, Upper: [3]float64{20, 255, 150}},
	{Name: "beige", Lower: [3]float64{15, 30, 150}, Upper: [3]float64{25, 80, 220}},
	{Name: "gold", Lower: [3]float64{20, 100, 150}, Upper: [3]float64{30, 255, 255}},
	{Name: "yellow", Lower: [3]float64{20, 100, 100}, Upper: [3]float64{35, 255, 255}},
	{Name: "orange", Lower: [3]float64{10, 100, 100}, Upper: [3]float64{20, 255, 255}},
	{Name: "purple", Lower: [3]float64{130, 100, 100}, Upper: [3]float64{160, 255, 255}},
	{Name: "pink", Lower: [3]float64{150, 50, 150}, Upper: [3]float64{170, 150, 255}},
}

// colorPriority порядок, который разрешает равные доли.
var colorPriority = []string{
	"white", "black", "silver", "gray", "red", "blue", "green",
	"brown", "beige", "gold", "yellow", "orange", "purple", "pink",
}

// PickColor выбирает цвет с наибольшей долей пикселей. Unknown, если ни один
// диапазон не совпал.
func PickColor(ratios map[string]float64) string {
	best, bestRatio := entity.Unknown, 0.0
	for _, name := range colorPriority {
		if r := ratios[name]; r > bestRatio {
			best, bestRatio = name, r
		}
	}
	return best
}
