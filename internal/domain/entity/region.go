package entity

import "image"

// VehicleRegion прямоугольная область кадра в пиксельных координатах.
// X2 и Y2 не входят в область.
type VehicleRegion struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// FullFrame возвращает область, покрывающую весь кадр.
func FullFrame(width, height int) VehicleRegion {
	return VehicleRegion{X1: 0, Y1: 0, X2: width, Y2: height}
}

// FromRect строит область из image.Rectangle.
func FromRect(r image.Rectangle) VehicleRegion {
	return VehicleRegion{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// Rect возвращает область как image.Rectangle.
func (r VehicleRegion) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Width ширина области в пикселях
func (r VehicleRegion) Width() int { return r.X2 - r.X1 }

// Height высота области в пикселях
func (r VehicleRegion) Height() int { return r.Y2 - r.Y1 }

// Area площадь области в пикселях
func (r VehicleRegion) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width() * r.Height()
}

// Empty сообщает, что область вырождена.
func (r VehicleRegion) Empty() bool {
	return r.X2 <= r.X1 || r.Y2 <= r.Y1
}

// Center возвращает координаты центра области
func (r VehicleRegion) Center() (x, y int) {
	return r.X1 + r.Width()/2, r.Y1 + r.Height()/2
}

// Translate сдвигает область на (dx, dy).
func (r VehicleRegion) Translate(dx, dy int) VehicleRegion {
	return VehicleRegion{X1: r.X1 + dx, Y1: r.Y1 + dy, X2: r.X2 + dx, Y2: r.Y2 + dy}
}

// Pad расширяет область на padding пикселей с каждой стороны и обрезает её по границам кадра.
func (r VehicleRegion) Pad(padding, width, height int) VehicleRegion {
	padded := VehicleRegion{
		X1: r.X1 - padding,
		Y1: r.Y1 - padding,
		X2: r.X2 + padding,
		Y2: r.Y2 + padding,
	}
	return padded.Clip(width, height)
}

// Clip обрезает область по границам кадра.
func (r VehicleRegion) Clip(width, height int) VehicleRegion {
	return VehicleRegion{
		X1: clampInt(r.X1, 0, width),
		Y1: clampInt(r.Y1, 0, height),
		X2: clampInt(r.X2, 0, width),
		Y2: clampInt(r.Y2, 0, height),
	}
}

// Detection объект, найденный детектором.
type Detection struct {
	ClassID    int           `json:"class_id"`
	Label      string        `json:"label"`
	Confidence float64       `json:"confidence"`
	Box        VehicleRegion `json:"box"`
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
