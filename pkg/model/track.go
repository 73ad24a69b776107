package model

// Point is a location in track-plane coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TrackDefinition describes a closed loop in track-plane coordinates.
// The first point implicitly connects to the last one.
// Immutable once loaded.
type TrackDefinition struct {
	Name string `json:"name"`
	// ordered waypoints of the centerline, at least 3
	Points []Point `json:"points"`
	// track width in track-plane units
	Width float64 `json:"width"`
	// arc length of the closed centerline
	TotalLength float64 `json:"totalLength"`
}

// Bounds is an axis aligned bounding box in track-plane coordinates.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

func (b Bounds) Width() float64  { return b.MaxX - b.MinX }
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

func (b Bounds) Center() Point {
	return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// ComputeBounds returns the bounding box of the given points.
// The zero Bounds is returned for an empty input.
func ComputeBounds(points []Point) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	ret := Bounds{
		MinX: points[0].X, MaxX: points[0].X,
		MinY: points[0].Y, MaxY: points[0].Y,
	}
	for _, p := range points[1:] {
		ret.MinX = min(ret.MinX, p.X)
		ret.MaxX = max(ret.MaxX, p.X)
		ret.MinY = min(ret.MinY, p.Y)
		ret.MaxY = max(ret.MaxY, p.Y)
	}
	return ret
}
