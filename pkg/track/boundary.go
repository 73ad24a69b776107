package track

import (
	"math"

	"github.com/raceviz/race-view-service-go/pkg/model"
)

// Boundaries offsets the centerline by half the track width to both
// sides. Degenerate segments keep the centerline point.
func Boundaries(c *Centerline, width float64) (left, right []model.Point) {
	points := c.Points()
	left = make([]model.Point, 0, len(points))
	right = make([]model.Point, 0, len(points))
	half := width / 2

	for i := range points {
		p := points[i]
		next := points[(i+1)%len(points)]
		dx := next.X - p.X
		dy := next.Y - p.Y
		length := math.Hypot(dx, dy)
		if length < 1e-9 {
			left = append(left, p)
			right = append(right, p)
			continue
		}
		// perpendicular of the normalized direction
		px := -dy / length
		py := dx / length
		left = append(left, model.Point{X: p.X + px*half, Y: p.Y + py*half})
		right = append(right, model.Point{X: p.X - px*half, Y: p.Y - py*half})
	}
	return left, right
}
