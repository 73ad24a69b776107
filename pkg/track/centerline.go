package track

import (
	"errors"
	"math"
	"sort"

	"github.com/raceviz/race-view-service-go/pkg/model"
)

// number of dense samples along the loop unless configured otherwise
const DefaultResolution = 2000

var ErrTooFewWaypoints = errors.New("track needs at least 3 waypoints")

// Centerline is the densely resampled closed centerline of a track.
// It provides arc-length based lookups for position, heading and
// curvature. Immutable once built.
type Centerline struct {
	points    []model.Point
	arc       []float64 // cumulative arc length up to points[i]
	curvature []float64
	total     float64
}

// BuildCenterline resamples the closed waypoint loop with a periodic
// Catmull-Rom interpolation. The first waypoint implicitly connects to
// the last; a duplicated closing waypoint is tolerated and dropped.
func BuildCenterline(waypoints []model.Point, resolution int) (*Centerline, error) {
	if len(waypoints) > 1 && waypoints[0] == waypoints[len(waypoints)-1] {
		waypoints = waypoints[:len(waypoints)-1]
	}
	if len(waypoints) < 3 {
		return nil, ErrTooFewWaypoints
	}
	if resolution <= 0 {
		resolution = DefaultResolution
	}

	ret := &Centerline{
		points:    make([]model.Point, resolution),
		arc:       make([]float64, resolution),
		curvature: make([]float64, resolution),
	}
	n := len(waypoints)
	for i := 0; i < resolution; i++ {
		u := float64(i) / float64(resolution) * float64(n)
		seg := int(u) % n
		t := u - math.Floor(u)
		ret.points[i] = catmullRom(
			waypoints[(seg-1+n)%n],
			waypoints[seg],
			waypoints[(seg+1)%n],
			waypoints[(seg+2)%n],
			t)
	}

	for i := 1; i < resolution; i++ {
		ret.arc[i] = ret.arc[i-1] + dist(ret.points[i-1], ret.points[i])
	}
	ret.total = ret.arc[resolution-1] + dist(ret.points[resolution-1], ret.points[0])

	for i := range ret.points {
		ret.curvature[i] = discreteCurvature(
			ret.points[(i-1+resolution)%resolution],
			ret.points[i],
			ret.points[(i+1)%resolution])
	}
	return ret, nil
}

func catmullRom(p0, p1, p2, p3 model.Point, t float64) model.Point {
	t2 := t * t
	t3 := t2 * t
	blend := func(a, b, c, d float64) float64 {
		return 0.5 * ((2 * b) +
			(-a+c)*t +
			(2*a-5*b+4*c-d)*t2 +
			(-a+3*b-3*c+d)*t3)
	}
	return model.Point{
		X: blend(p0.X, p1.X, p2.X, p3.X),
		Y: blend(p0.Y, p1.Y, p2.Y, p3.Y),
	}
}

func dist(a, b model.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// curvature of the circumcircle through three consecutive points
func discreteCurvature(a, b, c model.Point) float64 {
	area2 := math.Abs((b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X))
	d1 := dist(a, b)
	d2 := dist(b, c)
	d3 := dist(a, c)
	denom := d1 * d2 * d3
	if denom < 1e-9 {
		return 0
	}
	return 2 * area2 / denom
}

func (c *Centerline) TotalLength() float64 { return c.total }

// Points returns the dense centerline, ordered along the loop.
// Callers must not mutate the returned slice.
func (c *Centerline) Points() []model.Point { return c.points }

func (c *Centerline) Bounds() model.Bounds { return model.ComputeBounds(c.points) }

// index of the dense sample at (or just before) arc length s
func (c *Centerline) indexAt(s float64) int {
	s = math.Mod(s, c.total)
	if s < 0 {
		s += c.total
	}
	idx := sort.SearchFloat64s(c.arc, s)
	if idx >= len(c.arc) {
		idx = len(c.arc) - 1
	}
	if idx > 0 && c.arc[idx] > s {
		idx--
	}
	return idx
}

// PointAt returns the track-plane position at arc length s.
// s wraps around the loop in both directions.
func (c *Centerline) PointAt(s float64) model.Point {
	s = math.Mod(s, c.total)
	if s < 0 {
		s += c.total
	}
	idx := c.indexAt(s)
	next := (idx + 1) % len(c.points)
	segLen := dist(c.points[idx], c.points[next])
	if segLen < 1e-12 {
		return c.points[idx]
	}
	t := (s - c.arc[idx]) / segLen
	return model.Point{
		X: c.points[idx].X + (c.points[next].X-c.points[idx].X)*t,
		Y: c.points[idx].Y + (c.points[next].Y-c.points[idx].Y)*t,
	}
}

// HeadingAt returns the direction of travel at arc length s in radians.
func (c *Centerline) HeadingAt(s float64) float64 {
	p1 := c.PointAt(s)
	p2 := c.PointAt(s + 1.0)
	return math.Atan2(p2.Y-p1.Y, p2.X-p1.X)
}

// CurvatureAt returns the absolute curvature at arc length s.
func (c *Centerline) CurvatureAt(s float64) float64 {
	return c.curvature[c.indexAt(s)]
}
