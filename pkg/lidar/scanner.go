package lidar

import (
	"math"

	"github.com/raceviz/race-view-service-go/pkg/model"
	"github.com/raceviz/race-view-service-go/pkg/sim"
	"github.com/raceviz/race-view-service-go/pkg/track"
)

const (
	DefaultNumRays  = 360
	DefaultMaxRange = 10.0

	carLength = 5.5
	carWidth  = 2.0
)

type segment struct {
	ax, ay, bx, by float64
	// midpoint and half length for the range prune
	mx, my, half float64
}

// Scanner casts ranged-sensor sweeps against the track boundaries and
// the other cars. One ray per angle step, full circle, relative to the
// car heading.
type Scanner struct {
	numRays  int
	maxRange float64
	angles   []float64

	// boundary segments cached per track
	cachedFor *track.Track
	segments  []segment
}

type Option func(*Scanner)

func WithNumRays(n int) Option {
	return func(s *Scanner) {
		s.numRays = n
	}
}

func WithMaxRange(r float64) Option {
	return func(s *Scanner) {
		s.maxRange = r
	}
}

func NewScanner(opts ...Option) *Scanner {
	ret := &Scanner{
		numRays:  DefaultNumRays,
		maxRange: DefaultMaxRange,
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.angles = make([]float64, ret.numRays)
	for i := range ret.angles {
		ret.angles[i] = 2 * math.Pi * float64(i) / float64(ret.numRays)
	}
	return ret
}

func (s *Scanner) NumRays() int      { return s.numRays }
func (s *Scanner) MaxRange() float64 { return s.maxRange }

func newSegment(a, b model.Point) segment {
	return segment{
		ax: a.X, ay: a.Y, bx: b.X, by: b.Y,
		mx:   (a.X + b.X) / 2,
		my:   (a.Y + b.Y) / 2,
		half: math.Hypot(b.X-a.X, b.Y-a.Y) / 2,
	}
}

func (s *Scanner) boundarySegments(trk *track.Track) []segment {
	if s.cachedFor == trk {
		return s.segments
	}
	build := func(points []model.Point) {
		for i := range points {
			next := points[(i+1)%len(points)]
			s.segments = append(s.segments, newSegment(points[i], next))
		}
	}
	s.segments = nil
	build(trk.LeftBoundary)
	build(trk.RightBoundary)
	s.cachedFor = trk
	return s.segments
}

// Scan produces one distance per ray for the given car. Distances are
// capped at the maximum range.
func (s *Scanner) Scan(self *sim.CarState, all []*sim.CarState, trk *track.Track) []float64 {
	origin := trk.Centerline.PointAt(self.S)
	heading := trk.Centerline.HeadingAt(self.S)

	// prune boundary segments to the sensor range
	var nearby []segment
	for _, seg := range s.boundarySegments(trk) {
		if math.Hypot(seg.mx-origin.X, seg.my-origin.Y) <= s.maxRange+seg.half {
			nearby = append(nearby, seg)
		}
	}

	// other cars within range become oriented bounding boxes
	var boxes [][4]model.Point
	for _, other := range all {
		if other == self {
			continue
		}
		pos := trk.Centerline.PointAt(other.S)
		if math.Hypot(pos.X-origin.X, pos.Y-origin.Y) > s.maxRange*1.5 {
			continue
		}
		boxes = append(boxes, carBoundingBox(pos, trk.Centerline.HeadingAt(other.S)))
	}

	ranges := make([]float64, s.numRays)
	for i, offset := range s.angles {
		ranges[i] = s.castRay(origin, heading+offset, nearby, boxes)
	}
	return ranges
}

func (s *Scanner) castRay(
	origin model.Point, angle float64, segments []segment, boxes [][4]model.Point,
) float64 {
	dirX := math.Cos(angle)
	dirY := math.Sin(angle)
	minDist := s.maxRange

	for _, seg := range segments {
		if d, ok := raySegment(origin, dirX, dirY, seg); ok && d < minDist {
			minDist = d
		}
	}
	for _, box := range boxes {
		for i := range box {
			seg := newSegment(box[i], box[(i+1)%len(box)])
			if d, ok := raySegment(origin, dirX, dirY, seg); ok && d < minDist {
				minDist = d
			}
		}
	}
	return minDist
}

// raySegment intersects a ray with a line segment and reports the
// distance along the ray.
func raySegment(origin model.Point, dirX, dirY float64, seg segment) (float64, bool) {
	lineX := seg.bx - seg.ax
	lineY := seg.by - seg.ay

	denom := dirX*lineY - dirY*lineX
	if math.Abs(denom) < 1e-10 {
		return 0, false
	}
	diffX := seg.ax - origin.X
	diffY := seg.ay - origin.Y
	t := (diffX*lineY - diffY*lineX) / denom
	u := (diffX*dirY - diffY*dirX) / denom
	if t < 0 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}

// carBoundingBox returns the four rotated corners of a car at the
// given position and heading.
func carBoundingBox(pos model.Point, angle float64) [4]model.Point {
	halfLen := carLength / 2
	halfWid := carWidth / 2
	local := [4]model.Point{
		{X: halfLen, Y: halfWid},
		{X: -halfLen, Y: halfWid},
		{X: -halfLen, Y: -halfWid},
		{X: halfLen, Y: -halfWid},
	}
	cosA := math.Cos(angle)
	sinA := math.Sin(angle)
	var ret [4]model.Point
	for i, p := range local {
		ret[i] = model.Point{
			X: pos.X + p.X*cosA - p.Y*sinA,
			Y: pos.Y + p.X*sinA + p.Y*cosA,
		}
	}
	return ret
}
