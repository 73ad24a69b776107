package projection

import (
	"time"
)

const (
	// trail entries older than this are evicted
	DefaultTrailMaxAge = 2000 * time.Millisecond
	// upper bound on trail length
	DefaultTrailMaxPoints = 20
)

// TrailPoint is one historic screen-space position of a car.
type TrailPoint struct {
	Point     ScreenPoint `json:"point"`
	Timestamp time.Time   `json:"timestamp"`
}

// TrailStore keeps the bounded per-car trail history. It is owned by a
// single view instance and is not safe for concurrent use; discard it
// when the view is torn down.
type TrailStore struct {
	maxAge    time.Duration
	maxPoints int
	trails    map[string][]TrailPoint
}

type TrailStoreOption func(*TrailStore)

func WithMaxAge(age time.Duration) TrailStoreOption {
	return func(s *TrailStore) {
		s.maxAge = age
	}
}

func WithMaxPoints(n int) TrailStoreOption {
	return func(s *TrailStore) {
		s.maxPoints = n
	}
}

func NewTrailStore(opts ...TrailStoreOption) *TrailStore {
	ret := &TrailStore{
		maxAge:    DefaultTrailMaxAge,
		maxPoints: DefaultTrailMaxPoints,
		trails:    make(map[string][]TrailPoint),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Update appends (point, now) to the car's trail and evicts from the
// front, first by age then by count. The trail stays ordered
// oldest to newest. Duplicate timestamps are permitted; trails are
// visual-only and self-correct each frame.
func (s *TrailStore) Update(carID string, point ScreenPoint, now time.Time) {
	trail := append(s.trails[carID], TrailPoint{Point: point, Timestamp: now})

	cutoff := now.Add(-s.maxAge)
	first := 0
	for first < len(trail) && trail[first].Timestamp.Before(cutoff) {
		first++
	}
	if over := len(trail) - first - s.maxPoints; over > 0 {
		first += over
	}
	s.trails[carID] = trail[first:]
}

// Trail returns the car's current trail, oldest first.
// The returned slice is owned by the store; callers must not mutate it.
func (s *TrailStore) Trail(carID string) []TrailPoint {
	return s.trails[carID]
}

// Remove drops the trail of a car, e.g. when it leaves the session.
func (s *TrailStore) Remove(carID string) {
	delete(s.trails, carID)
}

func (s *TrailStore) Clear() {
	s.trails = make(map[string][]TrailPoint)
}
