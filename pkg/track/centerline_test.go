//nolint:funlen // ok for tests
package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raceviz/race-view-service-go/pkg/model"
)

func squareWaypoints() []model.Point {
	return []model.Point{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100},
	}
}

func TestBuildCenterline_RejectsTooFewWaypoints(t *testing.T) {
	_, err := BuildCenterline([]model.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, 100)
	assert.ErrorIs(t, err, ErrTooFewWaypoints)
}

func TestBuildCenterline_DropsDuplicatedClosingWaypoint(t *testing.T) {
	closed := append(squareWaypoints(), model.Point{X: 0, Y: 0})
	a, err := BuildCenterline(squareWaypoints(), 200)
	require.NoError(t, err)
	b, err := BuildCenterline(closed, 200)
	require.NoError(t, err)
	assert.InDelta(t, a.TotalLength(), b.TotalLength(), 1e-9)
}

func TestCenterline_ArcLengthWrapsAround(t *testing.T) {
	c, err := BuildCenterline(squareWaypoints(), 400)
	require.NoError(t, err)

	total := c.TotalLength()
	assert.Greater(t, total, 0.0)

	p0 := c.PointAt(0)
	pWrapped := c.PointAt(total)
	assert.InDelta(t, p0.X, pWrapped.X, 1e-6)
	assert.InDelta(t, p0.Y, pWrapped.Y, 1e-6)

	pNeg := c.PointAt(-10)
	pEnd := c.PointAt(total - 10)
	assert.InDelta(t, pEnd.X, pNeg.X, 1e-6)
	assert.InDelta(t, pEnd.Y, pNeg.Y, 1e-6)
}

func TestCenterline_PointsStayNearWaypointHull(t *testing.T) {
	c, err := BuildCenterline(squareWaypoints(), 500)
	require.NoError(t, err)

	bounds := c.Bounds()
	// catmull-rom passes through the waypoints and may overshoot a bit
	assert.Greater(t, bounds.MinX, -25.0)
	assert.Less(t, bounds.MaxX, 125.0)
	assert.Greater(t, bounds.MinY, -25.0)
	assert.Less(t, bounds.MaxY, 125.0)
}

func TestCenterline_HeadingFollowsTravel(t *testing.T) {
	c, err := BuildCenterline(squareWaypoints(), 1000)
	require.NoError(t, err)

	// headings along a full lap must cover a full turn
	steps := 100
	var sum float64
	prev := c.HeadingAt(0)
	for i := 1; i <= steps; i++ {
		s := c.TotalLength() * float64(i) / float64(steps)
		h := c.HeadingAt(s)
		d := math.Mod(h-prev, 2*math.Pi)
		if d > math.Pi {
			d -= 2 * math.Pi
		} else if d < -math.Pi {
			d += 2 * math.Pi
		}
		sum += d
		prev = h
	}
	assert.InDelta(t, 2*math.Pi, math.Abs(sum), 0.3)
}

func TestCenterline_CurvatureHigherInCorners(t *testing.T) {
	c, err := BuildCenterline(DefaultLayout(), 2000)
	require.NoError(t, err)

	var minCurv, maxCurv float64 = math.Inf(1), 0
	for s := 0.0; s < c.TotalLength(); s += c.TotalLength() / 200 {
		k := c.CurvatureAt(s)
		minCurv = min(minCurv, k)
		maxCurv = max(maxCurv, k)
	}
	assert.Less(t, minCurv, maxCurv)
	assert.Greater(t, maxCurv, 0.0)
}

func TestBoundaries_OffsetByHalfWidth(t *testing.T) {
	c, err := BuildCenterline(squareWaypoints(), 400)
	require.NoError(t, err)

	left, right := Boundaries(c, 12.0)
	require.Len(t, left, len(c.Points()))
	require.Len(t, right, len(c.Points()))

	for i := range c.Points() {
		dl := math.Hypot(left[i].X-c.Points()[i].X, left[i].Y-c.Points()[i].Y)
		dr := math.Hypot(right[i].X-c.Points()[i].X, right[i].Y-c.Points()[i].Y)
		assert.InDelta(t, 6.0, dl, 1e-6)
		assert.InDelta(t, 6.0, dr, 1e-6)
	}
}
