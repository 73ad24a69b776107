//nolint:funlen,lll // ok for tests
package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raceviz/race-view-service-go/pkg/model"
)

func squareTrackBounds() model.Bounds {
	return model.ComputeBounds([]model.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
	})
}

func defaultSurface() Surface {
	return Surface{Width: 800, Height: 600}
}

func TestComputeTransform_CentroidMapsToSurfaceCenter(t *testing.T) {
	trans := ComputeTransform(squareTrackBounds(),
		ViewParams{Surface: defaultSurface(), Zoom: 1}, nil)

	assert.Greater(t, trans.Scale, 0.0)
	got := trans.Apply(model.Point{X: 5, Y: 5})
	assert.InDelta(t, 400.0, got.X, 1.0)
	assert.InDelta(t, 300.0, got.Y, 1.0)
}

func TestComputeTransform_PreservesAspectRatio(t *testing.T) {
	// wide bounds on a surface that is tighter horizontally
	bounds := model.ComputeBounds([]model.Point{{X: 0, Y: 0}, {X: 100, Y: 10}})
	trans := ComputeTransform(bounds,
		ViewParams{Surface: defaultSurface(), Zoom: 1}, nil)

	// horizontal fit is the smaller ratio and must win
	assert.InDelta(t, (800.0-2*SurfacePadding)/100.0, trans.Scale, 1e-9)
}

func TestComputeTransform_ZoomClamping(t *testing.T) {
	tests := []struct {
		name string
		zoom float64
		want float64
	}{
		{name: "below lower bound", zoom: 0.1, want: MinZoom},
		{name: "at lower bound", zoom: 0.5, want: 0.5},
		{name: "inside range", zoom: 1.7, want: 1.7},
		{name: "above upper bound", zoom: 12.0, want: MaxZoom},
		{name: "negative", zoom: -3.0, want: MinZoom},
	}
	base := ComputeTransform(squareTrackBounds(),
		ViewParams{Surface: defaultSurface(), Zoom: 1}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trans := ComputeTransform(squareTrackBounds(),
				ViewParams{Surface: defaultSurface(), Zoom: tt.zoom}, nil)
			assert.InDelta(t, base.Scale*tt.want, trans.Scale, 1e-9)
		})
	}
}

func TestComputeTransform_FollowedCar(t *testing.T) {
	cars := []model.CarSample{
		{Name: "Max Verstappen", X: 2, Y: 3},
		{Name: "Lewis Hamilton", X: 8, Y: 9},
	}
	trans := ComputeTransform(squareTrackBounds(),
		ViewParams{Surface: defaultSurface(), Zoom: 1, FollowedCar: "Lewis Hamilton"},
		cars)

	got := trans.Apply(model.Point{X: 8, Y: 9})
	assert.InDelta(t, 400.0, got.X, 1e-6)
	assert.InDelta(t, 300.0, got.Y, 1e-6)
}

func TestComputeTransform_FollowedCarUnknownFallsBackToCentroid(t *testing.T) {
	trans := ComputeTransform(squareTrackBounds(),
		ViewParams{Surface: defaultSurface(), Zoom: 1, FollowedCar: "nobody"}, nil)

	got := trans.Apply(model.Point{X: 5, Y: 5})
	assert.InDelta(t, 400.0, got.X, 1e-6)
	assert.InDelta(t, 300.0, got.Y, 1e-6)
}

func TestComputeTransform_FollowedCarWithoutCoordinatesIgnored(t *testing.T) {
	cars := []model.CarSample{{Name: "Lando Norris", X: math.NaN(), Y: math.NaN()}}
	trans := ComputeTransform(squareTrackBounds(),
		ViewParams{Surface: defaultSurface(), Zoom: 1, FollowedCar: "Lando Norris"},
		cars)

	got := trans.Apply(model.Point{X: 5, Y: 5})
	assert.InDelta(t, 400.0, got.X, 1e-6)
	assert.InDelta(t, 300.0, got.Y, 1e-6)
}

func TestComputeTransform_PanAppliedAfterCentering(t *testing.T) {
	trans := ComputeTransform(squareTrackBounds(),
		ViewParams{Surface: defaultSurface(), Zoom: 1, Pan: ScreenPoint{X: 17, Y: -4}},
		nil)

	got := trans.Apply(model.Point{X: 5, Y: 5})
	assert.InDelta(t, 417.0, got.X, 1e-6)
	assert.InDelta(t, 296.0, got.Y, 1e-6)
}

func TestComputeTransform_DegenerateBounds(t *testing.T) {
	tests := []struct {
		name   string
		points []model.Point
	}{
		{name: "single point", points: []model.Point{{X: 3, Y: 4}}},
		{name: "zero width", points: []model.Point{{X: 3, Y: 0}, {X: 3, Y: 10}}},
		{name: "zero height", points: []model.Point{{X: 0, Y: 4}, {X: 10, Y: 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trans := ComputeTransform(model.ComputeBounds(tt.points),
				ViewParams{Surface: defaultSurface(), Zoom: 1}, nil)
			// base scale falls back to 1, zoom still applies
			assert.InDelta(t, 1.0, trans.Scale, 1e-9)
		})
	}
}
