//nolint:funlen // ok for tests
package projection

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/raceviz/race-view-service-go/pkg/model"
)

func sampleTrack() *model.TrackDefinition {
	return &model.TrackDefinition{
		Name: "square",
		Points: []model.Point{
			{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
		},
	}
}

func viewParams() ViewParams {
	return ViewParams{Surface: Surface{Width: 800, Height: 600}, Zoom: 1}
}

func TestProjector_EmptyTrackRendersNothing(t *testing.T) {
	tests := []struct {
		name  string
		track *model.TrackDefinition
	}{
		{name: "nil track", track: nil},
		{name: "zero points", track: &model.TrackDefinition{Name: "empty"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProjector(WithTrack(tt.track))
			frame := p.Project(viewParams(),
				[]model.CarSample{{Name: "a", X: 1, Y: 1}}, time.Now())
			assert.Empty(t, frame.Track)
			assert.Empty(t, frame.Cars)
			assert.Equal(t, Identity(), frame.Transform)
		})
	}
}

func TestProjector_SkipsUnrenderableSamples(t *testing.T) {
	p := NewProjector(WithTrack(sampleTrack()))
	frame := p.Project(viewParams(), []model.CarSample{
		{Name: "good", X: 5, Y: 5, Position: 1},
		{Name: "nan", X: math.NaN(), Y: 2, Position: 2},
		{Name: "inf", X: math.Inf(1), Y: 2, Position: 3},
	}, time.Now())

	assert.Len(t, frame.Cars, 1)
	assert.Equal(t, "good", frame.Cars[0].Sample.Name)
}

func TestProjector_DrawOrderFollowsRank(t *testing.T) {
	p := NewProjector(WithTrack(sampleTrack()))
	frame := p.Project(viewParams(), []model.CarSample{
		{Name: "p3", X: 1, Y: 1, Position: 3},
		{Name: "p1", X: 2, Y: 2, Position: 1},
		{Name: "p2", X: 3, Y: 3, Position: 2},
	}, time.Now())

	names := []string{}
	for _, c := range frame.Cars {
		names = append(names, c.Sample.Name)
	}
	assert.Equal(t, []string{"p1", "p2", "p3"}, names)
}

func TestProjector_TrailGrowsAcrossTicks(t *testing.T) {
	p := NewProjector(WithTrack(sampleTrack()))
	base := time.Now()
	for i := 0; i < 3; i++ {
		p.Project(viewParams(), []model.CarSample{
			{Name: "a", X: float64(i), Y: 0, Position: 1},
		}, base.Add(time.Duration(i)*100*time.Millisecond))
	}
	assert.Len(t, p.Trails().Trail("a"), 3)
}

func TestProjector_HeadingSmoothedOverTicks(t *testing.T) {
	p := NewProjector(WithTrack(sampleTrack()), WithHeadingSmoothing(0.5))
	now := time.Now()

	first := p.Project(viewParams(), []model.CarSample{
		{Name: "a", X: 1, Y: 1, Angle: 0, Position: 1},
	}, now)
	// first sighting takes the sample heading as-is
	assert.InDelta(t, 0.0, first.Cars[0].Heading, 1e-9)

	second := p.Project(viewParams(), []model.CarSample{
		{Name: "a", X: 1, Y: 1, Angle: 1.0, Position: 1},
	}, now.Add(100*time.Millisecond))
	assert.InDelta(t, 0.5, second.Cars[0].Heading, 1e-9)
}

func TestProjector_SetTrackResetsViewState(t *testing.T) {
	p := NewProjector(WithTrack(sampleTrack()))
	p.Project(viewParams(), []model.CarSample{
		{Name: "a", X: 1, Y: 1, Position: 1},
	}, time.Now())
	assert.NotEmpty(t, p.Trails().Trail("a"))

	p.SetTrack(sampleTrack())
	assert.Empty(t, p.Trails().Trail("a"))
}

func TestProjector_TrackProjectedWithTransform(t *testing.T) {
	p := NewProjector(WithTrack(sampleTrack()))
	frame := p.Project(viewParams(), nil, time.Now())

	assert.Len(t, frame.Track, 4)
	// the centroid of the projected points is the surface center
	var cx, cy float64
	for _, pt := range frame.Track {
		cx += pt.X
		cy += pt.Y
	}
	assert.InDelta(t, 400.0, cx/4, 1.0)
	assert.InDelta(t, 300.0, cy/4, 1.0)
}
