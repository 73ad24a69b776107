package sim

import (
	"math"

	"github.com/raceviz/race-view-service-go/pkg/model"
	"github.com/raceviz/race-view-service-go/pkg/track"
)

// CarState is one car's mutable simulation state. It is owned by the
// RaceSim and only read by others via ToSample.
type CarState struct {
	Name        string
	Color       string
	DriverSkill float64
	Aggression  float64

	Tyre          string
	Wear          float64
	Fuel          float64
	TireTemp      float64
	TotalTime     float64
	LapsCompleted int
	OnPit         bool
	PitCounter    float64
	// distance along the centerline
	S float64
	// speed in track units per second
	V        float64
	Position int

	RPM       float64
	Gear      int
	Throttle  float64
	Brake     float64
	DrsActive bool

	Overtaking bool

	TimeInterval     float64
	DistanceInterval float64

	PitstopCount   int
	PitstopHistory []model.Pitstop
	// captured when entering the pit, used for undercut effects
	positionBeforePitstop int
	timeGapsBeforePitstop map[string]float64

	// latest ranged-sensor sweep, nil when lidar is disabled
	LidarRanges []float64
}

// gear ratios are faked from speed; visual only
func (c *CarState) deriveDrivetrain(vMax float64) {
	if vMax <= 0 {
		vMax = 1
	}
	frac := min(c.V/vMax, 1.0)
	c.Gear = 1 + int(frac*7)
	c.RPM = 5000 + frac*8000
}

// ToSample renders the car state into the immutable per-tick sample
// consumed by the projector and the broadcast feed.
func (c *CarState) ToSample(trk *track.Track) model.CarSample {
	pos := trk.Centerline.PointAt(c.S)
	angle := trk.Centerline.HeadingAt(c.S)

	return model.CarSample{
		Name:             c.Name,
		Color:            c.Color,
		Position:         c.Position,
		Laps:             c.LapsCompleted,
		X:                pos.X,
		Y:                pos.Y,
		Angle:            angle,
		Speed:            math.Round(c.V*3.6*10) / 10, // km/h
		Throttle:         math.Round(c.Throttle*100) / 100,
		Brake:            math.Round(c.Brake*100) / 100,
		RPM:              math.Round(c.RPM),
		Gear:             c.Gear,
		Tyre:             c.Tyre,
		Wear:             math.Round(c.Wear*1000) / 1000,
		Fuel:             math.Round(c.Fuel*10) / 10,
		TireTemp:         math.Round(c.TireTemp*10) / 10,
		TotalTime:        math.Round(c.TotalTime*100) / 100,
		DrsActive:        c.DrsActive,
		OnPit:            c.OnPit,
		Overtaking:       c.Overtaking,
		TimeInterval:     math.Round(c.TimeInterval*100) / 100,
		DistanceInterval: math.Round(c.DistanceInterval*10) / 10,
		PitstopCount:     c.PitstopCount,
		PitstopHistory:   c.PitstopHistory,
		LidarRanges:      c.LidarRanges,
	}
}
