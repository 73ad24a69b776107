package basedata

import (
	"time"

	"github.com/raceviz/race-view-service-go/pkg/model"
)

func TestTime() time.Time {
	t, _ := time.Parse(time.RFC3339, "2025-06-01T14:00:00Z")
	return t
}

// SampleTrack is a simple square layout, handy when the geometry needs
// to be obvious.
func SampleTrack() *model.TrackDefinition {
	return &model.TrackDefinition{
		Name: "testtrack",
		Points: []model.Point{
			{X: 0, Y: 0},
			{X: 100, Y: 0},
			{X: 100, Y: 100},
			{X: 0, Y: 100},
		},
		Width:       12,
		TotalLength: 400,
	}
}

func SampleCar(name string, position int, x, y float64) model.CarSample {
	return model.CarSample{
		Name:     name,
		Color:    "#3671C6",
		Position: position,
		Laps:     3,
		X:        x,
		Y:        y,
		Speed:    287.3,
		Throttle: 1.0,
		RPM:      11200,
		Gear:     7,
		Tyre:     "MEDIUM",
		Wear:     0.31,
		Fuel:     82.5,
		TireTemp: 96.4,
	}
}

func SampleField() []model.CarSample {
	return []model.CarSample{
		SampleCar("Verstappen", 1, 40, 0),
		SampleCar("Norris", 2, 30, 0),
		SampleCar("Leclerc", 3, 20, 0),
	}
}
