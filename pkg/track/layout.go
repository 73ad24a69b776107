package track

import "github.com/raceviz/race-view-service-go/pkg/model"

const (
	DefaultTrackName = "Grand Prix Circuit"
	// F1 tracks are about 12m wide
	DefaultTrackWidth = 12.0
)

// DefaultLayout returns the built-in Silverstone-like waypoint loop
// used when no track file is configured.
func DefaultLayout() []model.Point {
	return []model.Point{
		{X: 700, Y: 120}, // start/finish, top middle-right
		{X: 550, Y: 110}, // slight kink left
		{X: 500, Y: 150},
		{X: 400, Y: 200},
		{X: 350, Y: 300},
		{X: 320, Y: 380},
		{X: 280, Y: 520}, // bottom-left hairpin
		{X: 500, Y: 560}, // long bottom straight
		{X: 650, Y: 540}, // central section
		{X: 640, Y: 460},
		{X: 610, Y: 360},
		{X: 580, Y: 280},
		{X: 650, Y: 300}, // kink back to the right
		{X: 760, Y: 320},
		{X: 840, Y: 360},
		{X: 900, Y: 350},
		{X: 1000, Y: 300}, // top-right corner
		{X: 950, Y: 200},
		{X: 850, Y: 150},
	}
}
