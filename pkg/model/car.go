package model

import "math"

// rank value used when a car has no race position yet.
// Cars with this rank sort after all ranked cars.
const UnrankedPosition = math.MaxInt32

// CarSample is one car's instantaneous state as produced by the
// race-state feed. Immutable per tick; superseded by the next tick's
// sample for the same car name.
//
//nolint:tagliatelle // wire format of the original feed
type CarSample struct {
	Name     string  `json:"name"`
	Color    string  `json:"color"`
	Position int     `json:"position"`
	Laps     int     `json:"laps"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	// heading in radians
	Angle      float64 `json:"angle"`
	Speed      float64 `json:"speed"`
	Throttle   float64 `json:"throttle"`
	Brake      float64 `json:"brake"`
	RPM        float64 `json:"rpm"`
	Gear       int     `json:"gear"`
	Tyre       string  `json:"tyre"`
	Wear       float64 `json:"wear"`
	Fuel       float64 `json:"fuel"`
	TireTemp   float64 `json:"tire_temp"`
	TotalTime  float64 `json:"total_time"`
	DrsActive  bool    `json:"drs_active"`
	OnPit      bool    `json:"on_pit"`
	Overtaking bool    `json:"overtaking"`
	// gap to the leader
	TimeInterval     float64   `json:"time_interval"`
	DistanceInterval float64   `json:"distance_interval"`
	PitstopCount     int       `json:"pitstop_count"`
	PitstopHistory   []Pitstop `json:"pitstop_history,omitempty"`
	// optional ranged-sensor readings, ordered by ray angle
	LidarRanges []float64 `json:"lidar_ranges,omitempty"`
}

// Renderable reports whether the sample carries usable coordinates.
// Samples without coordinates are skipped by the projector, never a fault.
func (c *CarSample) Renderable() bool {
	return !math.IsNaN(c.X) && !math.IsNaN(c.Y) &&
		!math.IsInf(c.X, 0) && !math.IsInf(c.Y, 0)
}

// RenderRank returns the race position used for draw ordering.
// Missing positions (<=0) map to the unranked sentinel.
func (c *CarSample) RenderRank() int {
	if c.Position <= 0 {
		return UnrankedPosition
	}
	return c.Position
}
