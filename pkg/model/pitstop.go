package model

// Pitstop records one completed or ongoing stop of a car.
//
//nolint:tagliatelle // wire format of the original feed
type Pitstop struct {
	Lap     int     `json:"lap"`
	Tyre    string  `json:"tyre"`
	NewTyre string  `json:"new_tyre,omitempty"`
	PitTime float64 `json:"pit_time"`
	// undercut effects vs every other car, keyed by car name.
	// Populated when the stop completes.
	Undercuts map[string]UndercutInfo `json:"undercuts,omitempty"`
}

// UndercutInfo compares the situation before and after a pitstop
// relative to one other car.
//
//nolint:tagliatelle // wire format of the original feed
type UndercutInfo struct {
	TimeGain       float64 `json:"time_gain"`
	PositionBefore int     `json:"position_before"`
	PositionAfter  int     `json:"position_after"`
	PositionChange int     `json:"position_change"`
	OtherPosition  int     `json:"other_position"`
	TimeGapBefore  float64 `json:"time_gap_before"`
	TimeGapAfter   float64 `json:"time_gap_after"`
}

// UndercutSummary lists the significant undercuts of one pitstop.
//
//nolint:tagliatelle // wire format of the original feed
type UndercutSummary struct {
	Car       string              `json:"car"`
	Lap       int                 `json:"lap"`
	PitTime   float64             `json:"pit_time"`
	OldTyre   string              `json:"old_tyre"`
	NewTyre   string              `json:"new_tyre"`
	Undercuts []SignificantEffect `json:"undercuts"`
}

//nolint:tagliatelle // wire format of the original feed
type SignificantEffect struct {
	Vs             string  `json:"vs"`
	TimeGain       float64 `json:"time_gain"`
	PositionChange int     `json:"position_change"`
	PositionBefore int     `json:"position_before"`
	PositionAfter  int     `json:"position_after"`
}
