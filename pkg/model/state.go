package model

// Weather holds the session conditions. All values are clamped on input
// (rain 0..1, track temp 15..50, wind 0..20).
//
//nolint:tagliatelle // wire format of the original feed
type Weather struct {
	Rain      float64 `json:"rain"`
	TrackTemp float64 `json:"track_temp"`
	Wind      float64 `json:"wind"`
}

// RaceState is one tick's complete race state as broadcast to viewers.
//
//nolint:tagliatelle // wire format of the original feed
type RaceState struct {
	SessionID string      `json:"sessionId"`
	Time      float64     `json:"time"`
	Cars      []CarSample `json:"cars"`
	Weather   Weather     `json:"weather"`
	TotalLaps int         `json:"total_laps"`
	// number of cars per compound
	TyreDistribution map[string]int    `json:"tyre_distribution"`
	RaceFinished     bool              `json:"race_finished"`
	RaceStarted      bool              `json:"race_started"`
	UndercutSummary  []UndercutSummary `json:"undercut_summary,omitempty"`
}
