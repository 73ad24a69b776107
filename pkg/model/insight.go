package model

// DriverInsightReport is the document returned by the external insight
// service. Every analysis sub-section may be absent; the service emits
// only what its models produced, so all sections are pointers.
//
//nolint:tagliatelle // wire format of the insight service
type DriverInsightReport struct {
	Driver          string              `json:"driver"`
	ModelConfidence float64             `json:"model_confidence"`
	Assessments     []ScoredAssessment  `json:"assessments,omitempty"`
	FeatureRanking  []FeatureWeight     `json:"feature_importances,omitempty"`
	Performance     *PerformanceSection `json:"performance,omitempty"`
	Strategy        *StrategySection    `json:"strategy,omitempty"`
	Recommendations []string            `json:"recommendations,omitempty"`
}

//nolint:tagliatelle // wire format of the insight service
type ScoredAssessment struct {
	Aspect string  `json:"aspect"`
	Score  float64 `json:"score"`
	Detail string  `json:"detail,omitempty"`
}

type FeatureWeight struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

//nolint:tagliatelle // wire format of the insight service
type PerformanceSection struct {
	ConsistencyScore float64 `json:"consistency_score"`
	PaceRating       string  `json:"pace_rating"`
	AvgLapTime       float64 `json:"avg_lap_time,omitempty"`
}

//nolint:tagliatelle // wire format of the insight service
type StrategySection struct {
	TyreManagement string  `json:"tyre_management"`
	PitEfficiency  float64 `json:"pit_efficiency"`
	Notes          string  `json:"notes,omitempty"`
}
