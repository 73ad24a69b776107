package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAngleToHeadingDelta(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		target  float64
		want    float64
	}{
		{name: "no change", current: 1.0, target: 1.0, want: 0},
		{name: "small positive", current: 0.5, target: 0.7, want: 0.2},
		{name: "small negative", current: 0.7, target: 0.5, want: -0.2},
		{
			name:    "wraparound positive",
			current: math.Pi - 0.01,
			target:  -math.Pi + 0.01,
			want:    0.02,
		},
		{
			name:    "wraparound negative",
			current: -math.Pi + 0.01,
			target:  math.Pi - 0.01,
			want:    -0.02,
		},
		{name: "opposite maps to pi", current: 0, target: math.Pi, want: math.Pi},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AngleToHeadingDelta(tt.current, tt.target)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.LessOrEqual(t, got, math.Pi)
			assert.Greater(t, got, -math.Pi)
		})
	}
}

func TestSmoothHeading_CrossesWraparoundShortestPath(t *testing.T) {
	current := math.Pi - 0.01
	target := -math.Pi + 0.01
	got := SmoothHeading(current, target, 0.5)
	// halfway along the short path, still near +pi
	assert.InDelta(t, math.Pi, math.Abs(got), 0.02)
}

func TestSmoothHeading_SnapWithFullFactor(t *testing.T) {
	got := SmoothHeading(0.2, 1.4, 1.0)
	assert.InDelta(t, 1.4, got, 1e-9)
}

func TestLerp(t *testing.T) {
	assert.InDelta(t, 0.0, Lerp(0, 10, 0), 1e-9)
	assert.InDelta(t, 10.0, Lerp(0, 10, 1), 1e-9)
	assert.InDelta(t, 2.5, Lerp(0, 10, 0.25), 1e-9)
}
