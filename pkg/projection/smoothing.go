package projection

import "math"

// AngleToHeadingDelta computes the shortest signed difference between
// two headings in radians, normalized into (-pi, pi]. Naively
// subtracting headings produces a spurious near-2pi jump when a car
// crosses the +/-pi boundary.
func AngleToHeadingDelta(current, target float64) float64 {
	return NormalizeAngle(target - current)
}

// NormalizeAngle maps an angle into (-pi, pi].
func NormalizeAngle(angle float64) float64 {
	a := math.Mod(angle, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// SmoothHeading moves current toward target by the given factor along
// the shortest angular path. factor 1 snaps to the target.
func SmoothHeading(current, target, factor float64) float64 {
	return NormalizeAngle(current + AngleToHeadingDelta(current, target)*factor)
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, factor float64) float64 {
	return a + (b-a)*factor
}
