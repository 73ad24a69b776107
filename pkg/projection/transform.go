package projection

import (
	"github.com/raceviz/race-view-service-go/pkg/model"
)

const (
	// zoom factors outside this range are clamped
	MinZoom = 0.5
	MaxZoom = 3.0
	// margin kept between track bounds and the surface edges
	SurfacePadding = 40.0
)

// Surface describes the available render area in pixels (or scene units).
type Surface struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s Surface) Center() ScreenPoint {
	return ScreenPoint{X: s.Width / 2, Y: s.Height / 2}
}

// ScreenPoint is a location in render-surface coordinates.
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ViewTransform maps track-plane coordinates to render-surface
// coordinates. Recomputed every frame, no persisted identity.
type ViewTransform struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

func Identity() ViewTransform {
	return ViewTransform{Scale: 1}
}

func (t ViewTransform) Apply(p model.Point) ScreenPoint {
	return ScreenPoint{
		X: p.X*t.Scale + t.OffsetX,
		Y: p.Y*t.Scale + t.OffsetY,
	}
}

// ViewParams holds the per-frame view settings supplied by the host.
type ViewParams struct {
	Surface Surface `json:"surface"`
	Zoom    float64 `json:"zoom"`
	// additional pixel-space translation applied after centering
	Pan ScreenPoint `json:"pan"`
	// if set, the view recenters on this car each frame
	FollowedCar string `json:"followedCar,omitempty"`
}

func ClampZoom(zoom float64) float64 {
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}

// ComputeTransform fits the track bounding box into the surface minus
// padding, preserving aspect ratio (smaller of the two fit ratios),
// multiplied by the clamped zoom. When a followed car is present among
// the samples its position maps to the surface center, otherwise the
// bounding-box centroid does. Pan is applied after centering.
// A degenerate bounding box (zero width or height) falls back to a base
// scale of 1, so there is no division by zero.
//
//nolint:whitespace // can't make both editor and linter happy
func ComputeTransform(
	bounds model.Bounds, params ViewParams, cars []model.CarSample,
) ViewTransform {
	scale := 1.0
	if bounds.Width() > 0 && bounds.Height() > 0 {
		fitX := (params.Surface.Width - 2*SurfacePadding) / bounds.Width()
		fitY := (params.Surface.Height - 2*SurfacePadding) / bounds.Height()
		scale = min(fitX, fitY)
		if scale <= 0 {
			// surface smaller than the padding; keep things visible anyway
			scale = 1.0
		}
	}
	scale *= ClampZoom(params.Zoom)

	focus := bounds.Center()
	if params.FollowedCar != "" {
		for i := range cars {
			if cars[i].Name == params.FollowedCar && cars[i].Renderable() {
				focus = model.Point{X: cars[i].X, Y: cars[i].Y}
				break
			}
		}
	}

	center := params.Surface.Center()
	return ViewTransform{
		Scale:   scale,
		OffsetX: center.X - focus.X*scale + params.Pan.X,
		OffsetY: center.Y - focus.Y*scale + params.Pan.Y,
	}
}
