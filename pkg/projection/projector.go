package projection

import (
	"time"

	"github.com/raceviz/race-view-service-go/log"
	"github.com/raceviz/race-view-service-go/pkg/model"
)

// smoothing applied to headings per tick unless configured otherwise
const DefaultHeadingSmoothing = 0.35

// CarRender is one car's render-ready state for the current frame.
type CarRender struct {
	Sample  model.CarSample `json:"sample"`
	Screen  ScreenPoint     `json:"screen"`
	Heading float64         `json:"heading"`
	Trail   []TrailPoint    `json:"trail,omitempty"`
}

// Frame is the projector output consumed by a renderer each tick.
type Frame struct {
	Transform ViewTransform `json:"transform"`
	// projected centerline of the track
	Track []ScreenPoint `json:"track"`
	// ordered draw list, back to front
	Cars []CarRender `json:"cars"`
}

// Projector converts car samples plus view settings into render-ready
// frames and maintains the per-car trails. One projector serves one
// view instance and runs on a single tick at a time.
type Projector struct {
	track     *model.TrackDefinition
	bounds    model.Bounds
	trails    *TrailStore
	smoothing float64
	headings  map[string]float64
	l         *log.Logger
}

type Option func(*Projector)

func WithTrack(track *model.TrackDefinition) Option {
	return func(p *Projector) {
		p.SetTrack(track)
	}
}

func WithTrailStore(store *TrailStore) Option {
	return func(p *Projector) {
		p.trails = store
	}
}

func WithHeadingSmoothing(factor float64) Option {
	return func(p *Projector) {
		p.smoothing = factor
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Projector) {
		p.l = l
	}
}

func NewProjector(opts ...Option) *Projector {
	ret := &Projector{
		trails:    NewTrailStore(),
		smoothing: DefaultHeadingSmoothing,
		headings:  make(map[string]float64),
		l:         log.Default().Named("projection"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// SetTrack replaces the active track, e.g. after a hot reload.
// Trails and smoothed headings are reset since screen positions from
// the previous layout are meaningless on the new one.
func (p *Projector) SetTrack(track *model.TrackDefinition) {
	p.track = track
	if track != nil {
		p.bounds = model.ComputeBounds(track.Points)
	} else {
		p.bounds = model.Bounds{}
	}
	p.trails.Clear()
	p.headings = make(map[string]float64)
}

func (p *Projector) Trails() *TrailStore { return p.trails }

// Project computes the frame for the current tick. An empty or missing
// track yields an empty frame ("nothing to render"), never an error;
// samples without usable coordinates are skipped.
func (p *Projector) Project(params ViewParams, cars []model.CarSample, now time.Time) *Frame {
	if p.track == nil || len(p.track.Points) == 0 {
		return &Frame{Transform: Identity()}
	}

	transform := ComputeTransform(p.bounds, params, cars)
	frame := &Frame{
		Transform: transform,
		Track:     make([]ScreenPoint, 0, len(p.track.Points)),
		Cars:      make([]CarRender, 0, len(cars)),
	}
	for _, pt := range p.track.Points {
		frame.Track = append(frame.Track, transform.Apply(pt))
	}

	for _, sample := range RankCarsForRender(cars) {
		if !sample.Renderable() {
			p.l.Debug("skipping car without coordinates",
				log.String("car", sample.Name))
			continue
		}
		screen := transform.Apply(model.Point{X: sample.X, Y: sample.Y})
		heading := sample.Angle
		if prev, ok := p.headings[sample.Name]; ok {
			heading = SmoothHeading(prev, sample.Angle, p.smoothing)
		}
		p.headings[sample.Name] = heading
		p.trails.Update(sample.Name, screen, now)

		frame.Cars = append(frame.Cars, CarRender{
			Sample:  sample,
			Screen:  screen,
			Heading: heading,
			Trail:   p.trails.Trail(sample.Name),
		})
	}
	return frame
}
