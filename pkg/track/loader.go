package track

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/raceviz/race-view-service-go/log"
	"github.com/raceviz/race-view-service-go/pkg/model"
)

// Track bundles everything derived from one track definition.
type Track struct {
	Definition    *model.TrackDefinition
	Centerline    *Centerline
	LeftBoundary  []model.Point
	RightBoundary []model.Point
}

// trackFile is the YAML shape of a track definition file.
type trackFile struct {
	Name       string  `yaml:"name"       validate:"required"`
	Width      float64 `yaml:"width"      validate:"gte=0"`
	Resolution int     `yaml:"resolution" validate:"gte=0"`
	Waypoints  []struct {
		X float64 `yaml:"x"`
		Y float64 `yaml:"y"`
	} `yaml:"waypoints" validate:"min=3"`
}

type Loader struct {
	path       string
	resolution int
	validate   *validator.Validate
	l          *log.Logger
}

type LoaderOption func(*Loader)

// WithFile makes the loader read the given YAML file instead of the
// built-in layout.
func WithFile(path string) LoaderOption {
	return func(l *Loader) {
		l.path = path
	}
}

func WithResolution(n int) LoaderOption {
	return func(l *Loader) {
		l.resolution = n
	}
}

func WithLoaderLogger(arg *log.Logger) LoaderOption {
	return func(l *Loader) {
		l.l = arg
	}
}

func NewLoader(opts ...LoaderOption) *Loader {
	ret := &Loader{
		resolution: DefaultResolution,
		validate:   validator.New(),
		l:          log.Default().Named("track"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (l *Loader) Load() (*Track, error) {
	if l.path == "" {
		return l.build(DefaultTrackName, DefaultTrackWidth, DefaultLayout())
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading track file: %w", err)
	}
	var file trackFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing track file: %w", err)
	}
	if err := l.validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("invalid track file: %w", err)
	}
	if file.Resolution > 0 {
		l.resolution = file.Resolution
	}
	width := file.Width
	if width == 0 {
		width = DefaultTrackWidth
	}
	waypoints := make([]model.Point, 0, len(file.Waypoints))
	for _, wp := range file.Waypoints {
		waypoints = append(waypoints, model.Point{X: wp.X, Y: wp.Y})
	}
	return l.build(file.Name, width, waypoints)
}

func (l *Loader) build(name string, width float64, waypoints []model.Point) (*Track, error) {
	center, err := BuildCenterline(waypoints, l.resolution)
	if err != nil {
		return nil, err
	}
	left, right := Boundaries(center, width)
	l.l.Debug("track built",
		log.String("name", name),
		log.Int("waypoints", len(waypoints)),
		log.Float64("length", center.TotalLength()))
	return &Track{
		Definition: &model.TrackDefinition{
			Name:        name,
			Points:      center.Points(),
			Width:       width,
			TotalLength: center.TotalLength(),
		},
		Centerline:    center,
		LeftBoundary:  left,
		RightBoundary: right,
	}, nil
}

// Watch reloads the track file whenever it changes and reports the new
// track via onChange. Returns immediately when no file is configured.
// The watcher stops when the context is canceled.
func (l *Loader) Watch(ctx context.Context, onChange func(*Track)) error {
	if l.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(l.path); err != nil {
		watcher.Close()
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				reloaded, err := l.Load()
				if err != nil {
					l.l.Warn("track reload failed, keeping previous track",
						log.String("file", l.path),
						log.ErrorField(err))
					continue
				}
				l.l.Info("track reloaded", log.String("file", l.path))
				onChange(reloaded)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.l.Warn("track watcher error", log.ErrorField(err))
			}
		}
	}()
	return nil
}
