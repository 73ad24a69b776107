package server

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/raceviz/race-view-service-go/log"
	"github.com/raceviz/race-view-service-go/pkg/insight"
	"github.com/raceviz/race-view-service-go/pkg/model"
	"github.com/raceviz/race-view-service-go/pkg/sim"
	"github.com/raceviz/race-view-service-go/pkg/track"
	"github.com/raceviz/race-view-service-go/pkg/utils/broadcast"
)

const (
	// broadcast cadence and how many physics steps happen per frame
	DefaultBroadcastInterval = 100 * time.Millisecond
	StepsPerBroadcast        = 3
	// pause on the final classification before the next race
	resetDelay = 2 * time.Second
)

type cmdKind int

const (
	cmdStart cmdKind = iota
	cmdReset
	cmdReplaceTrack
)

// command mutates the simulation from inside the loop goroutine. The
// reply carries the state right after the mutation.
type command struct {
	kind    cmdKind
	weather model.Weather
	trk     *track.Track
	reply   chan *model.RaceState
}

// Server owns the simulation loop and the fan-out of race states.
// All simulation mutations go through the command channel; HTTP
// handlers only read the latest published snapshot.
type Server struct {
	race     *sim.RaceSim
	trk      atomic.Pointer[track.Track]
	insights *insight.Service
	mirror   StatePublisher

	interval time.Duration
	latest   atomic.Pointer[model.RaceState]
	source   chan *model.RaceState
	bcast    broadcast.BroadcastServer[*model.RaceState]
	commands chan command

	finishedAt time.Time
	l          *log.Logger
}

// StatePublisher mirrors every broadcast state to an external sink.
type StatePublisher interface {
	Publish(state *model.RaceState) error
	Close()
}

type Option func(*Server)

func WithRace(race *sim.RaceSim) Option {
	return func(s *Server) {
		s.race = race
	}
}

func WithInsightService(svc *insight.Service) Option {
	return func(s *Server) {
		s.insights = svc
	}
}

func WithStatePublisher(p StatePublisher) Option {
	return func(s *Server) {
		s.mirror = p
	}
}

func WithBroadcastInterval(interval time.Duration) Option {
	return func(s *Server) {
		s.interval = interval
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.l = l
	}
}

func NewServer(trk *track.Track, opts ...Option) *Server {
	ret := &Server{
		interval: DefaultBroadcastInterval,
		source:   make(chan *model.RaceState, 1),
		commands: make(chan command),
		l:        log.Default().Named("server"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.trk.Store(trk)
	if ret.race == nil {
		ret.race = sim.NewRaceSim(sim.WithTrack(trk))
	}
	ret.bcast = broadcast.NewBroadcastServer("state", ret.source)
	ret.latest.Store(ret.race.CurrentState())
	return ret
}

// Track returns the currently active track.
func (s *Server) Track() *track.Track { return s.trk.Load() }

// ReplaceTrack swaps the track inside the loop goroutine, used by the
// track file watcher. The simulation moves to the new geometry and the
// field goes back on the grid; readers see track and car positions
// change together. Blocks until the loop goroutine applied the swap.
func (s *Server) ReplaceTrack(trk *track.Track) {
	reply := make(chan *model.RaceState, 1)
	s.commands <- command{kind: cmdReplaceTrack, trk: trk, reply: reply}
	<-reply
}

// Latest returns the most recently published race state.
func (s *Server) Latest() *model.RaceState { return s.latest.Load() }

// Subscribe attaches a new state stream consumer.
func (s *Server) Subscribe() <-chan *model.RaceState { return s.bcast.Subscribe() }

// Unsubscribe detaches a state stream consumer.
func (s *Server) Unsubscribe(ch <-chan *model.RaceState) {
	s.bcast.CancelSubscription(ch)
}

// Run drives the simulation until the context is canceled, publishing
// one state per interval. It blocks; callers run it in a goroutine.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.l.Info("simulation loop started",
		log.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.bcast.Close()
			if s.mirror != nil {
				s.mirror.Close()
			}
			s.l.Info("simulation loop stopped")
			return
		case cmd := <-s.commands:
			s.handleCommand(ctx, cmd)
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Server) tick(ctx context.Context) {
	switch {
	case s.race.Finished():
		if s.finishedAt.IsZero() {
			s.finishedAt = time.Now()
		} else if time.Since(s.finishedAt) >= resetDelay {
			s.race.Reset()
			s.finishedAt = time.Time{}
			if s.insights != nil {
				s.insights.Reset(ctx)
			}
		}
	default:
		for i := 0; i < StepsPerBroadcast; i++ {
			s.race.Step()
		}
	}
	s.publish()
}

func (s *Server) publish() {
	state := s.race.CurrentState()
	s.latest.Store(state)
	select {
	case s.source <- state:
	default:
		// fan-out still busy with the previous state, drop this one
	}
	if s.mirror != nil {
		if err := s.mirror.Publish(state); err != nil {
			s.l.Warn("state mirror publish failed", log.ErrorField(err))
		}
	}
}

func (s *Server) handleCommand(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdStart:
		s.race.Reset()
		s.race.SetWeather(cmd.weather)
		s.race.Start()
		s.finishedAt = time.Time{}
		if s.insights != nil {
			s.insights.Reset(ctx)
		}
	case cmdReset:
		s.race.Reset()
		s.finishedAt = time.Time{}
		if s.insights != nil {
			s.insights.Reset(ctx)
		}
	case cmdReplaceTrack:
		s.trk.Store(cmd.trk)
		s.race.SetTrack(cmd.trk)
		s.finishedAt = time.Time{}
		s.l.Info("track replaced",
			log.String("name", cmd.trk.Definition.Name))
	}
	state := s.race.CurrentState()
	s.latest.Store(state)
	cmd.reply <- state
}

// StartRace resets the field, applies the weather and releases the
// grid. Blocks until the loop goroutine applied the command.
func (s *Server) StartRace(weather model.Weather) *model.RaceState {
	reply := make(chan *model.RaceState, 1)
	s.commands <- command{kind: cmdStart, weather: weather, reply: reply}
	return <-reply
}

// ResetRace puts the field back on the grid without starting.
func (s *Server) ResetRace() *model.RaceState {
	reply := make(chan *model.RaceState, 1)
	s.commands <- command{kind: cmdReset, reply: reply}
	return <-reply
}
