package sim

import (
	"math"
	"math/rand"
	"slices"

	"github.com/google/uuid"

	"github.com/raceviz/race-view-service-go/log"
	"github.com/raceviz/race-view-service-go/pkg/model"
	"github.com/raceviz/race-view-service-go/pkg/track"
)

const (
	DefaultNumCars   = 20
	DefaultTotalLaps = 36
	// simulation step in seconds
	DefaultDt = 0.5
	// grid spacing in track units
	gridSpacing = 2.0
)

// RangeScanner produces a ranged-sensor sweep for one car.
// Implemented by the lidar package; nil disables scans.
type RangeScanner interface {
	Scan(self *CarState, all []*CarState, trk *track.Track) []float64
}

// RaceSim advances the race state. Not safe for concurrent use; one
// goroutine owns it and hands out immutable snapshots via CurrentState.
type RaceSim struct {
	trk          *track.Track
	cars         []*CarState
	dt           float64
	time         float64
	weather      model.Weather
	totalLaps    int
	numCars      int
	raceFinished bool
	raceStarted  bool
	sessionID    string
	rnd          *rand.Rand
	scanner      RangeScanner
	l            *log.Logger
}

type Option func(*RaceSim)

func WithTrack(trk *track.Track) Option {
	return func(s *RaceSim) {
		s.trk = trk
	}
}

func WithNumCars(n int) Option {
	return func(s *RaceSim) {
		s.numCars = n
	}
}

func WithWeather(w model.Weather) Option {
	return func(s *RaceSim) {
		s.weather = ClampWeather(w)
	}
}

func WithTotalLaps(n int) Option {
	return func(s *RaceSim) {
		s.totalLaps = n
	}
}

// WithSeed makes runs reproducible, mainly for tests.
func WithSeed(seed int64) Option {
	return func(s *RaceSim) {
		s.rnd = rand.New(rand.NewSource(seed)) //nolint:gosec // not crypto
	}
}

func WithRangeScanner(scanner RangeScanner) Option {
	return func(s *RaceSim) {
		s.scanner = scanner
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *RaceSim) {
		s.l = l
	}
}

func NewRaceSim(opts ...Option) *RaceSim {
	ret := &RaceSim{
		dt:        DefaultDt,
		numCars:   DefaultNumCars,
		totalLaps: DefaultTotalLaps,
		weather:   model.Weather{Rain: 0.15, TrackTemp: 22.0, Wind: 3.0},
		sessionID: uuid.NewString(),
		rnd:       rand.New(rand.NewSource(rand.Int63())), //nolint:gosec // not crypto
		l:         log.Default().Named("sim"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.initCars()
	return ret
}

// ClampWeather limits the weather inputs to their valid ranges.
func ClampWeather(w model.Weather) model.Weather {
	return model.Weather{
		Rain:      max(0.0, min(1.0, w.Rain)),
		TrackTemp: max(15.0, min(50.0, w.TrackTemp)),
		Wind:      max(0.0, min(20.0, w.Wind)),
	}
}

func (s *RaceSim) initCars() {
	s.cars = make([]*CarState, 0, s.numCars)
	// new tyres start slightly above ambient
	initialTireTemp := s.weather.TrackTemp + 10.0
	for i := 0; i < s.numCars; i++ {
		c := &CarState{
			Name:        driverNames[i%len(driverNames)],
			Color:       driverColors[i%len(driverColors)],
			DriverSkill: 0.75 + s.rnd.Float64()*0.25,
			Aggression:  0.3 + s.rnd.Float64()*0.7,
			Tyre:        dryCompounds[s.rnd.Intn(len(dryCompounds))],
			Fuel:        100.0,
			TireTemp:    initialTireTemp,
			// grid start with fixed spacing
			S: float64(i) * gridSpacing,
		}
		s.cars = append(s.cars, c)
	}
}

func (s *RaceSim) SessionID() string      { return s.sessionID }
func (s *RaceSim) Time() float64          { return s.time }
func (s *RaceSim) Weather() model.Weather { return s.weather }
func (s *RaceSim) TotalLaps() int         { return s.totalLaps }
func (s *RaceSim) Started() bool          { return s.raceStarted }
func (s *RaceSim) Finished() bool         { return s.raceFinished }
func (s *RaceSim) Track() *track.Track    { return s.trk }
func (s *RaceSim) Dt() float64            { return s.dt }

// SetWeather applies new weather conditions, clamped to their valid
// ranges.
func (s *RaceSim) SetWeather(w model.Weather) {
	s.weather = ClampWeather(w)
}

// SetTrack swaps the circuit under the field. Car positions from the
// old layout are meaningless on the new one, so the field goes back on
// the grid.
func (s *RaceSim) SetTrack(trk *track.Track) {
	s.trk = trk
	s.Reset()
}

// Start releases the grid; Step is a no-op before.
func (s *RaceSim) Start() {
	s.raceStarted = true
	s.l.Info("race started",
		log.String("session", s.sessionID),
		log.Int("cars", len(s.cars)),
		log.Int("laps", s.totalLaps))
}

func (s *RaceSim) gripCoeff(car *CarState) float64 {
	grip := tyreBaseGrip(car.Tyre) * (1 - 0.6*car.Wear)
	rain := s.weather.Rain
	switch car.Tyre {
	case TyreWet:
		grip *= 1.0 + 0.5*rain
	case TyreIntermediate:
		if rain > 0.3 {
			grip *= 1.0 + 0.3*rain
		} else {
			grip *= 1.0 - 0.5*rain
		}
	default:
		grip *= 1.0 - 0.9*rain
	}
	grip *= 0.8 + 0.4*car.DriverSkill
	return max(grip, 0.05)
}

func (s *RaceSim) corneringSpeed(car *CarState, curvature float64) float64 {
	const k = 12.0
	curv := max(curvature, 1e-6)
	v := math.Sqrt(s.gripCoeff(car) * k / curv)
	v *= 1 - 0.001*car.Fuel
	return v
}

func (s *RaceSim) straightSpeed(car *CarState) float64 {
	base := 80.0 + 20.0*car.DriverSkill
	base *= 1 - 0.25*s.weather.Rain
	// compound speed offset (soft fastest, hard slowest)
	base *= 0.90 + 0.15*tyreBaseGrip(car.Tyre)
	// wear effects via the grip coefficient
	base *= 0.95 + 0.1*s.gripCoeff(car)
	base *= 1 - 0.001*car.Fuel
	if car.DrsActive {
		base *= 1.10
	}
	return base
}

func (s *RaceSim) errorProbability(car *CarState) float64 {
	base := 0.0005 + 0.001*(1-car.DriverSkill)
	prob := base * (1 + 4*s.weather.Rain + 6*car.Wear + car.Aggression)
	return min(prob, 0.5)
}

// Leaderboard returns the cars sorted by race order and refreshes
// their Position fields.
func (s *RaceSim) Leaderboard() []*CarState {
	sorted := slices.Clone(s.cars)
	slices.SortStableFunc(sorted, func(a, b *CarState) int {
		if a.LapsCompleted != b.LapsCompleted {
			return b.LapsCompleted - a.LapsCompleted
		}
		switch {
		case a.S > b.S:
			return -1
		case a.S < b.S:
			return 1
		}
		switch {
		case a.TotalTime < b.TotalTime:
			return -1
		case a.TotalTime > b.TotalTime:
			return 1
		default:
			return 0
		}
	})
	for i, c := range sorted {
		c.Position = i + 1
	}
	return sorted
}

// gap of car behind another in seconds, accounting for lap differences
func (s *RaceSim) timeGapTo(car, ahead *CarState) float64 {
	if car.V <= 0.1 {
		return 999.0
	}
	lapDiff := car.LapsCompleted - ahead.LapsCompleted
	distanceGap := float64(lapDiff)*s.trk.Centerline.TotalLength() + (ahead.S - car.S)
	return distanceGap / car.V
}

//nolint:gocognit,cyclop // mirrors the race rules step by step
func (s *RaceSim) updateDrs(car *CarState, sorted []*CarState, curv float64) {
	car.DrsActive = false
	if len(sorted) == 0 {
		return
	}
	// DRS after 3 leader laps, within 1s of the car ahead, on straights
	leader := sorted[0]
	if leader.LapsCompleted < 3 {
		return
	}
	pos := slices.Index(sorted, car)
	if pos <= 0 {
		return
	}
	timeGap := s.timeGapTo(car, sorted[pos-1])
	isStraight := curv < 0.001
	if timeGap > 0 && timeGap <= 1.0 && isStraight {
		car.DrsActive = true
	}
}

//nolint:gocognit,cyclop,funlen // mirrors the pit strategy rules step by step
func (s *RaceSim) pitstopProbability(car *CarState) float64 {
	if car.Wear < 0.8 {
		return 0.0
	}

	sorted := s.Leaderboard()
	pos := slices.Index(sorted, car)

	var gapBehind float64
	fastApproaching := false
	if pos >= 0 && pos < len(sorted)-1 {
		behind := sorted[pos+1]
		if behind.V > 0.1 {
			gapBehind = s.timeGapTo(behind, car)
			if gapBehind > 0 && gapBehind < 2.0 {
				fastApproaching = true
			}
		}
	}

	var baseProb float64
	switch {
	case car.Wear < 0.85:
		// low probability window
		baseProb = 0.1 + 0.1*((car.Wear-0.8)/0.05)
	case car.Wear < 0.90:
		baseProb = 0.2 + 0.6*((car.Wear-0.85)/0.05)
	default:
		// critical wear, force the stop
		return 1.0
	}

	// stretch the stint on a large gap behind, pit early when hunted
	if gapBehind > 3.0 {
		baseProb *= 0.3
	} else if fastApproaching {
		baseProb = min(1.0, baseProb*1.5)
	}

	// prefer stops that rejoin into a gap
	if s.rejoinGapOpportunity(car, sorted) && car.Wear >= 0.85 {
		baseProb = min(1.0, baseProb*1.3)
	}

	// avoid stacking stops when the pit lane is busy
	carsInPit := 0
	for _, c := range s.cars {
		if c.OnPit {
			carsInPit++
		}
	}
	if carsInPit >= 3 {
		baseProb *= 0.5
	}
	return baseProb
}

// checks whether the car would rejoin 2-5s away from traffic
func (s *RaceSim) rejoinGapOpportunity(car *CarState, sorted []*CarState) bool {
	estimatedPitTime := pitTimeBase + 1.0
	rejoinTime := car.TotalTime + estimatedPitTime
	trackLength := s.trk.Centerline.TotalLength()

	for _, other := range sorted {
		if other == car || other.OnPit {
			continue
		}
		timeUntilRejoin := rejoinTime - s.time
		if timeUntilRejoin <= 0 {
			continue
		}
		otherFutureS := other.S + other.V*timeUntilRejoin
		otherNormalized := float64(other.LapsCompleted)*trackLength + otherFutureS
		carNormalized := float64(car.LapsCompleted)*trackLength + car.S
		gap := math.Abs(otherNormalized - carNormalized)
		if car.V > 0.1 {
			timeGap := gap / car.V
			if timeGap >= 2.0 && timeGap <= 5.0 {
				return true
			}
		}
	}
	return false
}

func (s *RaceSim) enterPit(car *CarState) {
	car.OnPit = true
	pitTime := pitstopTime(s.rnd)
	car.PitCounter = pitTime

	// capture the situation for the undercut comparison
	sorted := s.Leaderboard()
	car.positionBeforePitstop = car.Position
	car.timeGapsBeforePitstop = make(map[string]float64, len(sorted))
	for _, other := range sorted {
		if other != car {
			car.timeGapsBeforePitstop[other.Name] = other.TotalTime - car.TotalTime
		}
	}

	car.TotalTime += pitTime
	car.PitstopCount++
	car.PitstopHistory = append(car.PitstopHistory, model.Pitstop{
		Lap:     car.LapsCompleted,
		Tyre:    car.Tyre,
		PitTime: math.Round(pitTime*100) / 100,
	})
	s.l.Debug("pit entry",
		log.String("car", car.Name),
		log.Int("lap", car.LapsCompleted),
		log.Float64("pitTime", pitTime))
}

func (s *RaceSim) leavePit(car *CarState) {
	car.OnPit = false
	car.PitCounter = 0
	car.Tyre = pickTyre(s.rnd, s.weather.Rain)
	if len(car.PitstopHistory) > 0 {
		car.PitstopHistory[len(car.PitstopHistory)-1].NewTyre = car.Tyre
	}
	s.calculateUndercuts(car)
	car.Wear = 0.0
	car.TireTemp = s.weather.TrackTemp + 10.0
	s.l.Debug("pit exit",
		log.String("car", car.Name),
		log.String("tyre", car.Tyre))
}

// Step advances the simulation by one dt. No-op until Start.
//
//nolint:gocognit,cyclop,funlen // mirrors the physics rules step by step
func (s *RaceSim) Step() {
	if !s.raceStarted || s.raceFinished {
		return
	}

	// one leaderboard per step for the DRS detection
	sorted := s.Leaderboard()

	for _, car := range s.cars {
		if car.OnPit {
			car.PitCounter -= s.dt
			if car.PitCounter <= 0 {
				s.leavePit(car)
			}
			continue
		}

		curv := s.trk.Centerline.CurvatureAt(car.S)
		s.updateDrs(car, sorted, curv)

		// anticipate the corner two seconds ahead
		lookahead := car.V * 2.0
		curvAhead := s.trk.Centerline.CurvatureAt(car.S + lookahead)

		vCorner := s.corneringSpeed(car, curv)
		vCornerAhead := s.corneringSpeed(car, curvAhead)
		vStraight := s.straightSpeed(car)
		targetV := min(vStraight, vCorner, vCornerAhead)

		switch {
		case car.V > targetV:
			if car.V-targetV > 5.0 {
				car.V -= 20.0 * s.dt
				car.Brake = 1.0
			} else {
				car.V -= 15.0 * s.dt
				car.Brake = 0.7
			}
			car.Throttle = 0.0
		case car.V < targetV:
			car.V += 6.0 * s.dt
			car.Throttle = 1.0
			car.Brake = 0.0
		default:
			car.Throttle = 0.3
			car.Brake = 0.0
		}
		car.V = max(0.0, min(car.V, targetV))
		car.deriveDrivetrain(vStraight)

		if !car.OnPit && s.rnd.Float64() < s.pitstopProbability(car)*s.dt {
			s.enterPit(car)
		}

		// driver errors
		if s.rnd.Float64() < s.errorProbability(car)*s.dt {
			switch r := s.rnd.Float64(); {
			case r < 0.6:
				car.V *= 0.6
				car.TotalTime += 2.0
			case r < 0.9:
				car.V = 0.0
				car.TotalTime += 6.0
			}
		}

		// tyre wear with compound specific rates
		baseWearRate := 0.0005 * (1 + 0.8*(1-s.gripCoeff(car)))
		wearMultiplier := tyreWearRate(car.Tyre)
		if car.DrsActive {
			wearMultiplier *= 1.05
		}
		car.Wear = min(car.Wear+baseWearRate*wearMultiplier*s.dt, 0.99)

		// tyre temperature: heat from speed and cornering, ambient cooling
		slipAngle := 0.0
		if car.V > 0 {
			slipAngle = math.Abs(curv) * car.V
		}
		heatGen := 0.01 * car.V * slipAngle * tyreHeatFactor(car.Tyre)
		cooling := 0.05 * (car.TireTemp - s.weather.TrackTemp)
		car.TireTemp += (heatGen - cooling) * s.dt
		car.TireTemp = max(s.weather.TrackTemp, min(car.TireTemp, 150.0))

		car.Fuel = max(car.Fuel-0.02*s.dt, 0.0)

		car.S += car.V * s.dt

		trackLength := s.trk.Centerline.TotalLength()
		if car.S >= trackLength {
			car.S -= trackLength
			car.LapsCompleted++
			if car.LapsCompleted >= s.totalLaps {
				s.raceFinished = true
				s.l.Info("race finished",
					log.String("session", s.sessionID),
					log.String("winner", car.Name),
					log.Float64("time", s.time))
			}
		}
	}

	if s.scanner != nil {
		for _, car := range s.cars {
			car.LidarRanges = s.scanner.Scan(car, s.cars, s.trk)
		}
	}

	s.time += s.dt
}

// calculateUndercuts fills the undercut effects of a just completed
// pitstop relative to all other cars.
func (s *RaceSim) calculateUndercuts(car *CarState) {
	if len(car.PitstopHistory) == 0 || car.positionBeforePitstop == 0 {
		return
	}
	sorted := s.Leaderboard()
	entry := &car.PitstopHistory[len(car.PitstopHistory)-1]
	entry.Undercuts = make(map[string]model.UndercutInfo, len(sorted)-1)

	for _, other := range sorted {
		if other == car {
			continue
		}
		gapBefore := car.timeGapsBeforePitstop[other.Name]
		gapAfter := other.TotalTime - car.TotalTime
		entry.Undercuts[other.Name] = model.UndercutInfo{
			TimeGain:       math.Round((gapBefore-gapAfter)*100) / 100,
			PositionBefore: car.positionBeforePitstop,
			PositionAfter:  car.Position,
			PositionChange: car.positionBeforePitstop - car.Position,
			OtherPosition:  other.Position,
			TimeGapBefore:  math.Round(gapBefore*100) / 100,
			TimeGapAfter:   math.Round(gapAfter*100) / 100,
		}
	}
	car.positionBeforePitstop = 0
	car.timeGapsBeforePitstop = nil
}

// UndercutSummary lists all pitstops with significant effects
// (more than one second gained or lost).
func (s *RaceSim) UndercutSummary() []model.UndercutSummary {
	summary := make([]model.UndercutSummary, 0)
	for _, car := range s.cars {
		for i := range car.PitstopHistory {
			stop := &car.PitstopHistory[i]
			significant := make([]model.SignificantEffect, 0)
			for otherName, data := range stop.Undercuts {
				if math.Abs(data.TimeGain) > 1.0 {
					significant = append(significant, model.SignificantEffect{
						Vs:             otherName,
						TimeGain:       data.TimeGain,
						PositionChange: data.PositionChange,
						PositionBefore: data.PositionBefore,
						PositionAfter:  data.PositionAfter,
					})
				}
			}
			if len(significant) > 0 {
				slices.SortFunc(significant, func(a, b model.SignificantEffect) int {
					switch {
					case a.TimeGain > b.TimeGain:
						return -1
					case a.TimeGain < b.TimeGain:
						return 1
					default:
						return 0
					}
				})
				summary = append(summary, model.UndercutSummary{
					Car:       car.Name,
					Lap:       stop.Lap,
					PitTime:   stop.PitTime,
					OldTyre:   stop.Tyre,
					NewTyre:   stop.NewTyre,
					Undercuts: significant,
				})
			}
		}
	}
	return summary
}

// CurrentState renders the complete race state for broadcasting.
func (s *RaceSim) CurrentState() *model.RaceState {
	sorted := s.Leaderboard()

	// intervals relative to the leader
	if len(sorted) > 0 {
		leader := sorted[0]
		trackLength := s.trk.Centerline.TotalLength()
		for _, car := range sorted {
			car.TimeInterval = car.TotalTime - leader.TotalTime
			lapDiff := car.LapsCompleted - leader.LapsCompleted
			car.DistanceInterval = float64(lapDiff)*trackLength + (car.S - leader.S)
		}
	}

	tyreCounts := make(map[string]int)
	cars := make([]model.CarSample, 0, len(s.cars))
	for _, car := range s.cars {
		tyreCounts[car.Tyre]++
		cars = append(cars, car.ToSample(s.trk))
	}

	ret := &model.RaceState{
		SessionID:        s.sessionID,
		Time:             math.Round(s.time*10) / 10,
		Cars:             cars,
		Weather:          s.weather,
		TotalLaps:        s.totalLaps,
		TyreDistribution: tyreCounts,
		RaceFinished:     s.raceFinished,
		RaceStarted:      s.raceStarted,
	}
	if s.raceFinished {
		ret.UndercutSummary = s.UndercutSummary()
	}
	return ret
}

// Reset prepares a fresh race on the same track and weather.
func (s *RaceSim) Reset() {
	s.time = 0
	s.raceFinished = false
	s.raceStarted = false
	s.sessionID = uuid.NewString()
	initialTireTemp := s.weather.TrackTemp + 10.0
	for i, car := range s.cars {
		car.S = float64(i) * gridSpacing
		car.V = 0
		car.LapsCompleted = 0
		car.TotalTime = 0
		car.Wear = 0
		car.Fuel = 100.0
		car.OnPit = false
		car.PitCounter = 0
		car.PitstopHistory = nil
		car.PitstopCount = 0
		car.positionBeforePitstop = 0
		car.timeGapsBeforePitstop = nil
		car.Tyre = dryCompounds[s.rnd.Intn(len(dryCompounds))]
		car.TireTemp = initialTireTemp
		car.LidarRanges = nil
	}
	s.l.Info("race reset", log.String("session", s.sessionID))
}
