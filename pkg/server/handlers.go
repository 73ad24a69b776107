package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/raceviz/race-view-service-go/log"
	"github.com/raceviz/race-view-service-go/pkg/model"
	"github.com/raceviz/race-view-service-go/pkg/projection"
	"github.com/raceviz/race-view-service-go/pkg/sim"
	"github.com/raceviz/race-view-service-go/version"
)

// RegisterRoutes attaches all HTTP endpoints to the mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/track", s.handleTrack)
	mux.HandleFunc("POST /api/start", s.handleStart)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /api/race-status", s.handleRaceStatus)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/state/stream", s.handleStateStream)
	mux.HandleFunc("POST /api/driver-insight/{driver}", s.handleDriverInsight)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /version", s.handleVersion)
}

// handleIndex describes the service and its main endpoints.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":         "Race View Service",
		"stream_endpoint": "/api/state/stream",
		"track_endpoint":  "/api/track",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Default().Named("server").Error("writing response",
			log.ErrorField(err))
	}
}

//nolint:tagliatelle // wire format of the browser client
type trackResponse struct {
	Name          string        `json:"name"`
	Points        []model.Point `json:"points"`
	LeftBoundary  []model.Point `json:"left_boundary"`
	RightBoundary []model.Point `json:"right_boundary"`
	Width         float64       `json:"width"`
	TotalLength   float64       `json:"total_length"`
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	trk := s.Track()
	writeJSON(w, http.StatusOK, trackResponse{
		Name:          trk.Definition.Name,
		Points:        trk.Definition.Points,
		LeftBoundary:  trk.LeftBoundary,
		RightBoundary: trk.RightBoundary,
		Width:         trk.Definition.Width,
		TotalLength:   trk.Definition.TotalLength,
	})
}

//nolint:tagliatelle // wire format of the browser client
type startRequest struct {
	Rain      float64 `json:"rain"`
	TrackTemp float64 `json:"track_temp"`
	Wind      float64 `json:"wind"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	req := startRequest{TrackTemp: 25.0}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest,
				map[string]string{"detail": "invalid request body"})
			return
		}
	}
	weather := sim.ClampWeather(model.Weather{
		Rain:      req.Rain,
		TrackTemp: req.TrackTemp,
		Wind:      req.Wind,
	})
	state := s.StartRace(weather)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Race started",
		"weather":      weather,
		"race_started": state.RaceStarted,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.ResetRace()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Simulation reset"})
}

func (s *Server) handleRaceStatus(w http.ResponseWriter, r *http.Request) {
	state := s.Latest()
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":    state.SessionID,
		"race_started":  state.RaceStarted,
		"race_finished": state.RaceFinished,
		"time":          state.Time,
		"weather":       state.Weather,
		"total_laps":    state.TotalLaps,
	})
}

// statePayload is one streamed or polled state. The frame is present
// only when the request carried view parameters.
type statePayload struct {
	State *model.RaceState  `json:"state"`
	Frame *projection.Frame `json:"frame,omitempty"`
}

// viewParamsFromQuery reads the optional projection settings. A view
// is requested when both width and height are given.
func viewParamsFromQuery(r *http.Request) (projection.ViewParams, bool) {
	q := r.URL.Query()
	readFloat := func(key string, fallback float64) float64 {
		if v, err := strconv.ParseFloat(q.Get(key), 64); err == nil {
			return v
		}
		return fallback
	}
	width := readFloat("width", 0)
	height := readFloat("height", 0)
	if width <= 0 || height <= 0 {
		return projection.ViewParams{}, false
	}
	return projection.ViewParams{
		Surface: projection.Surface{Width: width, Height: height},
		Zoom:    readFloat("zoom", 1.0),
		Pan: projection.ScreenPoint{
			X: readFloat("pan_x", 0),
			Y: readFloat("pan_y", 0),
		},
		FollowedCar: q.Get("follow"),
	}, true
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state := s.Latest()
	payload := statePayload{State: state}
	if params, ok := viewParamsFromQuery(r); ok {
		proj := projection.NewProjector(
			projection.WithTrack(s.Track().Definition))
		payload.Frame = proj.Project(params, state.Cars, time.Now())
	}
	writeJSON(w, http.StatusOK, payload)
}

//nolint:tagliatelle // wire format of the insight service
type insightResponse struct {
	Success  bool                       `json:"success"`
	Insights *model.DriverInsightReport `json:"insights,omitempty"`
	Error    string                     `json:"error,omitempty"`
}

func (s *Server) handleDriverInsight(w http.ResponseWriter, r *http.Request) {
	if s.insights == nil {
		writeJSON(w, http.StatusServiceUnavailable,
			map[string]string{"detail": "insight service not configured"})
		return
	}
	driver := r.PathValue("driver")
	report, err := s.insights.Report(r.Context(), driver)
	if err != nil {
		writeJSON(w, http.StatusOK, insightResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, insightResponse{
		Success:  true,
		Insights: report,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":   version.Version,
		"commit":    version.GitCommit,
		"buildDate": version.BuildDate,
	})
}
