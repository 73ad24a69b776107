package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raceviz/race-view-service-go/pkg/insight"
	"github.com/raceviz/race-view-service-go/pkg/model"
	"github.com/raceviz/race-view-service-go/pkg/sim"
	"github.com/raceviz/race-view-service-go/pkg/track"
)

func testServer(t *testing.T, opts ...Option) (*Server, *http.ServeMux) {
	t.Helper()
	trk, err := track.NewLoader(track.WithResolution(500)).Load()
	require.NoError(t, err)
	args := append([]Option{
		WithRace(sim.NewRaceSim(
			sim.WithTrack(trk),
			sim.WithSeed(7),
			sim.WithNumCars(4))),
		WithBroadcastInterval(10 * time.Millisecond),
	}, opts...)
	srv := NewServer(trk, args...)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	return srv, mux
}

func runLoop(t *testing.T, srv *Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Run(ctx)
}

// square circuit far away from the built-in layout
func remoteTrack(t *testing.T) *track.Track {
	t.Helper()
	waypoints := []model.Point{
		{X: 10000, Y: 10000}, {X: 10100, Y: 10000},
		{X: 10100, Y: 10100}, {X: 10000, Y: 10100},
	}
	center, err := track.BuildCenterline(waypoints, 500)
	require.NoError(t, err)
	left, right := track.Boundaries(center, 12.0)
	return &track.Track{
		Definition: &model.TrackDefinition{
			Name:        "far side",
			Points:      center.Points(),
			Width:       12.0,
			TotalLength: center.TotalLength(),
		},
		Centerline:    center,
		LeftBoundary:  left,
		RightBoundary: right,
	}
}

func TestHandleIndex(t *testing.T) {
	_, mux := testServer(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["message"])
	assert.Equal(t, "/api/track", resp["track_endpoint"])
	assert.Equal(t, "/api/state/stream", resp["stream_endpoint"])
}

func TestHandleTrack(t *testing.T) {
	_, mux := testServer(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/track", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp trackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, track.DefaultTrackName, resp.Name)
	assert.NotEmpty(t, resp.Points)
	assert.Len(t, resp.LeftBoundary, len(resp.Points))
	assert.Positive(t, resp.TotalLength)
}

func TestHandleStart_ClampsWeather(t *testing.T) {
	srv, mux := testServer(t)
	runLoop(t, srv)

	body := strings.NewReader(`{"rain": 5.0, "track_temp": 99, "wind": -3}`)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/start", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Message     string        `json:"message"`
		Weather     model.Weather `json:"weather"`
		RaceStarted bool          `json:"race_started"` //nolint:tagliatelle // wire format
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.RaceStarted)
	assert.InDelta(t, 1.0, resp.Weather.Rain, 1e-9)
	assert.InDelta(t, 50.0, resp.Weather.TrackTemp, 1e-9)
	assert.InDelta(t, 0.0, resp.Weather.Wind, 1e-9)
}

func TestHandleStart_RejectsBadBody(t *testing.T) {
	srv, mux := testServer(t)
	runLoop(t, srv)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(
		http.MethodPost, "/api/start", strings.NewReader("not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleReset(t *testing.T) {
	srv, mux := testServer(t)
	runLoop(t, srv)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(
		http.MethodPost, "/api/start", strings.NewReader(`{"rain": 0}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	status := srv.Latest()
	assert.False(t, status.RaceStarted)
	assert.Zero(t, status.Time)
}

func TestHandleRaceStatus(t *testing.T) {
	_, mux := testServer(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/race-status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["race_started"])
	assert.Equal(t, false, resp["race_finished"])
	assert.NotEmpty(t, resp["session_id"])
	assert.EqualValues(t, sim.DefaultTotalLaps, resp["total_laps"])
}

func TestHandleState(t *testing.T) {
	_, mux := testServer(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var plain statePayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plain))
	assert.Len(t, plain.State.Cars, 4)
	assert.Nil(t, plain.Frame)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(
		http.MethodGet, "/api/state?width=800&height=600&zoom=1.5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var withFrame statePayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &withFrame))
	require.NotNil(t, withFrame.Frame)
	assert.Positive(t, withFrame.Frame.Transform.Scale)
	assert.Len(t, withFrame.Frame.Cars, 4)
}

func TestHandleDriverInsight(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/Hamilton") {
				fmt.Fprint(w, `{"success": false, "error": "model unavailable"}`)
				return
			}
			fmt.Fprint(w, `{"success": true, "insights": {"driver": "Verstappen"}}`)
		}))
	defer upstream.Close()

	svc := insight.NewService(insight.NewClient(upstream.URL))
	_, mux := testServer(t, WithInsightService(svc))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(
		http.MethodPost, "/api/driver-insight/Verstappen", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var ok insightResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	assert.True(t, ok.Success)
	require.NotNil(t, ok.Insights)
	assert.Equal(t, "Verstappen", ok.Insights.Driver)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(
		http.MethodPost, "/api/driver-insight/Hamilton", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var failed insightResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failed))
	assert.False(t, failed.Success)
	assert.Contains(t, failed.Error, "model unavailable")
	assert.Nil(t, failed.Insights)
}

func TestHandleDriverInsight_NotConfigured(t *testing.T) {
	_, mux := testServer(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(
		http.MethodPost, "/api/driver-insight/Norris", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleHealthAndVersion(t *testing.T) {
	_, mux := testServer(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "version")
}

func TestReplaceTrack_MovesRaceToNewTrack(t *testing.T) {
	srv, mux := testServer(t)
	runLoop(t, srv)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/start", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	replacement := remoteTrack(t)
	srv.ReplaceTrack(replacement)

	// API and simulation switch geometry together
	assert.Same(t, replacement, srv.Track())
	state := srv.Latest()
	assert.False(t, state.RaceStarted)
	for _, car := range state.Cars {
		assert.GreaterOrEqual(t, car.X, 9900.0, car.Name)
		assert.GreaterOrEqual(t, car.Y, 9900.0, car.Name)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/track", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp trackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "far side", resp.Name)
}

func TestStateStream_DeliversEvents(t *testing.T) {
	srv, mux := testServer(t)
	runLoop(t, srv)
	httpSrv := httptest.NewServer(mux)
	defer httpSrv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		httpSrv.URL+"/api/state/stream?width=800&height=600", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	var data string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	require.NotEmpty(t, data)

	var payload statePayload
	require.NoError(t, json.Unmarshal([]byte(data), &payload))
	assert.Len(t, payload.State.Cars, 4)
	require.NotNil(t, payload.Frame)
	assert.Len(t, payload.Frame.Cars, 4)
}
