package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/raceviz/race-view-service-go/log"
	"github.com/raceviz/race-view-service-go/pkg/projection"
)

// handleStateStream streams race states as server-sent events at the
// broadcast cadence. When the request carries view parameters each
// event additionally contains a projected frame; the projector and its
// trail store live for the duration of the connection so trails stay
// continuous.
func (s *Server) handleStateStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	params, withView := viewParamsFromQuery(r)
	trk := s.Track()
	var proj *projection.Projector
	if withView {
		proj = projection.NewProjector(
			projection.WithTrack(trk.Definition))
	}

	states := s.Subscribe()
	defer s.Unsubscribe(states)
	s.l.Debug("state stream opened",
		log.String("remote", r.RemoteAddr),
		log.Bool("view", withView))

	for {
		select {
		case <-r.Context().Done():
			s.l.Debug("state stream closed", log.String("remote", r.RemoteAddr))
			return
		case state, open := <-states:
			if !open {
				return
			}
			payload := statePayload{State: state}
			if proj != nil {
				// follow track hot reloads; SetTrack drops the trails
				if current := s.Track(); current != trk {
					trk = current
					proj.SetTrack(trk.Definition)
				}
				payload.Frame = proj.Project(params, state.Cars, time.Now())
			}
			data, err := json.Marshal(payload)
			if err != nil {
				s.l.Error("encoding stream payload", log.ErrorField(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", data); err != nil {
				s.l.Debug("state stream write failed",
					log.String("remote", r.RemoteAddr))
				return
			}
			flusher.Flush()
		}
	}
}
