package restapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"gpxracer.app/internal/logging"
	"gpxracer.app/internal/models"
	"gpxracer.app/internal/race"
	"gpxracer.app/internal/route"
	"gpxracer.app/internal/session"
)

type progressRequest struct {
	Progress *float64 `json:"progress"`
}

// decodeProgress reads a {"progress": x} body. Values outside [0,1] are
// accepted and clamped by the race state.
func (api *RestAPI) decodeProgress(w http.ResponseWriter, r *http.Request) (float64, bool) {
	var req progressRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 4096))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"body": {"body must be a JSON object like {\"progress\": 0.5}"}})
		return 0, false
	}
	if req.Progress == nil {
		api.validationErrorResponse(w, r, map[string][]string{"progress": {"progress is required"}})
		return 0, false
	}
	return *req.Progress, true
}

// mutate applies fn to the session state after catching up any running
// autoplay, then renders the result.
func (api *RestAPI) mutate(w http.ResponseWriter, r *http.Request, fn func(s *session.Session, now time.Time) error) {
	id, ok := api.sessionID(w, r)
	if !ok {
		return
	}

	s, err := api.Sessions.Update(id, func(s *session.Session) error {
		now := api.Clock.Now()
		s.State = s.State.Advance(now)
		return fn(s, now)
	})
	if err != nil {
		api.errorResponse(w, r, err)
		return
	}
	api.sendView(w, r, s)
}

func (api *RestAPI) routeProgressHandler(w http.ResponseWriter, r *http.Request) {
	slot, ok := api.routeSlot(w, r)
	if !ok {
		return
	}
	progress, ok := api.decodeProgress(w, r)
	if !ok {
		return
	}

	api.mutate(w, r, func(s *session.Session, _ time.Time) error {
		next, err := s.State.SetRouteProgress(slot, progress)
		if err != nil {
			return err
		}
		s.State = next
		return nil
	})
}

func (api *RestAPI) syncProgressHandler(w http.ResponseWriter, r *http.Request) {
	progress, ok := api.decodeProgress(w, r)
	if !ok {
		return
	}

	api.mutate(w, r, func(s *session.Session, _ time.Time) error {
		s.State = s.State.SetSyncProgress(progress)
		return nil
	})
}

func (api *RestAPI) startAutoplayHandler(w http.ResponseWriter, r *http.Request) {
	duration := api.Config.AutoplayDuration
	if duration <= 0 {
		duration = race.DefaultAutoplayDuration
	}

	api.mutate(w, r, func(s *session.Session, now time.Time) error {
		if !s.Ready() {
			return race.ErrRoutesMissing
		}
		s.State = s.State.StartAutoplay(now, duration)
		logging.LogOperation(logging.FromContext(r.Context()), "autoplay_started",
			"session_id", s.ID,
			"duration", duration.String())
		return nil
	})
}

func (api *RestAPI) stopAutoplayHandler(w http.ResponseWriter, r *http.Request) {
	api.mutate(w, r, func(s *session.Session, _ time.Time) error {
		s.State = s.State.StopAutoplay()
		return nil
	})
}

// alignHandler runs the alignment search on a snapshot of the session so
// the session stays available while it runs. Routes are never modified in
// place, so the result is committed only if both route pointers are
// unchanged.
func (api *RestAPI) alignHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.sessionID(w, r)
	if !ok {
		return
	}

	snapshot, err := api.Sessions.Get(id)
	if err != nil {
		api.errorResponse(w, r, err)
		return
	}
	r1, r2 := snapshot.Routes[0], snapshot.Routes[1]
	if r1 == nil || r2 == nil {
		api.errorResponse(w, r, race.ErrRoutesMissing)
		return
	}

	start := api.Clock.Now()
	alignment := route.EarliestAlignment(r1, r2)
	api.Metrics.ObserveAlignment(api.Clock.Now().Sub(start))

	s, err := api.Sessions.Update(id, func(s *session.Session) error {
		if s.Routes[0] != r1 || s.Routes[1] != r2 {
			return session.ErrChanged
		}
		s.State = s.State.Advance(api.Clock.Now()).ApplyAlignment(r1, r2, alignment)
		return nil
	})
	if err != nil {
		api.errorResponse(w, r, err)
		return
	}

	logging.LogOperation(logging.FromContext(r.Context()), "routes_aligned",
		"session_id", id,
		"distance_m", alignment.DistanceM)
	api.sendResponse(w, r, models.NewEntryResponse(models.AlignmentResult{
		View:      models.NewRaceView(s),
		DistanceM: alignment.DistanceM,
	}, api.Clock))
}

func (api *RestAPI) startFromHandler(w http.ResponseWriter, r *http.Request) {
	slot, ok := api.routeSlot(w, r)
	if !ok {
		return
	}

	api.mutate(w, r, func(s *session.Session, _ time.Time) error {
		next, err := s.State.StartFrom(slot, s.Routes[0], s.Routes[1])
		if err != nil {
			if errors.Is(err, race.ErrRoutesMissing) {
				return err
			}
			return session.ErrInvalidSlot
		}
		s.State = next
		return nil
	})
}
