package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gpxracer.app/internal/logging"
	"gpxracer.app/internal/models"
	"gpxracer.app/internal/race"
	"gpxracer.app/internal/session"
)

const defaultTickInterval = 100 * time.Millisecond

// Stream event names.
const (
	eventView  = "view"
	eventDone  = "done"
	eventError = "error"
)

// streamHandler pushes a race view as a Server-Sent Event on every tick
// while autoplay runs. The stream ends once autoplay stops or finishes.
func (api *RestAPI) streamHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.sessionID(w, r)
	if !ok {
		return
	}
	if _, err := api.Sessions.Get(id); err != nil {
		api.errorResponse(w, r, err)
		return
	}

	select {
	case <-api.shutdown:
		api.sendError(w, r, http.StatusServiceUnavailable, "server is shutting down")
		return
	default:
	}
	api.streams.Add(1)
	defer api.streams.Done()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		select {
		case <-api.shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()

	rc := http.NewResponseController(w)
	// the server write timeout would otherwise cut long races short
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	logger := logging.FromContext(r.Context())
	send := func(event string, data interface{}) bool {
		if err := writeEvent(w, event, data); err != nil {
			logging.LogError(logger, "failed to write stream event", err, "session_id", id)
			return false
		}
		if err := rc.Flush(); err != nil {
			logging.LogError(logger, "failed to flush stream", err, "session_id", id)
			return false
		}
		return true
	}

	// step advances the session and reports whether to keep streaming.
	// Ticks may arrive late, so the clock is read rather than the tick time.
	step := func(time.Time) bool {
		s, err := api.Sessions.Update(id, func(s *session.Session) error {
			s.State = s.State.Advance(api.Clock.Now())
			return nil
		})
		if err != nil {
			send(eventError, map[string]string{"text": err.Error()})
			return false
		}
		if !send(eventView, models.NewRaceView(s)) {
			return false
		}
		if !s.State.Playing() {
			send(eventDone, map[string]string{"sessionId": id})
			return false
		}
		return true
	}

	if !step(api.Clock.Now()) {
		return
	}

	interval := api.Config.TickInterval
	if interval <= 0 {
		interval = defaultTickInterval
	}
	animator := race.Animator{Clock: api.Clock, Interval: interval}
	err := animator.Run(ctx, step)
	if err != nil && !errors.Is(err, race.ErrStopped) && !errors.Is(err, context.Canceled) {
		logging.LogError(logger, "stream ended", err, "session_id", id)
	}
}

func writeEvent(w http.ResponseWriter, event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
