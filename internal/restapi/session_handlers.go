package restapi

import (
	"net/http"

	"gpxracer.app/internal/logging"
	"gpxracer.app/internal/models"
	"gpxracer.app/internal/session"
	"gpxracer.app/internal/utils"
)

// sessionID validates the {id} path value. It writes a 400 and returns
// false when the id is unusable.
func (api *RestAPI) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := utils.ExtractIDFromParams(r)
	if err := utils.ValidateID(id); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"id": {err.Error()}})
		return "", false
	}
	return id, true
}

// routeSlot validates the {slot} path value.
func (api *RestAPI) routeSlot(w http.ResponseWriter, r *http.Request) (int, bool) {
	slot, err := utils.ParseSlot(r.PathValue("slot"))
	if err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"slot": {err.Error()}})
		return 0, false
	}
	return slot, true
}

func (api *RestAPI) sendView(w http.ResponseWriter, r *http.Request, s *session.Session) {
	api.sendResponse(w, r, models.NewEntryResponse(models.NewRaceView(s), api.Clock))
}

func (api *RestAPI) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	s := api.Sessions.Create()
	logging.LogOperation(logging.FromContext(r.Context()), "session_created",
		"session_id", s.ID,
		"sessions", api.Sessions.Len())

	w.Header().Set("Location", "/api/sessions/"+s.ID)
	api.sendResponseWithStatus(w, r, http.StatusCreated,
		models.NewResponse(http.StatusCreated, map[string]interface{}{"entry": models.SessionCreated{ID: s.ID}}, "Created", api.Clock))
}

// getSessionHandler applies any running autoplay before rendering.
func (api *RestAPI) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.sessionID(w, r)
	if !ok {
		return
	}

	s, err := api.Sessions.Update(id, func(s *session.Session) error {
		s.State = s.State.Advance(api.Clock.Now())
		return nil
	})
	if err != nil {
		api.errorResponse(w, r, err)
		return
	}
	api.sendView(w, r, s)
}

func (api *RestAPI) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.sessionID(w, r)
	if !ok {
		return
	}

	if err := api.Sessions.Delete(id); err != nil {
		api.errorResponse(w, r, err)
		return
	}
	logging.LogOperation(logging.FromContext(r.Context()), "session_deleted", "session_id", id)
	api.sendNoContent(w)
}
