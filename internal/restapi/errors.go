package restapi

import (
	"errors"
	"log/slog"
	"net/http"

	"gpxracer.app/internal/gpxfile"
	"gpxracer.app/internal/logging"
	"gpxracer.app/internal/models"
	"gpxracer.app/internal/race"
	"gpxracer.app/internal/route"
	"gpxracer.app/internal/session"
)

func logEncodeFailure(logger *slog.Logger, r *http.Request, err error) {
	logging.LogError(logger, "failed to encode response", err,
		slog.String("path", r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())))
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.logger(), "internal server error", err,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())))
	api.sendError(w, r, http.StatusInternalServerError, "internal server error")
}

func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	api.sendErrorWithData(w, r, http.StatusBadRequest, "validation error", models.FieldErrorsData{FieldErrors: fieldErrors})
}

// errorResponse maps domain errors to HTTP statuses.
func (api *RestAPI) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		api.sendError(w, r, http.StatusNotFound, "session not found")
	case errors.Is(err, session.ErrInvalidSlot):
		api.validationErrorResponse(w, r, map[string][]string{"slot": {err.Error()}})
	case errors.Is(err, race.ErrRoutesMissing), errors.Is(err, session.ErrChanged):
		api.sendError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, gpxfile.ErrTooLarge):
		api.sendError(w, r, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, gpxfile.ErrParse):
		api.sendError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, route.ErrInvalidRoute):
		api.sendError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		api.serverErrorResponse(w, r, err)
	}
}
