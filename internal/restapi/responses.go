package restapi

import (
	"encoding/json"
	"net/http"

	"gpxracer.app/internal/models"
)

func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, response models.ResponseModel) {
	api.sendResponseWithStatus(w, r, http.StatusOK, response)
}

func (api *RestAPI) sendResponseWithStatus(w http.ResponseWriter, r *http.Request, status int, response models.ResponseModel) {
	setJSONResponseType(&w)
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		logEncodeFailure(api.logger(), r, err)
	}
}

func (api *RestAPI) sendNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func (api *RestAPI) sendNotFound(w http.ResponseWriter, r *http.Request) {
	api.sendError(w, r, http.StatusNotFound, "resource not found")
}

func setJSONResponseType(w *http.ResponseWriter) {
	(*w).Header().Set("Content-Type", "application/json")
}

func (api *RestAPI) sendError(w http.ResponseWriter, r *http.Request, code int, message string) {
	api.sendErrorWithData(w, r, code, message, nil)
}

func (api *RestAPI) sendErrorWithData(w http.ResponseWriter, r *http.Request, code int, message string, data interface{}) {
	setJSONResponseType(&w)
	w.WriteHeader(code)

	response := models.ResponseModel{
		Code:        code,
		CurrentTime: models.ResponseCurrentTime(api.Clock),
		Data:        data,
		Text:        message,
		Version:     2,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logEncodeFailure(api.logger(), r, err)
	}
}
