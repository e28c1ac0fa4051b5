package restapi

import (
	"encoding/json"
	"net/http"
)

// HealthResponse represents the JSON response from the health endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Sessions int    `json:"sessions"`
}

// healthHandler reports liveness. It returns 503 until the session store
// is wired and while the server is shutting down.
func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if api.Application == nil || api.Sessions == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status: "unavailable",
			Detail: "session store not initialized",
		})
		return
	}

	select {
	case <-api.shutdown:
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status:   "stopping",
			Detail:   "server is shutting down",
			Sessions: api.Sessions.Len(),
		})
		return
	default:
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:   "ok",
		Sessions: api.Sessions.Len(),
	})
}
