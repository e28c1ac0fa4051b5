package restapi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"gpxracer.app/internal/gpxfile"
	"gpxracer.app/internal/logging"
	"gpxracer.app/internal/metrics"
	"gpxracer.app/internal/models"
	"gpxracer.app/internal/route"
	"gpxracer.app/internal/session"
	"gpxracer.app/internal/utils"
)

// multipartOverhead is the slack allowed on top of MaxUploadBytes for form
// boundaries and part headers.
const multipartOverhead = 64 << 10

const defaultNearbyRadius = 50.0

// uploadRouteHandler accepts a GPX document either as the raw request body
// or as the "file" field of a multipart form.
func (api *RestAPI) uploadRouteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.sessionID(w, r)
	if !ok {
		return
	}
	slot, ok := api.routeSlot(w, r)
	if !ok {
		return
	}

	limit := api.Config.MaxUploadBytes
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}

	name, points, err := readUpload(r, limit)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = fmt.Errorf("%w: limit is %d bytes", gpxfile.ErrTooLarge, limit)
		}
		api.recordBuild(err, 0)
		api.errorResponse(w, r, err)
		return
	}

	built, err := route.Build(points)
	if err != nil {
		api.recordBuild(err, 0)
		api.errorResponse(w, r, err)
		return
	}
	api.recordBuild(nil, built.Len())

	s, err := api.Sessions.Update(id, func(s *session.Session) error {
		return s.SetRoute(slot, name, built)
	})
	if err != nil {
		api.errorResponse(w, r, err)
		return
	}

	logging.LogOperation(logging.FromContext(r.Context()), "route_loaded",
		"session_id", id,
		"slot", slot,
		"file", name,
		"points", built.Len(),
		"distance_m", built.TotalMeters())
	api.sendView(w, r, s)
}

func readUpload(r *http.Request, limit int64) (string, []route.GeoPoint, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		points, err := gpxfile.ParseReader(r.Body, limit)
		return uploadName(r.URL.Query().Get("name")), points, err
	}

	reader, err := r.MultipartReader()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", gpxfile.ErrParse, err)
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return "", nil, fmt.Errorf("%w: multipart form has no file field", gpxfile.ErrParse)
		}
		if err != nil {
			return "", nil, unwrapMaxBytes(err)
		}
		if part.FormName() != "file" {
			continue
		}
		points, err := gpxfile.ParseReader(part, limit)
		return uploadName(part.FileName()), points, unwrapMaxBytes(err)
	}
}

// unwrapMaxBytes surfaces a body limit hit buried inside a parse error.
func unwrapMaxBytes(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return maxErr
	}
	if err != nil && !errors.Is(err, gpxfile.ErrParse) && !errors.Is(err, gpxfile.ErrTooLarge) {
		return fmt.Errorf("%w: %w", gpxfile.ErrParse, err)
	}
	return err
}

func uploadName(name string) string {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." || name == "/" {
		return "route.gpx"
	}
	return name
}

func (api *RestAPI) recordBuild(err error, points int) {
	result := metrics.ResultOK
	switch {
	case err == nil:
	case errors.Is(err, gpxfile.ErrTooLarge):
		result = metrics.ResultTooLarge
	case errors.Is(err, route.ErrInvalidRoute):
		result = metrics.ResultInvalidRoute
	default:
		result = metrics.ResultParseError
	}
	api.Metrics.ObserveRouteBuild(result, points)
}

// loadedRoute fetches the session and the route in the requested slot. It
// writes the error response itself and returns false on failure.
func (api *RestAPI) loadedRoute(w http.ResponseWriter, r *http.Request) (*session.Session, int, bool) {
	id, ok := api.sessionID(w, r)
	if !ok {
		return nil, 0, false
	}
	slot, ok := api.routeSlot(w, r)
	if !ok {
		return nil, 0, false
	}

	s, err := api.Sessions.Get(id)
	if err != nil {
		api.errorResponse(w, r, err)
		return nil, 0, false
	}
	if s.Route(slot) == nil {
		api.sendError(w, r, http.StatusConflict, fmt.Sprintf("route %d is not loaded", slot))
		return nil, 0, false
	}
	return s, slot, true
}

func (api *RestAPI) routeGeometryHandler(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "geojson"
	}
	if format != "geojson" && format != "polyline" {
		api.validationErrorResponse(w, r, map[string][]string{"format": {"format must be geojson or polyline"}})
		return
	}

	s, slot, ok := api.loadedRoute(w, r)
	if !ok {
		return
	}
	rt := s.Route(slot)

	if format == "polyline" {
		api.sendResponse(w, r, models.NewEntryResponse(map[string]interface{}{
			"slot":     slot,
			"color":    models.RouteColor(slot),
			"polyline": rt.Polyline(),
			"points":   rt.Len(),
		}, api.Clock))
		return
	}

	fc := rt.FeatureCollection(map[string]interface{}{
		"slot":  slot,
		"color": models.RouteColor(slot),
		"name":  s.FileNames[slot-1],
	})
	data, err := fc.MarshalJSON()
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(data)
}

func (api *RestAPI) nearbyPointsHandler(w http.ResponseWriter, r *http.Request) {
	fieldErrors := map[string][]string{}
	lat, err := utils.ParseFloatParam(r, "lat")
	if err != nil {
		fieldErrors["lat"] = []string{err.Error()}
	}
	lon, err := utils.ParseFloatParam(r, "lon")
	if err != nil {
		fieldErrors["lon"] = []string{err.Error()}
	}
	radius := defaultNearbyRadius
	if r.URL.Query().Get("radius") != "" {
		radius, err = utils.ParseFloatParam(r, "radius")
		if err != nil {
			fieldErrors["radius"] = []string{err.Error()}
		} else if radius < 0 || radius > 10000 {
			fieldErrors["radius"] = []string{"radius must be between 0 and 10000"}
		}
	}
	if len(fieldErrors) == 0 {
		for k, v := range utils.ValidateCoordinate(lat, lon) {
			fieldErrors[k] = v
		}
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	s, slot, ok := api.loadedRoute(w, r)
	if !ok {
		return
	}
	rt := s.Route(slot)
	center := route.GeoPoint{Lat: lat, Lon: lon}

	hits := s.Indexes[slot-1].WithinRadius(center, radius)
	list := make([]models.NearbyPoint, 0, len(hits))
	for _, i := range hits {
		list = append(list, models.NearbyPoint{
			Index:     i,
			Point:     rt.Point(i),
			Progress:  rt.Progress(i),
			DistanceM: route.Haversine(center, rt.Point(i)),
		})
	}
	api.sendResponse(w, r, models.NewListResponse(list, api.Clock))
}
