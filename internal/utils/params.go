package utils

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ExtractIDFromParams returns the {id} path value of the request.
func ExtractIDFromParams(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("id"))
}

// ValidateID checks that id is a well formed session identifier.
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id is required")
	}
	if len(id) > 64 {
		return errors.New("id is too long")
	}
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("id is not a valid session id")
	}
	return nil
}

// ParseSlot parses a route slot number. Only slots 1 and 2 exist.
func ParseSlot(raw string) (int, error) {
	slot, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("slot must be 1 or 2, got %q", raw)
	}
	if slot != 1 && slot != 2 {
		return 0, fmt.Errorf("slot must be 1 or 2, got %d", slot)
	}
	return slot, nil
}

// ParseFloatParam reads a required, finite float query parameter.
func ParseFloatParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%s must be finite", name)
	}
	return value, nil
}

// ValidateCoordinate checks latitude and longitude ranges.
func ValidateCoordinate(lat, lon float64) map[string][]string {
	fieldErrors := map[string][]string{}
	if lat < -90 || lat > 90 {
		fieldErrors["lat"] = []string{"lat must be between -90 and 90"}
	}
	if lon < -180 || lon > 180 {
		fieldErrors["lon"] = []string{"lon must be between -180 and 180"}
	}
	if len(fieldErrors) == 0 {
		return nil
	}
	return fieldErrors
}
