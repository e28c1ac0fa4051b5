// Package gpxfile turns GPX documents into ordered point sequences for the
// route model.
package gpxfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/tkrajina/gpxgo/gpx"
	"gpxracer.app/internal/route"
)

var (
	// ErrParse wraps every failure to read or decode a GPX document.
	ErrParse = errors.New("could not parse GPX")
	// ErrTooLarge is returned when the document exceeds the read limit.
	ErrTooLarge = errors.New("GPX document too large")
)

// Parse decodes GPX text and returns all track segment points followed by
// all route points, in file order. Consecutive duplicates are kept.
func Parse(data []byte) ([]route.GeoPoint, error) {
	data = bytes.ToValidUTF8(data, nil)

	doc, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	return collectPoints(doc), nil
}

// ParseReader reads at most limit bytes from r and parses them. A limit of
// zero or less disables the check.
func ParseReader(r io.Reader, limit int64) ([]route.GeoPoint, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read input: %w", ErrParse, err)
	}

	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, limit)
	}

	return Parse(data)
}

func collectPoints(doc *gpx.GPX) []route.GeoPoint {
	var points []route.GeoPoint

	for _, track := range doc.Tracks {
		for _, segment := range track.Segments {
			for _, point := range segment.Points {
				points = append(points, route.GeoPoint{Lat: point.Latitude, Lon: point.Longitude})
			}
		}
	}

	for _, rte := range doc.Routes {
		for _, point := range rte.Points {
			points = append(points, route.GeoPoint{Lat: point.Latitude, Lon: point.Longitude})
		}
	}

	return points
}
