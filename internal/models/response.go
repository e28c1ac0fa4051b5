package models

import (
	"gpxracer.app/internal/clock"
)

// ResponseModel is the envelope every JSON API response is wrapped in.
type ResponseModel struct {
	Code        int         `json:"code"`
	CurrentTime int64       `json:"currentTime"`
	Data        interface{} `json:"data,omitempty"`
	Text        string      `json:"text"`
	Version     int         `json:"version"`
}

// ResponseCurrentTime returns the envelope timestamp in Unix milliseconds.
func ResponseCurrentTime(c clock.Clock) int64 {
	return c.NowUnixMilli()
}

func NewOKResponse(data interface{}, c clock.Clock) ResponseModel {
	return NewResponse(200, data, "OK", c)
}

func NewResponse(code int, data interface{}, text string, c clock.Clock) ResponseModel {
	return ResponseModel{
		Code:        code,
		CurrentTime: ResponseCurrentTime(c),
		Data:        data,
		Text:        text,
		Version:     2,
	}
}

// NewEntryResponse wraps a single object as data.entry.
func NewEntryResponse(entry interface{}, c clock.Clock) ResponseModel {
	return NewOKResponse(map[string]interface{}{"entry": entry}, c)
}

// NewListResponse wraps a list as data.list.
func NewListResponse(list interface{}, c clock.Clock) ResponseModel {
	return NewOKResponse(map[string]interface{}{"list": list}, c)
}

// FieldErrorsData is the data payload of a 400 validation response.
type FieldErrorsData struct {
	FieldErrors map[string][]string `json:"fieldErrors"`
}
