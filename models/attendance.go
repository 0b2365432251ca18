package models

import "time"

// LocationSample is a timestamped position reported by an attendee's device.
type LocationSample struct {
	AttendeeID int64     `json:"attendee_id"`
	Timestamp  time.Time `json:"timestamp"`
	Longitude  float64   `json:"longitude"`
	Latitude   float64   `json:"latitude"`
}

type PositionRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
}

// AttendanceReport is the per-session breakdown behind a verdict.
type AttendanceReport struct {
	SessionID int64   `json:"session_id"`
	Hits      int     `json:"hits"`
	Samples   int     `json:"samples"`
	Ratio     float64 `json:"ratio"`
	Attended  bool    `json:"attended"`
}
