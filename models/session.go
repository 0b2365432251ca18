package models

import "time"

// Location is an anchor point registered for a session.
type Location struct {
	Address   string  `json:"address"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Session is a time window owned by an admin and anchored to one or more locations.
type Session struct {
	ID        int64      `json:"id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	AdminID   int64      `json:"admin_id"`
	Locations []Location `json:"locations"`
}

type LocationInput struct {
	Address   string   `json:"address" binding:"max=100"`
	Longitude *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
	Latitude  *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
}

// Location converts a validated request location.
func (in LocationInput) Location() Location {
	return Location{Address: in.Address, Longitude: *in.Longitude, Latitude: *in.Latitude}
}

type CreateSessionRequest struct {
	StartTime string          `json:"start_time" binding:"required"`
	EndTime   string          `json:"end_time" binding:"required"`
	Locations []LocationInput `json:"locations" binding:"dive"`
}

type AddLocationsRequest struct {
	Locations []LocationInput `json:"locations" binding:"required,min=1,dive"`
}

type SessionAttendee struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type SessionAttendeesResponse struct {
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	Locations []Location        `json:"locations"`
	Attendees []SessionAttendee `json:"attendees"`
}
