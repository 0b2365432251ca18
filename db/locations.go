package db

import (
	"context"
	"fmt"
	"time"

	"attendance_backend/models"
)

// InsertSample stores a location sample. Samples are never updated.
func InsertSample(ctx context.Context, q Querier, s models.LocationSample) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO attendee_locations (attendee_id, recorded_at, longitude, latitude)
		VALUES ($1, $2, $3, $4)
	`, s.AttendeeID, toMillis(s.Timestamp), s.Longitude, s.Latitude)
	if err != nil {
		return fmt.Errorf("error storing location: %w", err)
	}
	return nil
}

// SamplesFor returns an attendee's samples recorded within [from, to], oldest first.
func SamplesFor(ctx context.Context, q Querier, attendeeID int64, from, to time.Time) ([]models.LocationSample, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT recorded_at, longitude, latitude
		FROM attendee_locations
		WHERE attendee_id = $1 AND recorded_at >= $2 AND recorded_at <= $3
		ORDER BY recorded_at
	`, attendeeID, toMillis(from), toMillis(to))
	if err != nil {
		return nil, fmt.Errorf("error fetching locations: %w", err)
	}
	defer rows.Close()

	samples := make([]models.LocationSample, 0)
	for rows.Next() {
		s := models.LocationSample{AttendeeID: attendeeID}
		var recorded int64
		if err := rows.Scan(&recorded, &s.Longitude, &s.Latitude); err != nil {
			return nil, fmt.Errorf("error scanning location: %w", err)
		}
		s.Timestamp = fromMillis(recorded)
		samples = append(samples, s)
	}
	return samples, rows.Err()
}
