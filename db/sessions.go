package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"attendance_backend/models"
)

const sessionColumns = `s.id, s.start_time, s.end_time, s.admin_id`

// CreateSession inserts a session and returns its id. The caller must have
// checked start < end; the table also enforces it.
func CreateSession(ctx context.Context, q Querier, adminID int64, start, end time.Time) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO sessions (start_time, end_time, admin_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, toMillis(start), toMillis(end), adminID, toMillis(time.Now())).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error creating session: %w", err)
	}
	return id, nil
}

// AddLocations appends anchor locations to a session.
func AddLocations(ctx context.Context, q Querier, sessionID int64, locs []models.Location) error {
	for _, loc := range locs {
		_, err := q.ExecContext(ctx, `
			INSERT INTO session_locations (session_id, address, longitude, latitude)
			VALUES ($1, $2, $3, $4)
		`, sessionID, loc.Address, loc.Longitude, loc.Latitude)
		if err != nil {
			return fmt.Errorf("error adding session location: %w", err)
		}
	}
	return nil
}

// GetSession loads one session with its anchors.
func GetSession(ctx context.Context, q Querier, id int64) (*models.Session, error) {
	var s models.Session
	var start, end int64
	err := q.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions s WHERE s.id = $1
	`, id).Scan(&s.ID, &start, &end, &s.AdminID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching session: %w", err)
	}
	s.StartTime, s.EndTime = fromMillis(start), fromMillis(end)

	sessions := []models.Session{s}
	if err := loadLocations(ctx, q, sessions); err != nil {
		return nil, err
	}
	return &sessions[0], nil
}

// SessionsCreatedBy lists sessions owned by an admin, newest first.
func SessionsCreatedBy(ctx context.Context, q Querier, adminID int64) ([]models.Session, error) {
	return querySessions(ctx, q, `
		SELECT `+sessionColumns+`
		FROM sessions s
		WHERE s.admin_id = $1
		ORDER BY s.start_time DESC
	`, adminID)
}

// SessionsJoinedBy lists sessions an attendee joined, newest first.
func SessionsJoinedBy(ctx context.Context, q Querier, attendeeID int64) ([]models.Session, error) {
	return querySessions(ctx, q, `
		SELECT `+sessionColumns+`
		FROM sessions s
		JOIN attended_by ab ON ab.session_id = s.id
		WHERE ab.attendee_id = $1
		ORDER BY s.start_time DESC
	`, attendeeID)
}

// ActiveSessions lists sessions running at now. When excludeAttendee is
// non-zero, sessions that attendee already joined are left out.
func ActiveSessions(ctx context.Context, q Querier, now time.Time, excludeAttendee int64) ([]models.Session, error) {
	return querySessions(ctx, q, `
		SELECT `+sessionColumns+`
		FROM sessions s
		WHERE s.start_time <= $1 AND s.end_time > $1
		AND s.id NOT IN (SELECT session_id FROM attended_by WHERE attendee_id = $2)
		ORDER BY s.start_time DESC
	`, toMillis(now), excludeAttendee)
}

// EndedSessionsForStudent lists sessions administered by adminID that
// studentID joined and that ended at or before now.
func EndedSessionsForStudent(ctx context.Context, q Querier, adminID, studentID int64, now time.Time) ([]models.Session, error) {
	return querySessions(ctx, q, `
		SELECT `+sessionColumns+`
		FROM sessions s
		JOIN attended_by ab ON ab.session_id = s.id
		WHERE s.admin_id = $1 AND ab.attendee_id = $2 AND s.end_time <= $3
		ORDER BY s.start_time
	`, adminID, studentID, toMillis(now))
}

// EndedSessionsJoinedBy lists sessions the attendee joined that ended at or before now.
func EndedSessionsJoinedBy(ctx context.Context, q Querier, attendeeID int64, now time.Time) ([]models.Session, error) {
	return querySessions(ctx, q, `
		SELECT `+sessionColumns+`
		FROM sessions s
		JOIN attended_by ab ON ab.session_id = s.id
		WHERE ab.attendee_id = $1 AND s.end_time <= $2
		ORDER BY s.start_time
	`, attendeeID, toMillis(now))
}

// HasJoined reports whether the attendee joined the session.
func HasJoined(ctx context.Context, q Querier, attendeeID, sessionID int64) (bool, error) {
	var joined bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM attended_by WHERE attendee_id = $1 AND session_id = $2)
	`, attendeeID, sessionID).Scan(&joined)
	if err != nil {
		return false, fmt.Errorf("error checking session membership: %w", err)
	}
	return joined, nil
}

// JoinSession records membership; ErrAlreadyJoined on a repeat.
func JoinSession(ctx context.Context, q Querier, attendeeID, sessionID int64, at time.Time) error {
	joined, err := HasJoined(ctx, q, attendeeID, sessionID)
	if err != nil {
		return err
	}
	if joined {
		return ErrAlreadyJoined
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO attended_by (attendee_id, session_id, joined_at) VALUES ($1, $2, $3)
	`, attendeeID, sessionID, toMillis(at))
	if err != nil {
		return fmt.Errorf("error joining session: %w", err)
	}
	return nil
}

// SessionAttendees lists the attendees who joined a session.
func SessionAttendees(ctx context.Context, q Querier, sessionID int64) ([]models.SessionAttendee, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT a.id, a.email, a.first_name, a.last_name
		FROM attendees a
		JOIN attended_by ab ON ab.attendee_id = a.id
		WHERE ab.session_id = $1
		ORDER BY ab.joined_at
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error fetching session attendees: %w", err)
	}
	defer rows.Close()

	attendees := make([]models.SessionAttendee, 0)
	for rows.Next() {
		var a models.SessionAttendee
		if err := rows.Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName); err != nil {
			return nil, fmt.Errorf("error scanning attendee: %w", err)
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

func querySessions(ctx context.Context, q Querier, query string, args ...any) ([]models.Session, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error fetching sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		var s models.Session
		var start, end int64
		if err := rows.Scan(&s.ID, &start, &end, &s.AdminID); err != nil {
			return nil, fmt.Errorf("error scanning session: %w", err)
		}
		s.StartTime, s.EndTime = fromMillis(start), fromMillis(end)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error fetching sessions: %w", err)
	}
	rows.Close()

	if err := loadLocations(ctx, q, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// loadLocations fills in anchors for sessions in place.
func loadLocations(ctx context.Context, q Querier, sessions []models.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	index := make(map[int64]int, len(sessions))
	placeholders := make([]string, len(sessions))
	args := make([]any, len(sessions))
	for i, s := range sessions {
		index[s.ID] = i
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args[i] = s.ID
		sessions[i].Locations = make([]models.Location, 0, 1)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT session_id, address, longitude, latitude
		FROM session_locations
		WHERE session_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY id
	`, args...)
	if err != nil {
		return fmt.Errorf("error fetching session locations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sessionID int64
		var loc models.Location
		if err := rows.Scan(&sessionID, &loc.Address, &loc.Longitude, &loc.Latitude); err != nil {
			return fmt.Errorf("error scanning session location: %w", err)
		}
		i, ok := index[sessionID]
		if !ok {
			continue
		}
		sessions[i].Locations = append(sessions[i].Locations, loc)
	}
	return rows.Err()
}
