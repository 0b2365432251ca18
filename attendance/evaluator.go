// Package attendance decides whether an attendee's location trail places them
// at a session's anchor for enough of the session to count as present.
//
// Evaluation is pure: callers fetch sessions and samples, the evaluator only
// reads them. Results are never cached since new samples can arrive at any time.
package attendance

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"attendance_backend/models"
)

// DefaultThreshold is the minimum share of in-window samples that must match.
const DefaultThreshold = 0.8

// ErrNoAnchor is returned for a candidate session without any anchor location.
var ErrNoAnchor = errors.New("session has no anchor location")

// Tally counts the in-window samples of one session.
type Tally struct {
	Hits  int
	Total int
}

// Ratio is hits over in-window samples; zero when nothing was counted.
func (t Tally) Ratio() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Hits) / float64(t.Total)
}

// Evaluator scores samples against sessions.
type Evaluator struct {
	Matcher   Matcher
	Threshold float64
}

// Default uses a 0.0001 degree box and the 80% rule.
var Default = Evaluator{Matcher: DegreeBox{Delta: DefaultDelta}, Threshold: DefaultThreshold}

// Evaluate runs the default evaluator.
func Evaluate(samples []models.LocationSample, sessions []models.Session) (map[int64]bool, error) {
	return Default.Evaluate(samples, sessions)
}

// Tally accumulates hits and totals per session. Each sample contributes at
// most once to each session whose window contains it: a hit when any of the
// session's anchors matches, a miss otherwise. Sessions with no in-window
// samples are absent from the result.
func (e Evaluator) Tally(samples []models.LocationSample, sessions []models.Session) (map[int64]Tally, error) {
	for _, s := range sessions {
		if len(s.Locations) == 0 {
			return nil, fmt.Errorf("session %d: %w", s.ID, ErrNoAnchor)
		}
	}

	tallies := make(map[int64]Tally)
	for _, sample := range samples {
		for _, s := range sessions {
			if !inWindow(sample, s) {
				continue
			}
			t := tallies[s.ID]
			t.Total++
			if e.matchesAny(sample, s.Locations) {
				t.Hits++
			}
			tallies[s.ID] = t
		}
	}
	return tallies, nil
}

// Evaluate returns attended verdicts keyed by session id. A session missing
// from the map had no samples inside its window, which is not the same as false.
func (e Evaluator) Evaluate(samples []models.LocationSample, sessions []models.Session) (map[int64]bool, error) {
	tallies, err := e.Tally(samples, sessions)
	if err != nil {
		return nil, err
	}
	verdicts := make(map[int64]bool, len(tallies))
	for id, t := range tallies {
		verdicts[id] = e.attended(t)
	}
	return verdicts, nil
}

// Report is Evaluate with the per-session counts, ordered by session id.
func (e Evaluator) Report(samples []models.LocationSample, sessions []models.Session) ([]models.AttendanceReport, error) {
	tallies, err := e.Tally(samples, sessions)
	if err != nil {
		return nil, err
	}
	reports := make([]models.AttendanceReport, 0, len(tallies))
	for id, t := range tallies {
		reports = append(reports, models.AttendanceReport{
			SessionID: id,
			Hits:      t.Hits,
			Samples:   t.Total,
			Ratio:     t.Ratio(),
			Attended:  e.attended(t),
		})
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].SessionID < reports[j].SessionID })
	return reports, nil
}

func (e Evaluator) attended(t Tally) bool {
	return t.Total > 0 && t.Ratio() >= e.Threshold
}

func (e Evaluator) matchesAny(sample models.LocationSample, anchors []models.Location) bool {
	for _, a := range anchors {
		if e.Matcher.Match(sample, a) {
			return true
		}
	}
	return false
}

// inWindow is inclusive at both ends.
func inWindow(sample models.LocationSample, s models.Session) bool {
	return !sample.Timestamp.Before(s.StartTime) && !sample.Timestamp.After(s.EndTime)
}

// Span returns the earliest start and latest end across sessions, used to
// bound the sample query. ok is false for an empty slice.
func Span(sessions []models.Session) (from, to time.Time, ok bool) {
	for i, s := range sessions {
		if i == 0 || s.StartTime.Before(from) {
			from = s.StartTime
		}
		if i == 0 || s.EndTime.After(to) {
			to = s.EndTime
		}
	}
	return from, to, len(sessions) > 0
}
