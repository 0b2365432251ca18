package attendance

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"attendance_backend/models"
)

var day = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func sample(ts time.Time, lat, lon float64) models.LocationSample {
	return models.LocationSample{AttendeeID: 7, Timestamp: ts, Latitude: lat, Longitude: lon}
}

func session(id int64, start, end time.Time, anchors ...models.Location) models.Session {
	return models.Session{ID: id, StartTime: start, EndTime: end, AdminID: 1, Locations: anchors}
}

func anchor(lat, lon float64) models.Location {
	return models.Location{Address: "hall", Latitude: lat, Longitude: lon}
}

func TestEvaluateScenarios(t *testing.T) {
	lecture := session(1, at(10, 0), at(11, 0), anchor(12.0, 77.0))

	tests := []struct {
		name    string
		samples []models.LocationSample
		want    map[int64]bool
	}{
		{
			name: "two of three hits is below threshold",
			samples: []models.LocationSample{
				sample(at(10, 5), 12.00005, 77.00005),
				sample(at(10, 30), 12.01, 77.01),
				sample(at(10, 45), 12.00002, 77.00003),
			},
			want: map[int64]bool{1: false},
		},
		{
			name: "all hits",
			samples: []models.LocationSample{
				sample(at(10, 5), 12.00005, 77.00005),
				sample(at(10, 30), 12.00001, 77.00001),
				sample(at(10, 45), 12.00002, 77.00003),
			},
			want: map[int64]bool{1: true},
		},
		{
			name: "four hits one miss is exactly the threshold",
			samples: []models.LocationSample{
				sample(at(10, 0), 12.0, 77.0),
				sample(at(10, 10), 12.0, 77.0),
				sample(at(10, 20), 12.0, 77.0),
				sample(at(10, 30), 12.0, 77.0),
				sample(at(10, 40), 13.0, 78.0),
			},
			want: map[int64]bool{1: true},
		},
		{
			name: "three hits two misses",
			samples: []models.LocationSample{
				sample(at(10, 0), 12.0, 77.0),
				sample(at(10, 10), 12.0, 77.0),
				sample(at(10, 20), 12.0, 77.0),
				sample(at(10, 30), 13.0, 78.0),
				sample(at(10, 40), 13.0, 78.0),
			},
			want: map[int64]bool{1: false},
		},
		{
			name:    "only sample outside the window",
			samples: []models.LocationSample{sample(at(9, 0), 12.0, 77.0)},
			want:    map[int64]bool{},
		},
		{
			name: "outside samples are not counted",
			samples: []models.LocationSample{
				sample(at(9, 0), 13.0, 78.0),
				sample(at(11, 1), 13.0, 78.0),
				sample(at(10, 30), 12.0, 77.0),
			},
			want: map[int64]bool{1: true},
		},
		{
			name: "window bounds are inclusive",
			samples: []models.LocationSample{
				sample(at(10, 0), 12.0, 77.0),
				sample(at(11, 0), 12.0, 77.0),
			},
			want: map[int64]bool{1: true},
		},
		{
			name:    "no samples",
			samples: nil,
			want:    map[int64]bool{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.samples, []models.Session{lecture})
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("verdicts = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateNoSessions(t *testing.T) {
	got, err := Evaluate([]models.LocationSample{sample(at(10, 0), 12, 77)}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty verdicts, got %v", got)
	}
}

func TestEvaluateOverlappingSessionsScoredIndependently(t *testing.T) {
	sessions := []models.Session{
		session(1, at(10, 0), at(11, 0), anchor(12.0, 77.0)),
		session(2, at(10, 30), at(12, 0), anchor(40.0, -3.0)),
	}
	samples := []models.LocationSample{
		sample(at(10, 45), 12.0, 77.0),
	}

	tallies, err := Default.Tally(samples, sessions)
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if got, want := tallies[1], (Tally{Hits: 1, Total: 1}); got != want {
		t.Fatalf("session 1 tally = %+v, want %+v", got, want)
	}
	if got, want := tallies[2], (Tally{Hits: 0, Total: 1}); got != want {
		t.Fatalf("session 2 tally = %+v, want %+v", got, want)
	}

	verdicts, err := Default.Evaluate(samples, sessions)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !reflect.DeepEqual(verdicts, map[int64]bool{1: true, 2: false}) {
		t.Fatalf("verdicts = %v", verdicts)
	}
}

func TestEvaluateAnyAnchorCountsAsHit(t *testing.T) {
	// The miss against the first anchor must not outweigh the hit on the second.
	multi := session(3, at(10, 0), at(11, 0), anchor(50.0, 8.0), anchor(12.0, 77.0))
	samples := []models.LocationSample{
		sample(at(10, 10), 12.0, 77.0),
		sample(at(10, 20), 12.00003, 77.00003),
	}

	tallies, err := Default.Tally(samples, []models.Session{multi})
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if got, want := tallies[3], (Tally{Hits: 2, Total: 2}); got != want {
		t.Fatalf("tally = %+v, want %+v (one contribution per sample)", got, want)
	}

	// Same result whichever order the anchors come in.
	multi.Locations = []models.Location{anchor(12.0, 77.0), anchor(50.0, 8.0)}
	tallies, err = Default.Tally(samples, []models.Session{multi})
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if got, want := tallies[3], (Tally{Hits: 2, Total: 2}); got != want {
		t.Fatalf("reordered tally = %+v, want %+v", got, want)
	}
}

func TestEvaluateMissingAnchor(t *testing.T) {
	sessions := []models.Session{
		session(1, at(10, 0), at(11, 0), anchor(12.0, 77.0)),
		session(9, at(13, 0), at(14, 0)),
	}
	_, err := Evaluate(nil, sessions)
	if !errors.Is(err, ErrNoAnchor) {
		t.Fatalf("error = %v, want %v", err, ErrNoAnchor)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	sessions := []models.Session{
		session(1, at(10, 0), at(11, 0), anchor(12.0, 77.0)),
		session(2, at(10, 30), at(12, 0), anchor(12.0, 77.0)),
	}
	samples := []models.LocationSample{
		sample(at(10, 5), 12.00005, 77.00005),
		sample(at(10, 40), 12.01, 77.01),
		sample(at(11, 30), 12.0, 77.0),
	}

	first, err := Evaluate(samples, sessions)
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	second, err := Evaluate(samples, sessions)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("evaluations differ: %v vs %v", first, second)
	}
}

func TestReport(t *testing.T) {
	sessions := []models.Session{
		session(2, at(10, 0), at(11, 0), anchor(12.0, 77.0)),
		session(1, at(10, 0), at(11, 0), anchor(13.0, 78.0)),
	}
	samples := []models.LocationSample{sample(at(10, 30), 12.0, 77.0)}

	reports, err := Default.Report(samples, sessions)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	want := []models.AttendanceReport{
		{SessionID: 1, Hits: 0, Samples: 1, Ratio: 0, Attended: false},
		{SessionID: 2, Hits: 1, Samples: 1, Ratio: 1, Attended: true},
	}
	if !reflect.DeepEqual(reports, want) {
		t.Fatalf("reports = %+v, want %+v", reports, want)
	}
}

func TestSpan(t *testing.T) {
	if _, _, ok := Span(nil); ok {
		t.Fatal("expected no span for empty sessions")
	}
	from, to, ok := Span([]models.Session{
		session(1, at(10, 0), at(11, 0)),
		session(2, at(8, 0), at(9, 0)),
		session(3, at(10, 30), at(12, 0)),
	})
	if !ok {
		t.Fatal("expected span")
	}
	if !from.Equal(at(8, 0)) || !to.Equal(at(12, 0)) {
		t.Fatalf("span = [%v, %v]", from, to)
	}
}
