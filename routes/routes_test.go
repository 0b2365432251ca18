package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"attendance_backend/attendance"
	"attendance_backend/config"
	"attendance_backend/db"

	"github.com/gin-gonic/gin"
)

func TestEvaluatorSelectsMatcher(t *testing.T) {
	cfg := &config.Config{MatchDeltaDegrees: 0.0002, AttendanceThreshold: 0.5}
	e := Evaluator(cfg)
	if box, ok := e.Matcher.(attendance.DegreeBox); !ok || box.Delta != 0.0002 {
		t.Fatalf("matcher = %#v, want DegreeBox 0.0002", e.Matcher)
	}
	if e.Threshold != 0.5 {
		t.Fatalf("threshold = %v", e.Threshold)
	}

	cfg.MatchRadiusMeters = 15
	if h, ok := Evaluator(cfg).Matcher.(attendance.Haversine); !ok || h.Meters != 15 {
		t.Fatalf("matcher = %#v, want Haversine 15", Evaluator(cfg).Matcher)
	}
}

func TestSetupRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		DBDriver:            config.DriverSQLite,
		SQLitePath:          filepath.Join(t.TempDir(), "attendance.db"),
		JWTSecret:           "secret",
		MatchDeltaDegrees:   attendance.DefaultDelta,
		JoinDeltaDegrees:    0.001,
		AttendanceThreshold: attendance.DefaultThreshold,
	}
	database, err := db.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	r := gin.New()
	SetupRoutes(r, database, cfg)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/sessions/active", http.StatusUnauthorized},
		{http.MethodPost, "/sessions/1/join", http.StatusUnauthorized},
		{http.MethodGet, "/attendance", http.StatusUnauthorized},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Fatalf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}
