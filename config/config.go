package config

import (
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	ServerPort  string `env:"PORT" envDefault:"8080"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      int    `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER" envDefault:"postgres"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME" envDefault:"attendance"`
	DBSSLMode   string `env:"DB_SSLMODE" envDefault:"disable"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"attendance.db"`

	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"336h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"8760h"`

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	Timezone       string   `env:"SESSION_TIMEZONE" envDefault:"UTC"`

	MatchDeltaDegrees   float64 `env:"MATCH_DELTA_DEGREES" envDefault:"0.0001"`
	MatchRadiusMeters   float64 `env:"MATCH_RADIUS_METERS" envDefault:"0"`
	JoinDeltaDegrees    float64 `env:"JOIN_DELTA_DEGREES" envDefault:"0.001"`
	AttendanceThreshold float64 `env:"ATTENDANCE_THRESHOLD" envDefault:"0.8"`

	SeedAdminEmail    string `env:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD"`

	location *time.Location
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.AttendanceThreshold <= 0 || c.AttendanceThreshold > 1 {
		return fmt.Errorf("config: ATTENDANCE_THRESHOLD must be in (0, 1], got %v", c.AttendanceThreshold)
	}
	if c.MatchDeltaDegrees <= 0 || c.JoinDeltaDegrees <= 0 {
		return fmt.Errorf("config: match deltas must be positive")
	}
	if c.MatchRadiusMeters < 0 {
		return fmt.Errorf("config: MATCH_RADIUS_METERS must not be negative")
	}
	if (c.SeedAdminEmail == "") != (c.SeedAdminPassword == "") {
		return fmt.Errorf("config: SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be set together")
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("config: SESSION_TIMEZONE: %w", err)
	}
	c.location = loc
	return nil
}

// SessionLocation is the zone used to read session start and end times.
func (c *Config) SessionLocation() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == DriverSQLite {
		return c.SQLitePath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}
