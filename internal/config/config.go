package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/richard-senior/matchboard/internal/logger"
	"github.com/richard-senior/matchboard/pkg/league"
)

// Config holds every tunable of the application.
// Magic numbers live here rather than at their point of use.
type Config struct {
	// === FEED CREDENTIALS ===
	OutletKey string // SDAPI_OUTLET_KEY
	SecretKey string // SDAPI_SECRET_KEY

	// === FEED ENDPOINTS ===
	BaseURL              string // feed host (default: https://api.performfeeds.com)
	OAuthURL             string // token endpoint (default: https://oauth.performgroup.com/oauth/token)
	TournamentCalendarID string // competition season to download
	CompetitionName      string // display name for reports

	// === HTTP BEHAVIOUR ===
	Timeout      time.Duration // per request timeout (default: 25s)
	MaxRetries   int           // attempts per request (default: 3)
	Backoff      time.Duration // first retry delay, doubled per attempt (default: 1.5s)
	MaxBackoff   time.Duration // retry delay cap (default: 60s)
	RequestPause time.Duration // pause between match downloads (default: 500ms)

	// === LOCAL DATA ===
	DataDir  string // base directory for everything below
	CacheDir string // raw per-match JSON files
	DBPath   string // sqlite database
	LogPath  string // log file used when logging to file

	// === REFRESH POLICY ===
	MaxAge            time.Duration // data older than this is refreshed (default: 24h)
	SchedulerInterval time.Duration // how often the scheduler checks MaxAge (default: 1h)
	OnlyPlayed        bool          // skip fixtures dated after today (default: true)
	Incremental       bool          // skip matches already stored (default: true)

	// === TABLE RULES ===
	Points league.PointsRule // points per win/draw/loss (default: 3/1/0)

	// === DASHBOARD ===
	HTTPPort       int
	AllowedOrigins []string

	Debug bool
}

// DefaultConfig returns the configuration with all standard values
func DefaultConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		BaseURL:              "https://api.performfeeds.com",
		OAuthURL:             "https://oauth.performgroup.com/oauth/token",
		TournamentCalendarID: "dko0hzifl1xv9c51s3ai017v8",
		CompetitionName:      "Segunda División",

		Timeout:      25 * time.Second,
		MaxRetries:   3,
		Backoff:      1500 * time.Millisecond,
		MaxBackoff:   60 * time.Second,
		RequestPause: 500 * time.Millisecond,

		DataDir:  dataDir,
		CacheDir: filepath.Join(dataDir, "match_cache"),
		DBPath:   filepath.Join(dataDir, "matchboard.db"),
		LogPath:  filepath.Join(os.TempDir(), "matchboard.log"),

		MaxAge:            24 * time.Hour,
		SchedulerInterval: time.Hour,
		OnlyPlayed:        true,
		Incremental:       true,

		Points: league.StandardPoints,

		HTTPPort:       8090,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:8090"},
	}
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".matchboard")
	}
	return ".matchboard"
}

// Load reads .env files (missing files are not an error), then overlays
// environment variables on the defaults and validates the result
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		logger.Warn("No .env file loaded:", err)
	}

	c := DefaultConfig()
	c.OutletKey = getEnv("SDAPI_OUTLET_KEY", c.OutletKey)
	c.SecretKey = getEnv("SDAPI_SECRET_KEY", c.SecretKey)
	c.BaseURL = getEnv("MATCHBOARD_BASE_URL", c.BaseURL)
	c.OAuthURL = getEnv("MATCHBOARD_OAUTH_URL", c.OAuthURL)
	c.TournamentCalendarID = getEnv("MATCHBOARD_TMCL_ID", c.TournamentCalendarID)
	c.CompetitionName = getEnv("MATCHBOARD_COMPETITION", c.CompetitionName)

	c.Timeout = getEnvDuration("MATCHBOARD_TIMEOUT", c.Timeout)
	c.MaxRetries = getEnvInt("MATCHBOARD_MAX_RETRIES", c.MaxRetries)
	c.Backoff = getEnvDuration("MATCHBOARD_BACKOFF", c.Backoff)
	c.MaxBackoff = getEnvDuration("MATCHBOARD_MAX_BACKOFF", c.MaxBackoff)
	c.RequestPause = getEnvDuration("MATCHBOARD_REQUEST_PAUSE", c.RequestPause)

	if dir := os.Getenv("MATCHBOARD_DATA_DIR"); dir != "" {
		c.DataDir = dir
		c.CacheDir = filepath.Join(dir, "match_cache")
		c.DBPath = filepath.Join(dir, "matchboard.db")
	}
	c.CacheDir = getEnv("MATCHBOARD_CACHE_DIR", c.CacheDir)
	c.DBPath = getEnv("MATCHBOARD_DB_PATH", c.DBPath)
	c.LogPath = getEnv("MATCHBOARD_LOG_PATH", c.LogPath)

	c.MaxAge = getEnvDuration("MATCHBOARD_MAX_AGE", c.MaxAge)
	c.SchedulerInterval = getEnvDuration("MATCHBOARD_SCHEDULER_INTERVAL", c.SchedulerInterval)
	c.OnlyPlayed = getEnvBool("MATCHBOARD_ONLY_PLAYED", c.OnlyPlayed)
	c.Incremental = getEnvBool("MATCHBOARD_INCREMENTAL", c.Incremental)

	c.Points.Win = getEnvInt("MATCHBOARD_POINTS_WIN", c.Points.Win)
	c.Points.Draw = getEnvInt("MATCHBOARD_POINTS_DRAW", c.Points.Draw)
	c.Points.Loss = getEnvInt("MATCHBOARD_POINTS_LOSS", c.Points.Loss)

	c.HTTPPort = getEnvInt("MATCHBOARD_PORT", c.HTTPPort)
	if origins := os.Getenv("MATCHBOARD_ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = splitList(origins)
	}
	c.Debug = getEnvBool("MATCHBOARD_DEBUG", c.Debug)

	if err := ValidateConfig(c); err != nil {
		return nil, err
	}
	return c, nil
}

// ErrMissingCredentials is returned when the feed is needed but no keys are configured
var ErrMissingCredentials = errors.New("SDAPI_OUTLET_KEY and SDAPI_SECRET_KEY must be set")

// RequireCredentials checks the feed keys, which only downloading needs
func (c *Config) RequireCredentials() error {
	if c.OutletKey == "" || c.SecretKey == "" {
		return ErrMissingCredentials
	}
	if c.TournamentCalendarID == "" {
		return fmt.Errorf("tournament calendar id must be set")
	}
	return nil
}

// ValidateConfig ensures all configuration values are within reasonable ranges
func ValidateConfig(c *Config) error {
	if c.Timeout <= 0 {
		return fmt.Errorf("Timeout must be positive, got: %s", c.Timeout)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("MaxRetries must be at least 1, got: %d", c.MaxRetries)
	}
	if c.Backoff < 0 || c.MaxBackoff < c.Backoff {
		return fmt.Errorf("Backoff must be between 0 and MaxBackoff (%s), got: %s", c.MaxBackoff, c.Backoff)
	}
	if c.MaxAge <= 0 {
		return fmt.Errorf("MaxAge must be positive, got: %s", c.MaxAge)
	}
	if c.SchedulerInterval <= 0 {
		return fmt.Errorf("SchedulerInterval must be positive, got: %s", c.SchedulerInterval)
	}
	if c.Points.Win <= 0 || c.Points.Draw < c.Points.Loss || c.Points.Win < c.Points.Draw {
		return fmt.Errorf("Points must satisfy win > 0 and win >= draw >= loss, got: %d/%d/%d",
			c.Points.Win, c.Points.Draw, c.Points.Loss)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTPPort must be a valid port, got: %d", c.HTTPPort)
	}
	if c.CacheDir == "" || c.DBPath == "" {
		return fmt.Errorf("CacheDir and DBPath must be set")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		logger.Warn("Ignoring non integer value for", key)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
		logger.Warn("Ignoring non boolean value for", key)
	}
	return defaultValue
}

// getEnvDuration accepts Go durations (90s, 1h30m) or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	logger.Warn("Ignoring invalid duration for", key)
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
