package config

import (
	"fmt"
	"strings"
	"time"

	"pickem-go/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is only acceptable in development
const DefaultJWTSecret = "your-secret-key-change-in-production"

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Logging   LoggingConfig   `json:"logging"`
	Auth      AuthConfig      `json:"auth"`
	SportsAPI SportsAPIConfig `json:"sports_api"`
	League    LeagueConfig    `json:"league"`
	Scheduler SchedulerConfig `json:"scheduler"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `json:"port"`
	Host            string        `json:"host"`
	BehindProxy     bool          `json:"behind_proxy"`
	Environment     string        `json:"environment"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string        `json:"host"`
	Port         string        `json:"port"`
	Username     string        `json:"username"`
	Password     string        `json:"password"`
	Database     string        `json:"database"`
	Timeout      time.Duration `json:"timeout"`
	Transactions bool          `json:"transactions"`
}

// RedisConfig is optional; an empty URL selects the in-memory fallbacks
type RedisConfig struct {
	URL string `json:"url"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Prefix string `json:"prefix"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret      string        `json:"jwt_secret"`
	TokenTTL       time.Duration `json:"token_ttl"`
	AdminUsernames []string      `json:"admin_usernames"`
}

// SportsAPIConfig holds the api-sports.io client settings
type SportsAPIConfig struct {
	APIKey            string        `json:"api_key"`
	BaseURL           string        `json:"base_url"`
	Timeout           time.Duration `json:"timeout"`
	Retries           int           `json:"retries"`
	RequestsPerMinute int           `json:"requests_per_minute"`
}

// LeagueConfig says which league and date range the app follows
type LeagueConfig struct {
	APIID          int    `json:"api_id"`
	SeasonYear     int    `json:"season_year"`
	SubSeasonStart string `json:"subseason_start"`
	SubSeasonEnd   string `json:"subseason_end"`
	Timezone       string `json:"timezone"`
}

// SchedulerConfig holds the cron specs of the update jobs
type SchedulerConfig struct {
	Enabled         bool   `json:"enabled"`
	ScoreUpdateSpec string `json:"score_update_spec"`
	GameUpdateSpec  string `json:"game_update_spec"`
	LateScoreSpec   string `json:"late_score_spec"`
	RunOnStartup    bool   `json:"run_on_startup"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Don't treat missing .env as an error
		logging.Warnf("Could not load .env file: %v", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	year := time.Now().Year()

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("BEHIND_PROXY", false)
	v.SetDefault("SHUTDOWN_TIMEOUT", 15*time.Second)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "27017")
	v.SetDefault("DB_NAME", "pickem")
	v.SetDefault("DB_TIMEOUT", 10*time.Second)
	v.SetDefault("DB_TRANSACTIONS", false)

	v.SetDefault("REDIS_URL", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_PREFIX", "pickem")

	v.SetDefault("JWT_SECRET", DefaultJWTSecret)
	v.SetDefault("TOKEN_TTL", 30*24*time.Hour)
	v.SetDefault("ADMIN_USERNAMES", "")

	v.SetDefault("SPORTS_IO_API_KEY", "")
	v.SetDefault("SPORTS_IO_BASE_URL", "https://v1.baseball.api-sports.io/")
	v.SetDefault("SPORTS_IO_TIMEOUT", 15*time.Second)
	v.SetDefault("SPORTS_IO_RETRIES", 2)
	v.SetDefault("SPORTS_IO_REQUESTS_PER_MINUTE", 10)

	v.SetDefault("LEAGUE_API_ID", 1)
	v.SetDefault("SEASON_YEAR", year)
	v.SetDefault("TIMEZONE", "America/Los_Angeles")

	v.SetDefault("SCHEDULER_ENABLED", true)
	v.SetDefault("SCORE_UPDATE_SPEC", "@every 20m")
	v.SetDefault("GAME_UPDATE_SPEC", "0 4 * * *")
	v.SetDefault("LATE_SCORE_SPEC", "0 5 * * *")
	return v
}

// FromViper builds and validates a Config from an already populated viper
func FromViper(v *viper.Viper) (*Config, error) {
	environment := v.GetString("ENVIRONMENT")
	isDevelopment := strings.EqualFold(environment, "development")

	season := v.GetInt("SEASON_YEAR")
	v.SetDefault("SUBSEASON_START", fmt.Sprintf("%d-03-28", season))
	v.SetDefault("SUBSEASON_END", fmt.Sprintf("%d-10-01", season))
	v.SetDefault("RUN_ON_STARTUP", !isDevelopment)

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("SERVER_PORT"),
			Host:            v.GetString("SERVER_HOST"),
			BehindProxy:     v.GetBool("BEHIND_PROXY"),
			Environment:     environment,
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			Username:     v.GetString("DB_USERNAME"),
			Password:     v.GetString("DB_PASSWORD"),
			Database:     v.GetString("DB_NAME"),
			Timeout:      v.GetDuration("DB_TIMEOUT"),
			Transactions: v.GetBool("DB_TRANSACTIONS"),
		},
		Redis: RedisConfig{
			URL: v.GetString("REDIS_URL"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			Prefix: v.GetString("LOG_PREFIX"),
		},
		Auth: AuthConfig{
			JWTSecret:      v.GetString("JWT_SECRET"),
			TokenTTL:       v.GetDuration("TOKEN_TTL"),
			AdminUsernames: splitTrimmed(v.GetString("ADMIN_USERNAMES")),
		},
		SportsAPI: SportsAPIConfig{
			APIKey:            v.GetString("SPORTS_IO_API_KEY"),
			BaseURL:           v.GetString("SPORTS_IO_BASE_URL"),
			Timeout:           v.GetDuration("SPORTS_IO_TIMEOUT"),
			Retries:           v.GetInt("SPORTS_IO_RETRIES"),
			RequestsPerMinute: v.GetInt("SPORTS_IO_REQUESTS_PER_MINUTE"),
		},
		League: LeagueConfig{
			APIID:          v.GetInt("LEAGUE_API_ID"),
			SeasonYear:     season,
			SubSeasonStart: v.GetString("SUBSEASON_START"),
			SubSeasonEnd:   v.GetString("SUBSEASON_END"),
			Timezone:       v.GetString("TIMEZONE"),
		},
		Scheduler: SchedulerConfig{
			Enabled:         v.GetBool("SCHEDULER_ENABLED"),
			ScoreUpdateSpec: v.GetString("SCORE_UPDATE_SPEC"),
			GameUpdateSpec:  v.GetString("GAME_UPDATE_SPEC"),
			LateScoreSpec:   v.GetString("LATE_SCORE_SPEC"),
			RunOnStartup:    v.GetBool("RUN_ON_STARTUP"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration for required fields and sensible values
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Auth.JWTSecret == DefaultJWTSecret && !c.IsDevelopment() {
		return fmt.Errorf("JWT secret must be changed in production")
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	start, end, err := c.SubSeasonRange()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("subseason end %s is before its start %s", c.League.SubSeasonEnd, c.League.SubSeasonStart)
	}

	return nil
}

// IsDevelopment reports whether ENVIRONMENT is development
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.Environment, "development")
}

// Location loads the configured timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.League.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.League.Timezone, err)
	}
	return loc, nil
}

// SubSeasonRange parses the subseason bounds in the configured timezone
func (c *Config) SubSeasonRange() (time.Time, time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err := time.ParseInLocation("2006-01-02", c.League.SubSeasonStart, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid SUBSEASON_START: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02", c.League.SubSeasonEnd, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid SUBSEASON_END: %w", err)
	}
	return start, end, nil
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

// LogConfiguration logs the current configuration (without sensitive data)
func (c *Config) LogConfiguration() {
	logging.Info("=== Application Configuration ===")
	logging.Infof("Server: %s (Behind Proxy: %t, Environment: %s)",
		c.GetServerAddress(), c.Server.BehindProxy, c.Server.Environment)
	logging.Infof("Database: %s:%s/%s (Username: %s, Auth: %t, Transactions: %t)",
		c.Database.Host, c.Database.Port, c.Database.Database,
		c.Database.Username, c.Database.Password != "", c.Database.Transactions)
	logging.Infof("Redis: Configured=%t", c.Redis.URL != "")
	logging.Infof("Logging: Level=%s, Format=%s, Prefix=%s",
		c.Logging.Level, c.Logging.Format, c.Logging.Prefix)
	logging.Infof("Auth: TokenTTL=%v, Admins=%v", c.Auth.TokenTTL, c.Auth.AdminUsernames)
	logging.Infof("Sports API: %s (Key set: %t, Timeout: %v, Retries: %d)",
		c.SportsAPI.BaseURL, c.SportsAPI.APIKey != "", c.SportsAPI.Timeout, c.SportsAPI.Retries)
	logging.Infof("League: %d, Season %d (%s to %s, %s)",
		c.League.APIID, c.League.SeasonYear, c.League.SubSeasonStart, c.League.SubSeasonEnd, c.League.Timezone)
	logging.Infof("Scheduler: Enabled=%t, Scores=%q, Games=%q, Late=%q, RunOnStartup=%t",
		c.Scheduler.Enabled, c.Scheduler.ScoreUpdateSpec, c.Scheduler.GameUpdateSpec,
		c.Scheduler.LateScoreSpec, c.Scheduler.RunOnStartup)
	logging.Info("================================")
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
