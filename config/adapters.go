package config

import (
	"fmt"
	"os"
	"time"

	"pickem-go/database"
	"pickem-go/handlers"
	"pickem-go/logging"
	"pickem-go/services"

	"github.com/redis/go-redis/v9"
)

// ToDatabaseConfig converts Config to database.Config
func (c *Config) ToDatabaseConfig() database.Config {
	return database.Config{
		Host:         c.Database.Host,
		Port:         c.Database.Port,
		Username:     c.Database.Username,
		Password:     c.Database.Password,
		Database:     c.Database.Database,
		Timeout:      c.Database.Timeout,
		Transactions: c.Database.Transactions,
	}
}

// ToLoggingConfig converts Config to logging.Config
func (c *Config) ToLoggingConfig() logging.Config {
	return logging.Config{
		Level:       c.Logging.Level,
		Format:      c.Logging.Format,
		Output:      os.Stdout,
		Prefix:      c.Logging.Prefix,
		EnableColor: c.Logging.Format != "json",
	}
}

// ToSportsAPIConfig converts Config to services.SportsAPIConfig
func (c *Config) ToSportsAPIConfig() services.SportsAPIConfig {
	return services.SportsAPIConfig{
		BaseURL:           c.SportsAPI.BaseURL,
		APIKey:            c.SportsAPI.APIKey,
		Timeout:           c.SportsAPI.Timeout,
		Retries:           c.SportsAPI.Retries,
		RequestsPerMinute: c.SportsAPI.RequestsPerMinute,
	}
}

// ToRedisOptions parses REDIS_URL; nil means Redis is not configured
func (c *Config) ToRedisOptions() (*redis.Options, error) {
	if c.Redis.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(c.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return opts, nil
}

// ToSchedulerConfig converts Config to services.SchedulerConfig
func (c *Config) ToSchedulerConfig() services.SchedulerConfig {
	sc := services.DefaultSchedulerConfig()
	sc.Enabled = c.Scheduler.Enabled
	sc.ScoreUpdateSpec = c.Scheduler.ScoreUpdateSpec
	sc.GameUpdateSpec = c.Scheduler.GameUpdateSpec
	sc.LateScoreSpec = c.Scheduler.LateScoreSpec
	sc.RunOnStartup = c.Scheduler.RunOnStartup
	sc.Location = c.mustLocation()
	return sc
}

// ToSeedConfig converts Config to services.SeedConfig
func (c *Config) ToSeedConfig() services.SeedConfig {
	// Validate has already parsed these
	start, end, _ := c.SubSeasonRange()
	return services.SeedConfig{
		LeagueAPIID:    c.League.APIID,
		SeasonYear:     c.League.SeasonYear,
		SubSeasonStart: start,
		SubSeasonEnd:   end,
		Location:       c.mustLocation(),
	}
}

// ToReconcilerConfig converts Config to services.ReconcilerConfig
func (c *Config) ToReconcilerConfig() services.ReconcilerConfig {
	return services.ReconcilerConfig{
		LeagueAPIID: c.League.APIID,
		Location:    c.mustLocation(),
	}
}

// ToCookieConfig converts Config to handlers.CookieConfig
func (c *Config) ToCookieConfig() handlers.CookieConfig {
	return handlers.CookieConfig{
		// plain HTTP in development and behind a TLS terminating proxy
		Secure:   !c.IsDevelopment() && !c.Server.BehindProxy,
		TokenTTL: c.Auth.TokenTTL,
	}
}

func (c *Config) mustLocation() *time.Location {
	loc, err := c.Location()
	if err != nil {
		return time.UTC
	}
	return loc
}
