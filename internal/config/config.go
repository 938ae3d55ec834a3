package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// Config is the effective server configuration. Sources are layered:
// defaults, then config.ini, then environment variables (GMATCH_* after
// .env loading). CLI flags are applied on top by the caller.
type Config struct {
	// TCP transport
	Address string
	Port    int

	// HTTP admin/WebSocket listener, 0 disables it
	HTTPPort int

	// Matchmaking
	PlayersPerRoom      int
	MaxRatingDiff       int
	ForceMatchOnTimeout bool
	MatchTimeoutMs      uint64

	// Per-connection request budget, requests per second. 0 disables.
	RateLimitRPS int

	// Diagnostics
	LogFile  string
	LogLevel string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Address:             "0.0.0.0",
		Port:                8080,
		HTTPPort:            8081,
		PlayersPerRoom:      2,
		MaxRatingDiff:       300,
		ForceMatchOnTimeout: true,
		MatchTimeoutMs:      5000,
		RateLimitRPS:        20,
		LogFile:             "match_server.log",
		LogLevel:            "info",
	}
}

// Load builds the configuration from defaults, an optional ini file and the
// environment. A missing ini file is not an error; an unreadable one is.
func Load(iniPath string) (*Config, error) {
	cfg := Default()

	if iniPath != "" {
		if _, err := os.Stat(iniPath); err == nil {
			if err := cfg.applyINI(iniPath); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", iniPath, err)
			}
		}
	}

	// .env is optional.
	_ = godotenv.Load()
	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyINI(path string) error {
	file, err := ini.Load(path)
	if err != nil {
		return err
	}

	section := file.Section("")
	if key := section.Key("address"); key.String() != "" {
		c.Address = key.String()
	}
	if v, err := section.Key("port").Int(); err == nil && v > 0 {
		c.Port = v
	}
	if section.HasKey("http_port") {
		if v, err := section.Key("http_port").Int(); err == nil {
			c.HTTPPort = v
		}
	}
	if v, err := section.Key("players_per_room").Int(); err == nil && v > 0 {
		c.PlayersPerRoom = v
	}
	if v, err := section.Key("max_rating_diff").Int(); err == nil && v > 0 {
		c.MaxRatingDiff = v
	}
	if section.HasKey("force_match_on_timeout") {
		if v, err := section.Key("force_match_on_timeout").Bool(); err == nil {
			c.ForceMatchOnTimeout = v
		}
	}
	if v, err := section.Key("match_timeout_ms").Uint64(); err == nil && v > 0 {
		c.MatchTimeoutMs = v
	}
	if section.HasKey("rate_limit_rps") {
		if v, err := section.Key("rate_limit_rps").Int(); err == nil && v >= 0 {
			c.RateLimitRPS = v
		}
	}
	if key := section.Key("log_file"); key.String() != "" {
		c.LogFile = key.String()
	}
	if key := section.Key("log_level"); key.String() != "" {
		c.LogLevel = key.String()
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Address = getEnv("GMATCH_ADDRESS", c.Address)
	c.Port = getEnvInt("GMATCH_PORT", c.Port)
	c.HTTPPort = getEnvInt("GMATCH_HTTP_PORT", c.HTTPPort)
	c.PlayersPerRoom = getEnvInt("GMATCH_PLAYERS_PER_ROOM", c.PlayersPerRoom)
	c.MaxRatingDiff = getEnvInt("GMATCH_MAX_RATING_DIFF", c.MaxRatingDiff)
	c.ForceMatchOnTimeout = getEnvBool("GMATCH_FORCE_MATCH_ON_TIMEOUT", c.ForceMatchOnTimeout)
	c.MatchTimeoutMs = getEnvUint64("GMATCH_MATCH_TIMEOUT_MS", c.MatchTimeoutMs)
	c.RateLimitRPS = getEnvInt("GMATCH_RATE_LIMIT_RPS", c.RateLimitRPS)
	c.LogFile = getEnv("GMATCH_LOG_FILE", c.LogFile)
	c.LogLevel = getEnv("GMATCH_LOG_LEVEL", c.LogLevel)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return defaultValue
}
