package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Platform names accepted by TORNEO_PLATFORM.
const (
	PlatformDiscord = "discord"
	PlatformSlack   = "slack"
)

// Store backends accepted by TORNEO_STORE_BACKEND.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Platform string
	Discord  DiscordConfig
	Slack    SlackConfig
	Store    StoreConfig
	Redis    RedisConfig
	Server   ServerConfig
	Rooms    RoomsConfig
	Gateway  GatewayConfig
	NodeID   int64
}

// DiscordConfig holds Discord bot settings.
type DiscordConfig struct {
	Token string
}

// SlackConfig holds Slack integration settings.
type SlackConfig struct {
	BotToken      string
	SigningSecret string
	Admins        []string // user ids allowed to run administrator commands
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string
	DataDir string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
	Prefix   string
}

// ServerConfig holds ops HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RoomsConfig holds room scheduling settings.
type RoomsConfig struct {
	Location     *time.Location
	ReminderLead time.Duration
	Role         string
}

// GatewayConfig bounds the rate of platform calls.
type GatewayConfig struct {
	RPS   float64
	Burst int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	redisDB, err := getEnvInt("TORNEO_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("TORNEO_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("TORNEO_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	reminderLead, err := getEnvDuration("TORNEO_REMINDER_LEAD", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	loc, err := time.LoadLocation(getEnv("TORNEO_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("config.Load: TORNEO_TIMEZONE: %w", err)
	}

	rps, err := getEnvFloat("TORNEO_GATEWAY_RPS", 5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	burst, err := getEnvInt("TORNEO_GATEWAY_BURST", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	nodeID, err := getEnvInt("TORNEO_NODE_ID", 1)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	discordToken := getEnv("TORNEO_DISCORD_TOKEN", "")
	if discordToken == "" {
		discordToken = getEnv("DISCORD_TOKEN", "")
	}

	cfg := &Config{
		Platform: strings.ToLower(getEnv("TORNEO_PLATFORM", PlatformDiscord)),
		Discord: DiscordConfig{
			Token: discordToken,
		},
		Slack: SlackConfig{
			BotToken:      getEnv("TORNEO_SLACK_BOT_TOKEN", ""),
			SigningSecret: getEnv("TORNEO_SLACK_SIGNING_SECRET", ""),
			Admins:        getEnvList("TORNEO_SLACK_ADMINS", nil),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("TORNEO_STORE_BACKEND", BackendFile)),
			DataDir: getEnv("TORNEO_DATA_DIR", "."),
		},
		Redis: RedisConfig{
			Addr:     getEnv("TORNEO_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("TORNEO_REDIS_PASSWORD", ""),
			DB:       redisDB,
			Prefix:   getEnv("TORNEO_REDIS_PREFIX", "torneo:"),
		},
		Server: ServerConfig{
			Addr:         getEnv("TORNEO_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		Rooms: RoomsConfig{
			Location:     loc,
			ReminderLead: reminderLead,
			Role:         getEnv("TORNEO_ROOM_ROLE", "Jugador"),
		},
		Gateway: GatewayConfig{
			RPS:   rps,
			Burst: burst,
		},
		NodeID: int64(nodeID),
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	switch c.Platform {
	case PlatformDiscord:
		if c.Discord.Token == "" {
			return errors.New("DISCORD_TOKEN or TORNEO_DISCORD_TOKEN is required for the discord platform")
		}
	case PlatformSlack:
		if c.Slack.BotToken == "" {
			return errors.New("TORNEO_SLACK_BOT_TOKEN is required for the slack platform")
		}
		if c.Slack.SigningSecret == "" {
			return errors.New("TORNEO_SLACK_SIGNING_SECRET is required for the slack platform")
		}
		if len(c.Slack.Admins) == 0 {
			log.Warn().Msg("TORNEO_SLACK_ADMINS is empty; administrator commands will be refused")
		}
	default:
		return fmt.Errorf("TORNEO_PLATFORM must be %q or %q, got %q", PlatformDiscord, PlatformSlack, c.Platform)
	}

	switch c.Store.Backend {
	case BackendFile:
		if c.Store.DataDir == "" {
			return errors.New("TORNEO_DATA_DIR must not be empty")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("TORNEO_REDIS_ADDR is required for the redis backend")
		}
	default:
		return fmt.Errorf("TORNEO_STORE_BACKEND must be %q or %q, got %q", BackendFile, BackendRedis, c.Store.Backend)
	}

	// Bounds checks.
	if c.Redis.DB < 0 {
		return fmt.Errorf("TORNEO_REDIS_DB must be >= 0, got %d", c.Redis.DB)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("TORNEO_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("TORNEO_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Rooms.ReminderLead <= 0 {
		return fmt.Errorf("TORNEO_REMINDER_LEAD must be positive, got %s", c.Rooms.ReminderLead)
	}
	if c.Rooms.Role == "" {
		return errors.New("TORNEO_ROOM_ROLE must not be empty")
	}
	if c.Gateway.RPS <= 0 {
		return fmt.Errorf("TORNEO_GATEWAY_RPS must be positive, got %g", c.Gateway.RPS)
	}
	if c.Gateway.Burst < 1 {
		return fmt.Errorf("TORNEO_GATEWAY_BURST must be >= 1, got %d", c.Gateway.Burst)
	}
	// snowflake node ids are 10 bits.
	if c.NodeID < 0 || c.NodeID > 1023 {
		return fmt.Errorf("TORNEO_NODE_ID must be 0-1023, got %d", c.NodeID)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
