package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// ESPN league. Identity and credentials are checked when the client first connects.
	LeagueID      int           `envconfig:"LEAGUE_ID" default:"0"`
	LeagueYear    int           `envconfig:"LEAGUE_YEAR" default:"2025"`
	ESPNSWID      string        `envconfig:"ESPN_SWID" default:""`
	ESPNS2        string        `envconfig:"ESPN_S2" default:""`
	ESPNBaseURL   string        `envconfig:"ESPN_BASE_URL" default:"https://lm-api-reads.fantasy.espn.com/apis/v3/games/fhl"`
	ESPNTimeout   time.Duration `envconfig:"ESPN_TIMEOUT" default:"30s"`
	ESPNRateLimit float64       `envconfig:"ESPN_RATE_LIMIT" default:"5"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"fantasy_nhl"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"fantasy_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`
	AutoMigrate      bool   `envconfig:"AUTO_MIGRATE" default:"true"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Scheduler
	EnableScheduler    bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	InitialSyncEnabled bool   `envconfig:"INITIAL_SYNC_ENABLED" default:"true"`
	SyncSchedule       string `envconfig:"SYNC_SCHEDULE" default:"@every 5m"`

	// Sync
	FreeAgentLimit     int           `envconfig:"FREE_AGENT_LIMIT" default:"50"`
	OwnershipLimit     int           `envconfig:"OWNERSHIP_LIMIT" default:"1000"`
	SideChannelTimeout time.Duration `envconfig:"SIDE_CHANNEL_TIMEOUT" default:"15s"`
	InjuryReportURL    string        `envconfig:"INJURY_REPORT_URL" default:"https://www.cbssports.com/nhl/injuries/"`
	SalaryTablePath    string        `envconfig:"SALARY_TABLE_PATH" default:"configs/salaries.yaml"`

	// Caching
	CacheEnabled    bool `envconfig:"CACHE_ENABLED" default:"true"`
	CacheTTLQueries int  `envconfig:"CACHE_TTL_QUERIES" default:"300"` // 5 minutes

	// Events. Publishing is disabled when NATS_URL is empty.
	NATSURL     string `envconfig:"NATS_URL" default:""`
	NATSSubject string `envconfig:"NATS_SUBJECT" default:"fantasy.sync.completed"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.FreeAgentLimit <= 0 {
		return fmt.Errorf("FREE_AGENT_LIMIT must be positive, got %d", c.FreeAgentLimit)
	}

	if c.SideChannelTimeout <= 0 {
		return fmt.Errorf("SIDE_CHANNEL_TIMEOUT must be positive")
	}

	if c.ESPNRateLimit <= 0 {
		return fmt.Errorf("ESPN_RATE_LIMIT must be positive")
	}

	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// CacheTTL returns the query cache TTL
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLQueries) * time.Second
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
