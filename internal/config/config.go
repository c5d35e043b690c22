package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/optionlab/pricer/internal/cloudsql"
	"github.com/optionlab/pricer/internal/pricing"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Engines  EngineConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// DatabaseConfig locates the optional quote store. An empty URL disables it.
type DatabaseConfig struct {
	URL     string
	Migrate bool
}

// AuthConfig enables bearer-token auth on the pricing API when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// EngineConfig holds the defaults applied to engine specs that leave fields unset.
type EngineConfig struct {
	LatticeSteps       int
	LatticeExtrapolate bool
	MCPaths            int
	MCSteps            int
	MCAntithetic       bool
	MCWorkers          int
	MCSeed             uint64
}

// Defaults converts the configuration into engine defaults.
func (c EngineConfig) Defaults() pricing.EngineDefaults {
	return pricing.EngineDefaults{
		Lattice: pricing.LatticeConfig{
			Steps:       c.LatticeSteps,
			Extrapolate: c.LatticeExtrapolate,
		},
		MonteCarlo: pricing.MonteCarloConfig{
			Paths:      c.MCPaths,
			Steps:      c.MCSteps,
			Antithetic: c.MCAntithetic,
			Workers:    c.MCWorkers,
			Seed:       c.MCSeed,
		},
	}
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultLogFormat = "json"
	defaultTokenTTL  = 24 * time.Hour
)

// Load reads configuration from environment variables, applying defaults when
// values are not provided. A .env file in the working directory, or the file
// named by ENV_FILE, is loaded first without overriding variables that are
// already set.
func Load() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	engineDefaults := pricing.DefaultEngineDefaults()
	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Database: DatabaseConfig{
			Migrate: true,
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("PRICER_JWT_SECRET"),
			TokenTTL:  defaultTokenTTL,
		},
		Engines: EngineConfig{
			LatticeSteps:       engineDefaults.Lattice.Steps,
			LatticeExtrapolate: engineDefaults.Lattice.Extrapolate,
			MCPaths:            engineDefaults.MonteCarlo.Paths,
			MCSteps:            engineDefaults.MonteCarlo.Steps,
			MCAntithetic:       engineDefaults.MonteCarlo.Antithetic,
			MCSeed:             engineDefaults.MonteCarlo.Seed,
		},
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"SERVER_READ_TIMEOUT_SECONDS", &cfg.Server.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT_SECONDS", &cfg.Server.WriteTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT_SECONDS", &cfg.Server.ShutdownTimeout},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := parseSeconds(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.key, err)
			}
			*d.target = parsed
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	dbURL, err := cloudsql.BuildDatabaseURL()
	switch {
	case errors.Is(err, cloudsql.ErrNotConfigured):
		// Quote storage disabled.
	case err != nil:
		return Config{}, fmt.Errorf("invalid database configuration: %w", err)
	default:
		cfg.Database.URL = dbURL
	}

	if v := os.Getenv("DATABASE_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DATABASE_MIGRATE: must be a boolean")
		}
		cfg.Database.Migrate = b
	}

	if v := os.Getenv("PRICER_TOKEN_TTL_HOURS"); v != "" {
		hours, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PRICER_TOKEN_TTL_HOURS: %w", err)
		}
		cfg.Auth.TokenTTL = time.Duration(hours) * time.Hour
	}

	if err := loadEngineConfig(&cfg.Engines); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadEngineConfig(c *EngineConfig) error {
	ints := []struct {
		key    string
		target *int
	}{
		{"LATTICE_STEPS", &c.LatticeSteps},
		{"MC_PATHS", &c.MCPaths},
		{"MC_STEPS", &c.MCSteps},
		{"MC_WORKERS", &c.MCWorkers},
	}
	for _, i := range ints {
		if v := os.Getenv(i.key); v != "" {
			n, err := parsePositiveInt(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", i.key, err)
			}
			*i.target = n
		}
	}

	bools := []struct {
		key    string
		target *bool
	}{
		{"LATTICE_EXTRAPOLATE", &c.LatticeExtrapolate},
		{"MC_ANTITHETIC", &c.MCAntithetic},
	}
	for _, b := range bools {
		if v := os.Getenv(b.key); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: must be a boolean", b.key)
			}
			*b.target = parsed
		}
	}

	if v := os.Getenv("MC_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil || seed == 0 {
			return fmt.Errorf("invalid MC_SEED: must be a positive integer")
		}
		c.MCSeed = seed
	}
	return nil
}

func loadDotEnv() error {
	if path := os.Getenv("ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
