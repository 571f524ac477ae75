package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/arnavshah/autoscheduler-api-go/pkg/scheduler"
)

// Config holds the settings shared by the server, the serverless entry and the CLI
type Config struct {
	Port    string
	GinMode string

	DatabaseURL string
	DataPath    string

	JWTSecret       string
	APIMasterSecret string
	AdminUsername   string
	AdminPassword   string

	LogLevel  string
	LogFormat string

	AutoScheduleCron string

	Scheduler scheduler.Options
}

// envPaths are tried in order; the first existing file wins
var envPaths = []string{".env", "../.env", "../../.env"}

// Load reads an optional .env file and then the process environment
func Load() (*Config, error) {
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:             get("PORT", "8000"),
		GinMode:          getenv("GIN_MODE"),
		DatabaseURL:      getenv("DATABASE_URL"),
		DataPath:         get("DATA_PATH", "autoscheduler.db"),
		JWTSecret:        getenv("JWT_SECRET"),
		APIMasterSecret:  getenv("API_MASTER_SECRET"),
		AdminUsername:    get("ADMIN_USERNAME", "admin"),
		AdminPassword:    get("ADMIN_PASSWORD", "admin123"),
		LogLevel:         get("LOG_LEVEL", "info"),
		LogFormat:        get("LOG_FORMAT", "console"),
		AutoScheduleCron: getenv("AUTO_SCHEDULE_CRON"),
		Scheduler: scheduler.Options{
			WorkHoursPerDay: scheduler.DefaultWorkHoursPerDay,
			MaxSearchDays:   scheduler.DefaultMaxSearchDays,
		},
	}

	if v := getenv("WORK_HOURS_PER_DAY"); v != "" {
		hours, err := strconv.ParseFloat(v, 64)
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("WORK_HOURS_PER_DAY must be a positive number, got %q", v)
		}
		cfg.Scheduler.WorkHoursPerDay = hours
	}
	if v := getenv("MAX_SEARCH_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("MAX_SEARCH_DAYS must be a positive integer, got %q", v)
		}
		cfg.Scheduler.MaxSearchDays = days
	}

	return cfg, nil
}
