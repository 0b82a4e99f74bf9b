package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultXPPerTask is awarded for each completed task unless overridden.
const DefaultXPPerTask = 10

// Config keeps runtime settings for the server.
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string
	XPPerTask int
	LogLevel  string
}

// Load reads configuration from environment variables with sane defaults.
// TASKQUEST_JWT_SECRET is required; everything else has a default.
func Load() (Config, error) {
	cfg := Config{
		Port:      strings.TrimSpace(os.Getenv("TASKQUEST_PORT")),
		DBPath:    strings.TrimSpace(os.Getenv("TASKQUEST_DB_PATH")),
		JWTSecret: strings.TrimSpace(os.Getenv("TASKQUEST_JWT_SECRET")),
		XPPerTask: parsePositiveInt(os.Getenv("TASKQUEST_XP_PER_TASK")),
		LogLevel:  strings.TrimSpace(os.Getenv("TASKQUEST_LOG_LEVEL")),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "taskquest.db"
	}
	if cfg.XPPerTask == 0 {
		cfg.XPPerTask = DefaultXPPerTask
	}
	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("TASKQUEST_JWT_SECRET is required")
	}

	return cfg, nil
}

func parsePositiveInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
