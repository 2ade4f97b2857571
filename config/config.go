// Package config has the configuration of the app, read from the environment
package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Supported values of ENV
const (
	EnvDevelopment = "dev"
	EnvStaging     = "staging"
	EnvProduction  = "prod"
	EnvTest        = "test"
)

var scheduleRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               string
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes

	DataDir          string   // Directory holding CIS_bdpm.txt and CIS_COMPO_bdpm.txt
	DownloadSources  bool     // Fetch fresh registry files before each rebuild
	DBPath           string   // SQLite tag/question store
	QuestionBankPath string   // Optional YAML bank, empty means the embedded one
	TargetDrugs      []string // Empty means drugparser.DefaultTargetDrugs
	UpdateSchedule   string   // "HH:MM;HH:MM"
	AllowedOrigins   []string
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               strings.ToLower(getEnvWithDefault("ENV", EnvDevelopment)),
		LogLevel:          strings.ToLower(getEnvWithDefault("LOG_LEVEL", "info")),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default

		DataDir:          getEnvWithDefault("DATA_DIR", "files"),
		DownloadSources:  getBoolEnvWithDefault("DOWNLOAD_SOURCES", false),
		DBPath:           getEnvWithDefault("DB_PATH", "automedication.db"),
		QuestionBankPath: os.Getenv("QUESTION_BANK_PATH"),
		TargetDrugs:      splitList(os.Getenv("TARGET_DRUGS")),
		UpdateSchedule:   getEnvWithDefault("UPDATE_SCHEDULE", "06:00;18:00"),
		AllowedOrigins:   splitList(getEnvWithDefault("ALLOWED_ORIGINS", "*")),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// UpdateTimes returns the daily rebuild times of UpdateSchedule
func (c *Config) UpdateTimes() []string {
	return splitSchedule(c.UpdateSchedule)
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateOneOf(cfg.Env, "ENV", []string{EnvDevelopment, EnvStaging, EnvProduction, EnvTest}); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateOneOf(cfg.LogLevel, "LOG_LEVEL", []string{"debug", "info", "warn", "error"}); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if cfg.LogRetentionWeeks <= 0 || cfg.LogRetentionWeeks > 52 {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: must be between 1 and 52, got: %d", cfg.LogRetentionWeeks)
	}

	if cfg.MaxLogFileSize < 1024*1024 || cfg.MaxLogFileSize > 1024*1024*1024 {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: must be between 1MB and 1GB, got: %d bytes", cfg.MaxLogFileSize)
	}

	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("invalid DATA_DIR: cannot be empty")
	}

	if strings.TrimSpace(cfg.DBPath) == "" {
		return fmt.Errorf("invalid DB_PATH: cannot be empty")
	}

	if err := validateSchedule(cfg.UpdateSchedule); err != nil {
		return fmt.Errorf("invalid UPDATE_SCHEDULE: %w", err)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress accepts loopback names and private IP addresses
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

func validateOneOf(value, name string, allowed []string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of: %v, got: %s", name, allowed, value)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

func validateSchedule(schedule string) error {
	times := splitSchedule(schedule)
	if len(times) == 0 {
		return fmt.Errorf("at least one HH:MM time is required")
	}
	for _, t := range times {
		if !scheduleRegex.MatchString(t) {
			return fmt.Errorf("%q is not a HH:MM time", t)
		}
	}
	return nil
}

func splitSchedule(schedule string) []string {
	var times []string
	for _, t := range strings.Split(schedule, ";") {
		if t = strings.TrimSpace(t); t != "" {
			times = append(times, t)
		}
	}
	return times
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnvWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"DATA_DIR",
		"DOWNLOAD_SOURCES",
		"DB_PATH",
		"QUESTION_BANK_PATH",
		"TARGET_DRUGS",
		"UPDATE_SCHEDULE",
		"ALLOWED_ORIGINS",
	}
}
