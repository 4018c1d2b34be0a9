// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Environment is the deployment environment the app runs in
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

// SearchConfig holds the ranking tuning constants.
// The defaults are the values the search was tuned with.
type SearchConfig struct {
	MaxQueryLength    int     // Queries are truncated to this many characters
	ConfidenceGate    float64 // Primary results whose best score is below this fall through
	FallbackThreshold float64 // Error tolerance of the approximate matcher, as a fraction of the query length
	BadSearchScore    float64 // Fallback best score above this flags a bad search
	ClassPenaltyBase  float64 // Fallback scores are multiplied by base^classCount
	Workers           int     // Worker pool size for fallback scoring
}

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes
	DataDir           string
	DataBaseURL       string // Optional; when set the source files are downloaded before parsing
	WikiBaseURL       string
	Search            SearchConfig
}

// DefaultSearchConfig returns the ranking constants used when nothing is overridden
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		MaxQueryLength:    30,
		ConfidenceGate:    -1000,
		FallbackThreshold: 0.3,
		BadSearchScore:    0.3,
		ClassPenaltyBase:  0.95,
		Workers:           max(1, runtime.NumCPU()/2),
	}
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	defaults := DefaultSearchConfig()

	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               Environment(strings.ToLower(getEnvWithDefault("ENV", string(EnvDevelopment)))),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default
		DataDir:           getEnvWithDefault("DATA_DIR", "fda-data"),
		DataBaseURL:       os.Getenv("DATA_BASE_URL"),
		WikiBaseURL:       getEnvWithDefault("WIKI_BASE_URL", "https://en.wikipedia.org/api/rest_v1/page/summary/"),
		Search: SearchConfig{
			MaxQueryLength:    getIntEnvWithDefault("SEARCH_MAX_QUERY_LENGTH", defaults.MaxQueryLength),
			ConfidenceGate:    getFloatEnvWithDefault("SEARCH_CONFIDENCE_GATE", defaults.ConfidenceGate),
			FallbackThreshold: getFloatEnvWithDefault("SEARCH_FALLBACK_THRESHOLD", defaults.FallbackThreshold),
			BadSearchScore:    getFloatEnvWithDefault("SEARCH_BAD_THRESHOLD", defaults.BadSearchScore),
			ClassPenaltyBase:  getFloatEnvWithDefault("SEARCH_CLASS_PENALTY_BASE", defaults.ClassPenaltyBase),
			Workers:           getIntEnvWithDefault("SEARCH_WORKERS", defaults.Workers),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("invalid DATA_DIR: cannot be empty")
	}

	if cfg.DataBaseURL != "" {
		if err := validateHTTPURL(cfg.DataBaseURL); err != nil {
			return fmt.Errorf("invalid DATA_BASE_URL: %w", err)
		}
	}

	if err := validateHTTPURL(cfg.WikiBaseURL); err != nil {
		return fmt.Errorf("invalid WIKI_BASE_URL: %w", err)
	}

	if err := validateSearchConfig(cfg.Search); err != nil {
		return fmt.Errorf("invalid search configuration: %w", err)
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

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
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

// validateEnv validates the ENV environment variable
func validateEnv(env Environment) error {
	switch env {
	case EnvDevelopment, EnvStaging, EnvProduction, EnvTest:
		return nil
	case "":
		return fmt.Errorf("ENV cannot be empty")
	}

	return fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", env)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
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

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 {
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE must be positive, got: %d", size)
	}

	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// validateHTTPURL requires an absolute http(s) URL
func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("must be a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	return nil
}

// validateSearchConfig validates the SEARCH_* tuning variables
func validateSearchConfig(s SearchConfig) error {
	if s.MaxQueryLength < 1 || s.MaxQueryLength > 200 {
		return fmt.Errorf("SEARCH_MAX_QUERY_LENGTH must be between 1 and 200, got: %d", s.MaxQueryLength)
	}
	if s.ConfidenceGate >= 0 {
		return fmt.Errorf("SEARCH_CONFIDENCE_GATE must be negative, got: %g", s.ConfidenceGate)
	}
	if s.FallbackThreshold <= 0 || s.FallbackThreshold >= 1 {
		return fmt.Errorf("SEARCH_FALLBACK_THRESHOLD must be in (0, 1), got: %g", s.FallbackThreshold)
	}
	if s.BadSearchScore <= 0 || s.BadSearchScore >= 1 {
		return fmt.Errorf("SEARCH_BAD_THRESHOLD must be in (0, 1), got: %g", s.BadSearchScore)
	}
	if s.ClassPenaltyBase <= 0 || s.ClassPenaltyBase > 1 {
		return fmt.Errorf("SEARCH_CLASS_PENALTY_BASE must be in (0, 1], got: %g", s.ClassPenaltyBase)
	}
	if s.Workers < 1 || s.Workers > 256 {
		return fmt.Errorf("SEARCH_WORKERS must be between 1 and 256, got: %d", s.Workers)
	}
	return nil
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

// getFloatEnvWithDefault gets an environment variable as float64 with a default value
func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
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
		"DATA_BASE_URL",
		"WIKI_BASE_URL",
		"SEARCH_MAX_QUERY_LENGTH",
		"SEARCH_CONFIDENCE_GATE",
		"SEARCH_FALLBACK_THRESHOLD",
		"SEARCH_BAD_THRESHOLD",
		"SEARCH_CLASS_PENALTY_BASE",
		"SEARCH_WORKERS",
	}
}
