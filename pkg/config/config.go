package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// AppName is the service name reported by the API and the database driver.
	AppName = "Qualtrics Data Processor"
	// AppVersion is the service version reported by the API.
	AppVersion = "1.0.0"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string `json:"port"`
	Host string `json:"host"`
	Env  string `json:"env"`

	// Qualtrics configuration
	QualtricsAPIToken   string `json:"qualtrics_api_token"`
	QualtricsDataCenter string `json:"qualtrics_data_center"`

	// Database configuration
	DBHost     string `json:"db_host"`
	DBPort     int    `json:"db_port"`
	DBName     string `json:"db_name"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"-"`

	DBPoolMinConn int `json:"db_pool_min_conn"`
	DBPoolMaxConn int `json:"db_pool_max_conn"`

	// Storage configuration
	DataDir string `json:"data_dir"`

	// Export settings
	APITimeout         time.Duration `json:"api_timeout"`
	ExportPollMax      time.Duration `json:"export_poll_max"`
	ExportPollInterval time.Duration `json:"export_poll_interval"`

	// Reporting timezone used to derive period_year/period_month
	Timezone string `json:"timezone"`

	LogLevel string `json:"log_level"`
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is loaded first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Port:               getEnvOrDefault("PORT", "5000"),
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Env:                getEnvOrDefault("APP_ENV", "development"),
		DataDir:            getEnvOrDefault("DATA_DIR", "./data"),
		DBPoolMinConn:      getEnvIntOrDefault("DB_POOL_MIN_CONN", 1),
		DBPoolMaxConn:      getEnvIntOrDefault("DB_POOL_MAX_CONN", 10),
		APITimeout:         time.Duration(getEnvIntOrDefault("API_TIMEOUT", 30)) * time.Second,
		ExportPollMax:      time.Duration(getEnvIntOrDefault("EXPORT_POLL_MAX_SECONDS", 300)) * time.Second,
		ExportPollInterval: time.Duration(getEnvFloatOrDefault("EXPORT_POLL_INTERVAL", 2.0) * float64(time.Second)),
		Timezone:           getEnvOrDefault("TIMEZONE", "Australia/Perth"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
	}

	// Required environment variables
	var err error
	if config.QualtricsAPIToken, err = getRequiredEnv("QUALTRICS_API_TOKEN"); err != nil {
		return nil, err
	}
	if config.QualtricsDataCenter, err = getRequiredEnv("QUALTRICS_DATA_CENTER"); err != nil {
		return nil, err
	}
	if config.DBHost, err = getRequiredEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if config.DBPort, err = getRequiredEnvInt("DB_PORT"); err != nil {
		return nil, err
	}
	if config.DBName, err = getRequiredEnv("DB_NAME"); err != nil {
		return nil, err
	}
	if config.DBUser, err = getRequiredEnv("DB_USER"); err != nil {
		return nil, err
	}
	if config.DBPassword, err = getRequiredEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}

	return config, nil
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return c.Host + ":" + c.Port
}

// GetDatabaseDSN returns the PostgreSQL connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s connect_timeout=30 application_name=qualtrics_data_processor",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword,
	)
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Location resolves the reporting timezone. The original deployment reports
// periods in Australia/Perth; fall back to a fixed +08:00 zone when the tz
// database is unavailable.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("AWST", 8*60*60)
	}
	return loc
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.QualtricsAPIToken == "" || c.QualtricsDataCenter == "" {
		return fmt.Errorf("qualtrics configuration is required")
	}
	if c.DBHost == "" || c.DBName == "" || c.DBUser == "" || c.DBPassword == "" {
		return fmt.Errorf("database configuration is required")
	}
	if c.DBPort < 1 || c.DBPort > 65535 {
		return fmt.Errorf("invalid DB_PORT: %d, must be between 1 and 65535", c.DBPort)
	}
	if c.DBPoolMinConn < 1 {
		return fmt.Errorf("DB_POOL_MIN_CONN must be at least 1, got %d", c.DBPoolMinConn)
	}
	if c.DBPoolMaxConn < c.DBPoolMinConn {
		return fmt.Errorf("DB_POOL_MAX_CONN (%d) must be >= DB_POOL_MIN_CONN (%d)", c.DBPoolMaxConn, c.DBPoolMinConn)
	}
	if c.ExportPollInterval <= 0 {
		return fmt.Errorf("EXPORT_POLL_INTERVAL must be positive")
	}
	return nil
}

// EnsureDataDir creates the data directory when it does not exist
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory %s: %w", c.DataDir, err)
	}
	return nil
}

// Helper functions
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getRequiredEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return value, nil
}

func getRequiredEnvInt(key string) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, fmt.Errorf("required environment variable %s is not set", key)
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be a valid integer: %w", key, err)
	}
	return intValue, nil
}
