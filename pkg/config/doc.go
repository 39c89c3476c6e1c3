// Package config provides configuration management for the Qualtrics data processor.
//
// Configuration is loaded from environment variables (a local .env file is
// honored when present) with sensible defaults. The package supports:
//   - Qualtrics API credentials and data center selection
//   - PostgreSQL connection and pool settings
//   - Export polling limits and HTTP client timeouts
//   - File paths for downloaded export data
//   - HTTP server settings
//
// All configuration values are validated during startup to ensure
// the application has the required settings to function properly.
package config
