package config

import (
	"os"
	"testing"
	"time"
)

var requiredEnv = map[string]string{
	"QUALTRICS_API_TOKEN":   "test_token",
	"QUALTRICS_DATA_CENTER": "syd1",
	"DB_HOST":               "localhost",
	"DB_PORT":               "5432",
	"DB_NAME":               "qualtrics",
	"DB_USER":               "postgres",
	"DB_PASSWORD":           "secret",
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	for key, value := range requiredEnv {
		t.Setenv(key, value)
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T)
		wantErr bool
	}{
		{
			name:    "all required env vars set",
			setup:   setRequiredEnv,
			wantErr: false,
		},
		{
			name: "missing api token",
			setup: func(t *testing.T) {
				setRequiredEnv(t)
				os.Unsetenv("QUALTRICS_API_TOKEN")
			},
			wantErr: true,
		},
		{
			name: "missing data center",
			setup: func(t *testing.T) {
				setRequiredEnv(t)
				os.Unsetenv("QUALTRICS_DATA_CENTER")
			},
			wantErr: true,
		},
		{
			name: "missing db host",
			setup: func(t *testing.T) {
				setRequiredEnv(t)
				os.Unsetenv("DB_HOST")
			},
			wantErr: true,
		},
		{
			name: "missing db port",
			setup: func(t *testing.T) {
				setRequiredEnv(t)
				os.Unsetenv("DB_PORT")
			},
			wantErr: true,
		},
		{
			name: "missing db name",
			setup: func(t *testing.T) {
				setRequiredEnv(t)
				os.Unsetenv("DB_NAME")
			},
			wantErr: true,
		},
		{
			name: "missing db user",
			setup: func(t *testing.T) {
				setRequiredEnv(t)
				os.Unsetenv("DB_USER")
			},
			wantErr: true,
		},
		{
			name: "missing db password",
			setup: func(t *testing.T) {
				setRequiredEnv(t)
				os.Unsetenv("DB_PASSWORD")
			},
			wantErr: true,
		},
		{
			name: "non-numeric db port",
			setup: func(t *testing.T) {
				setRequiredEnv(t)
				t.Setenv("DB_PORT", "not-a-port")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup(t)

			cfg, err := LoadConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				if cfg.Port != "5000" {
					t.Errorf("Port = %v, want 5000", cfg.Port)
				}
				if cfg.APITimeout != 30*time.Second {
					t.Errorf("APITimeout = %v, want 30s", cfg.APITimeout)
				}
				if cfg.ExportPollMax != 300*time.Second {
					t.Errorf("ExportPollMax = %v, want 300s", cfg.ExportPollMax)
				}
				if cfg.ExportPollInterval != 2*time.Second {
					t.Errorf("ExportPollInterval = %v, want 2s", cfg.ExportPollInterval)
				}
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			QualtricsAPIToken:   "token",
			QualtricsDataCenter: "syd1",
			DBHost:              "localhost",
			DBPort:              5432,
			DBName:              "qualtrics",
			DBUser:              "postgres",
			DBPassword:          "secret",
			DBPoolMinConn:       1,
			DBPoolMaxConn:       10,
			ExportPollInterval:  2 * time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.DBPort = 70000 },
			wantErr: true,
		},
		{
			name:    "port zero",
			mutate:  func(c *Config) { c.DBPort = 0 },
			wantErr: true,
		},
		{
			name:    "pool min below one",
			mutate:  func(c *Config) { c.DBPoolMinConn = 0 },
			wantErr: true,
		},
		{
			name:    "pool max below min",
			mutate:  func(c *Config) { c.DBPoolMaxConn = 0 },
			wantErr: true,
		},
		{
			name:    "empty password",
			mutate:  func(c *Config) { c.DBPassword = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetServerAddress(t *testing.T) {
	cfg := &Config{Host: "0.0.0.0", Port: "5000"}
	if got := cfg.GetServerAddress(); got != "0.0.0.0:5000" {
		t.Errorf("GetServerAddress() = %v, want 0.0.0.0:5000", got)
	}
}

func TestConfig_Location(t *testing.T) {
	cfg := &Config{Timezone: "Australia/Perth"}
	loc := cfg.Location()

	_, offset := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC).In(loc).Zone()
	if offset != 8*60*60 {
		t.Errorf("offset = %d, want %d", offset, 8*60*60)
	}

	cfg = &Config{Timezone: "Not/AZone"}
	_, offset = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC).In(cfg.Location()).Zone()
	if offset != 8*60*60 {
		t.Errorf("fallback offset = %d, want %d", offset, 8*60*60)
	}
}
