package config

import (
	"slices"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range GetEnvVars() {
		t.Setenv(key, "")
	}
}

func TestLoadValidConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8002")
	t.Setenv("ADDRESS", "127.0.0.1")
	t.Setenv("ENV", "prod")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("DATA_DIR", "/srv/bdpm")
	t.Setenv("DOWNLOAD_SOURCES", "true")
	t.Setenv("TARGET_DRUGS", "doliprane, advil ,,")
	t.Setenv("UPDATE_SCHEDULE", "05:30; 17:45")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8002" {
		t.Errorf("Expected port 8002, got %s", cfg.Port)
	}
	if cfg.Env != EnvProduction {
		t.Errorf("Expected env prod, got %s", cfg.Env)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected lower-cased log level, got %s", cfg.LogLevel)
	}
	if cfg.DataDir != "/srv/bdpm" {
		t.Errorf("Expected data dir /srv/bdpm, got %s", cfg.DataDir)
	}
	if !cfg.DownloadSources {
		t.Error("Expected DownloadSources to be true")
	}
	if !slices.Equal(cfg.TargetDrugs, []string{"doliprane", "advil"}) {
		t.Errorf("Unexpected target drugs %v", cfg.TargetDrugs)
	}
	if !slices.Equal(cfg.UpdateTimes(), []string{"05:30", "17:45"}) {
		t.Errorf("Unexpected update times %v", cfg.UpdateTimes())
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("Expected 2 allowed origins, got %v", cfg.AllowedOrigins)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Address != "127.0.0.1" {
		t.Errorf("Expected default address 127.0.0.1, got %s", cfg.Address)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Expected default env dev, got %s", cfg.Env)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.DBPath != "automedication.db" {
		t.Errorf("Expected default DB path, got %s", cfg.DBPath)
	}
	if cfg.QuestionBankPath != "" {
		t.Errorf("Expected no question bank path, got %s", cfg.QuestionBankPath)
	}
	if cfg.TargetDrugs != nil {
		t.Errorf("Expected no target drug override, got %v", cfg.TargetDrugs)
	}
	if !slices.Equal(cfg.UpdateTimes(), []string{"06:00", "18:00"}) {
		t.Errorf("Unexpected default schedule %v", cfg.UpdateTimes())
	}
	if !slices.Equal(cfg.AllowedOrigins, []string{"*"}) {
		t.Errorf("Unexpected default origins %v", cfg.AllowedOrigins)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	testCases := []struct {
		key      string
		value    string
		expected string
	}{
		{"PORT", "abc", "PORT must be a valid number"},
		{"PORT", "0", "PORT must be between 1 and 65535"},
		{"PORT", "65536", "PORT must be between 1 and 65535"},
		{"PORT", "80", "PORT 80 is privileged"},
		{"ADDRESS", "invalid", "ADDRESS must be a valid IP address"},
		{"ADDRESS", "8.8.8.8", "is a public IP"},
		{"ENV", "invalid", "ENV must be one of"},
		{"LOG_LEVEL", "verbose", "LOG_LEVEL must be one of"},
		{"LOG_RETENTION_WEEKS", "60", "LOG_RETENTION_WEEKS"},
		{"MAX_LOG_FILE_SIZE", "10", "MAX_LOG_FILE_SIZE"},
		{"MAX_REQUEST_BODY", "-1", "MAX_REQUEST_BODY must be positive"},
		{"MAX_HEADER_SIZE", "209715200", "too large"},
		{"DATA_DIR", "   ", "DATA_DIR"},
		{"UPDATE_SCHEDULE", "25:00", "is not a HH:MM time"},
		{"UPDATE_SCHEDULE", " ; ", "at least one HH:MM time"},
	}

	for _, tc := range testCases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Expected error for %s=%q, got nil", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.expected) {
				t.Errorf("Expected error containing %q, got %v", tc.expected, err)
			}
		})
	}
}

func TestValidateAddressAcceptsLocalValues(t *testing.T) {
	for _, addr := range []string{"localhost", "127.0.0.1", "0.0.0.0", "10.0.0.5", "192.168.1.20", "::1"} {
		if err := validateAddress(addr); err != nil {
			t.Errorf("validateAddress(%q) returned %v", addr, err)
		}
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList(""); got != nil {
		t.Errorf("Expected nil for empty list, got %v", got)
	}
	if got := splitList(" a, ,b "); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Unexpected split %v", got)
	}
}
