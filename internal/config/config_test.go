package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := Default()
	cfg.APIKey = "test-key"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.ServiceName != "default" {
		t.Errorf("service name = %q", cfg.ServiceName)
	}
	if cfg.SensitivityLevel != SensitivityMedium {
		t.Errorf("sensitivity = %q", cfg.SensitivityLevel)
	}
	if cfg.BlockingStrategy != StrategyImmediate {
		t.Errorf("strategy = %q", cfg.BlockingStrategy)
	}
	if cfg.LoggingLevel != LogInfo {
		t.Errorf("logging level = %q", cfg.LoggingLevel)
	}
	if cfg.Detectors.Timeout != 2*time.Second {
		t.Errorf("detector timeout = %s", cfg.Detectors.Timeout)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("default config with api key should validate: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing api key", func(c *Config) { c.APIKey = "" }},
		{"bad sensitivity", func(c *Config) { c.SensitivityLevel = "paranoid" }},
		{"bad strategy", func(c *Config) { c.BlockingStrategy = "escalate" }},
		{"bad logging level", func(c *Config) { c.LoggingLevel = "trace" }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"zero detector timeout", func(c *Config) { c.Detectors.Timeout = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"BASTION_API_KEY", "api_key"},
		{"BASTION_BLOCKING_STRATEGY", "blocking_strategy"},
		{"BASTION_SENSITIVITY_LEVEL", "sensitivity_level"},
		{"BASTION_SERVER_PORT", "server.port"},
		{"BASTION_DETECTORS_TIMEOUT", "detectors.timeout"},
		{"BASTION_AUDIT_CLICKHOUSE_DSN", "audit.clickhouse_dsn"},
		{"BASTION_AUTH_POSTGRES_DSN", "auth.postgres_dsn"},
		{"BASTION_NOTIFY_TIMEOUT", "notify.timeout"},
	}
	for _, tc := range cases {
		if got := envTransform(tc.in); got != tc.want {
			t.Errorf("envTransform(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
