package config

import (
	"fmt"
	"time"
)

// Sensitivity levels accepted by detectors. The engine threads the value
// through untouched.
const (
	SensitivityLow    = "low"
	SensitivityMedium = "medium"
	SensitivityHigh   = "high"
)

// Blocking strategies for breach response.
const (
	StrategyImmediate = "immediate"
	StrategyDegraded  = "degraded"
	StrategyWarning   = "warning"
)

// Logging levels for the security event log filter.
const (
	LogDebug   = "debug"
	LogInfo    = "info"
	LogWarning = "warning"
)

// Config holds the full service configuration. Immutable after Load.
type Config struct {
	APIKey               string `koanf:"api_key"`
	ServiceName          string `koanf:"service_name"`
	SensitivityLevel     string `koanf:"sensitivity_level"`
	BlockingStrategy     string `koanf:"blocking_strategy"`
	NotificationEndpoint string `koanf:"notification_endpoint"`
	LoggingLevel         string `koanf:"logging_level"`

	Server    ServerConfig    `koanf:"server"`
	Detectors DetectorsConfig `koanf:"detectors"`
	Audit     AuditConfig     `koanf:"audit"`
	Auth      AuthConfig      `koanf:"auth"`
	Notify    NotifyConfig    `koanf:"notify"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// DetectorsConfig holds settings shared by all detector capabilities.
type DetectorsConfig struct {
	// Timeout bounds each detector call. A detector exceeding it counts
	// as a detector failure and aborts the enclosing operation.
	Timeout time.Duration `koanf:"timeout"`
}

// AuditConfig holds security event persistence settings.
type AuditConfig struct {
	// ClickHouseDSN enables the async event writer. Empty falls back to
	// structured log output.
	ClickHouseDSN string `koanf:"clickhouse_dsn"`
}

// AuthConfig holds API credential verification settings.
type AuthConfig struct {
	// PostgresDSN enables the credential store. Empty means requests are
	// verified against the static APIKey only.
	PostgresDSN string        `koanf:"postgres_dsn"`
	CacheTTL    time.Duration `koanf:"cache_ttl"`
}

// NotifyConfig holds breach notification delivery settings.
type NotifyConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// Default returns a Config with all default values. Loaded first, then
// overridden by the config file and environment variables.
func Default() *Config {
	return &Config{
		ServiceName:      "default",
		SensitivityLevel: SensitivityMedium,
		BlockingStrategy: StrategyImmediate,
		LoggingLevel:     LogInfo,
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Detectors: DetectorsConfig{
			Timeout: 2 * time.Second,
		},
		Auth: AuthConfig{
			CacheTTL: 30 * time.Second,
		},
		Notify: NotifyConfig{
			Timeout: 5 * time.Second,
		},
	}
}

// Validate checks required fields and enum values. Unrecognized enum
// values are rejected here so the runtime fallback paths stay unreachable.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("config: api_key is required")
	}
	switch c.SensitivityLevel {
	case SensitivityLow, SensitivityMedium, SensitivityHigh:
	default:
		return fmt.Errorf("config: invalid sensitivity_level %q", c.SensitivityLevel)
	}
	switch c.BlockingStrategy {
	case StrategyImmediate, StrategyDegraded, StrategyWarning:
	default:
		return fmt.Errorf("config: invalid blocking_strategy %q", c.BlockingStrategy)
	}
	switch c.LoggingLevel {
	case LogDebug, LogInfo, LogWarning:
	default:
		return fmt.Errorf("config: invalid logging_level %q", c.LoggingLevel)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server.port %d", c.Server.Port)
	}
	if c.Detectors.Timeout <= 0 {
		return fmt.Errorf("config: detectors.timeout must be positive")
	}
	return nil
}
