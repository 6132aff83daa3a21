// Package config handles agent configuration loading using viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"icc.tech/parkgate/internal/log"
	"icc.tech/parkgate/internal/lpr"
	"icc.tech/parkgate/internal/payment"
)

// Config is the top-level static configuration. Maps to the `parkgate:`
// root key in YAML; env vars use the PARKGATE_ prefix (e.g.
// PARKGATE_PAYMENT_HOST).
type Config struct {
	Cameras lpr.Config     `mapstructure:"cameras"`
	Payment payment.Config `mapstructure:"payment"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
	Log     log.Config     `mapstructure:"log"`
}

// MetricsConfig contains the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// configRoot matches the YAML structure `parkgate: ...`.
type configRoot struct {
	Parkgate Config `mapstructure:"parkgate"`
}

// Load loads configuration from file, applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// The `parkgate.` key prefix maps to PARKGATE_ env vars through the
	// key replacer (key "parkgate.payment.host" → env "PARKGATE_PAYMENT_HOST").
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Parkgate

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Camera link defaults
	v.SetDefault("parkgate.cameras.separator", lpr.DefaultSeparator)
	v.SetDefault("parkgate.cameras.reconnect_period", "5s")
	v.SetDefault("parkgate.cameras.dial_timeout", "3s")
	v.SetDefault("parkgate.cameras.write_timeout", "5s")
	v.SetDefault("parkgate.cameras.front.port", 6000)
	v.SetDefault("parkgate.cameras.rear.port", 6000)

	// Payment defaults
	v.SetDefault("parkgate.payment.port", 8080)
	v.SetDefault("parkgate.payment.listen_host", "0.0.0.0")
	v.SetDefault("parkgate.payment.listen_port", 8081)
	v.SetDefault("parkgate.payment.read_timeout", "30s")
	v.SetDefault("parkgate.payment.max_sessions", 64)

	// Metrics defaults
	v.SetDefault("parkgate.metrics.enabled", true)
	v.SetDefault("parkgate.metrics.listen", ":9091")
	v.SetDefault("parkgate.metrics.path", "/metrics")

	// Log defaults
	v.SetDefault("parkgate.log.level", "info")
}

// Validate rejects configurations that cannot possibly run.
func (c *Config) Validate() error {
	for name, cam := range map[string]lpr.CameraConfig{
		"front": c.Cameras.Front,
		"rear":  c.Cameras.Rear,
	} {
		if !cam.Enabled {
			continue
		}
		if cam.Host == "" {
			return fmt.Errorf("cameras.%s: enabled camera requires a host", name)
		}
		if cam.Port <= 0 || cam.Port > 65535 {
			return fmt.Errorf("cameras.%s: invalid port %d", name, cam.Port)
		}
	}
	if c.Cameras.ReconnectPeriod < 100*time.Millisecond {
		return fmt.Errorf("cameras.reconnect_period must be at least 100ms, got %s", c.Cameras.ReconnectPeriod)
	}

	if c.Payment.Host == "" {
		return fmt.Errorf("payment.host is required")
	}
	if c.Payment.Port <= 0 || c.Payment.Port > 65535 {
		return fmt.Errorf("payment: invalid backend port %d", c.Payment.Port)
	}
	if c.Payment.ListenPort < 0 || c.Payment.ListenPort > 65535 {
		return fmt.Errorf("payment: invalid listen port %d", c.Payment.ListenPort)
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return fmt.Errorf("metrics.listen is required when metrics are enabled")
	}
	return nil
}
