package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/wekeepgrowing/likes-market/pkg/config"
	"github.com/wekeepgrowing/likes-market/pkg/logger"
)

// Config is the typed configuration of the market service.
type Config struct {
	Service        ServiceConfig        `yaml:"service" mapstructure:"service"`
	Database       DatabaseConfig       `yaml:"database" mapstructure:"database"`
	Server         ServerConfig         `yaml:"server" mapstructure:"server"`
	Log            logger.Config        `yaml:"log" mapstructure:"log"`
	JWT            JWTConfig            `yaml:"jwt" mapstructure:"jwt"`
	Redis          RedisConfig          `yaml:"redis" mapstructure:"redis"`
	Fulfillment    FulfillmentConfig    `yaml:"fulfillment" mapstructure:"fulfillment"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation" mapstructure:"reconciliation"`
	Gateways       GatewaysConfig       `yaml:"gateways" mapstructure:"gateways"`
	Encryption     EncryptionConfig     `yaml:"encryption" mapstructure:"encryption"`
}

// defaults applied before the YAML file and environment are read.
var defaults = map[string]interface{}{
	"service.name":                       "market",
	"service.environment":                "dev",
	"server.http.port":                   8080,
	"server.grpc.port":                   9090,
	"log.level":                          "info",
	"log.format":                         "json",
	"log.output":                         "stdout",
	"database.port":                      5432,
	"database.max_open_conns":            25,
	"database.max_idle_conns":            5,
	"database.conn_max_lifetime":         "5m",
	"database.slow_threshold":            "200ms",
	"database.log_level":                 "warn",
	"fulfillment.timeout":                "30s",
	"fulfillment.retry.attempts":         3,
	"fulfillment.retry.delay":            "2s",
	"fulfillment.credentials_ttl":        "5m",
	"reconciliation.schedule":            "@every 5m",
	"reconciliation.dispatch_schedule":   "@every 1m",
	"reconciliation.batch_size":          100,
	"gateways.crypto.timeout":            "30s",
	"gateways.embedded.timeout":          "30s",
	"gateways.stripe.session_ttl":        "30m",
	"gateways.stripe.timeout":            "30s",
	"redis.channel":                      "orders.status",
}

// Load reads the "market" config through viper with MARKET_ environment overrides.
func Load() (*Config, error) {
	loaded, err := pkgconfig.Load("market", pkgconfig.Options{
		EnvPrefix: "MARKET",
		Defaults:  defaults,
	})
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := loaded.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", loaded.ConfigFile(), err)
	}

	return &cfg, nil
}

// Validate checks values that have no usable default.
func (c *Config) Validate() error {
	if c.Reconciliation.BatchSize <= 0 || c.Reconciliation.BatchSize > 1000 {
		return fmt.Errorf("reconciliation.batch_size must be in 1..1000, got %d", c.Reconciliation.BatchSize)
	}
	if c.Fulfillment.Timeout <= 0 {
		return fmt.Errorf("fulfillment.timeout must be positive")
	}
	if c.Fulfillment.Retry.Attempts < 1 {
		return fmt.Errorf("fulfillment.retry.attempts must be at least 1")
	}
	if c.Fulfillment.CredentialsTTL < time.Second {
		return fmt.Errorf("fulfillment.credentials_ttl must be at least 1s")
	}
	return nil
}
