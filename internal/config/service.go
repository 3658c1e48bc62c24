package config

import "time"

type ServiceConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	ClientURL   string `yaml:"client_url" mapstructure:"client_url"`
	// PublicURL is where payment processors deliver webhooks.
	PublicURL string `yaml:"public_url" mapstructure:"public_url"`
}

type FulfillmentConfig struct {
	URL    string `yaml:"url" mapstructure:"url"`
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// Timeout bounds every provider call.
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout"`
	CategoryMapPath string        `yaml:"category_map_path" mapstructure:"category_map_path"`
	CredentialsTTL  time.Duration `yaml:"credentials_ttl" mapstructure:"credentials_ttl"`
	Retry           RetryConfig   `yaml:"retry" mapstructure:"retry"`
}

type RetryConfig struct {
	Attempts int           `yaml:"attempts" mapstructure:"attempts"`
	Delay    time.Duration `yaml:"delay" mapstructure:"delay"`
}

type ReconciliationConfig struct {
	Enabled          bool   `yaml:"enabled" mapstructure:"enabled"`
	Schedule         string `yaml:"schedule" mapstructure:"schedule"`
	DispatchSchedule string `yaml:"dispatch_schedule" mapstructure:"dispatch_schedule"`
	BatchSize        int    `yaml:"batch_size" mapstructure:"batch_size"`
}

type GatewaysConfig struct {
	Crypto   CryptoGatewayConfig   `yaml:"crypto" mapstructure:"crypto"`
	Stripe   StripeGatewayConfig   `yaml:"stripe" mapstructure:"stripe"`
	Embedded EmbeddedGatewayConfig `yaml:"embedded" mapstructure:"embedded"`
}

type CryptoGatewayConfig struct {
	BaseURL    string        `yaml:"base_url" mapstructure:"base_url"`
	MerchantID string        `yaml:"merchant_id" mapstructure:"merchant_id"`
	APIKey     string        `yaml:"api_key" mapstructure:"api_key"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type StripeGatewayConfig struct {
	SecretKey  string        `yaml:"secret_key" mapstructure:"secret_key"`
	SessionTTL time.Duration `yaml:"session_ttl" mapstructure:"session_ttl"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type EmbeddedGatewayConfig struct {
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url"`
	SecretKey string        `yaml:"secret_key" mapstructure:"secret_key"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type EncryptionConfig struct {
	// Key is a 64 character hex AES-256 key.
	Key string `yaml:"key" mapstructure:"key"`
}
