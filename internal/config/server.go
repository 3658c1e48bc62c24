package config

type ServerConfig struct {
	HTTP HTTPConfig `yaml:"http" mapstructure:"http"`
	GRPC GRPCConfig `yaml:"grpc" mapstructure:"grpc"`
}

type HTTPConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

type GRPCConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// JWTConfig verifies user access tokens. InternalToken guards operator endpoints.
type JWTConfig struct {
	Secret        string `yaml:"secret" mapstructure:"secret"`
	Issuer        string `yaml:"issuer" mapstructure:"issuer"`
	InternalToken string `yaml:"internal_token" mapstructure:"internal_token"`
}
