// Package config는 애플리케이션 설정 파일과 환경 변수를 읽어오는 패키지입니다.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config 인터페이스는 설정 값에 액세스하기 위한 메서드를 정의합니다.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	IsSet(key string) bool
	Unmarshal(target interface{}) error
	ConfigFile() string
}

type viperConfig struct {
	v *viper.Viper
}

func (c *viperConfig) GetString(key string) string { return c.v.GetString(key) }
func (c *viperConfig) GetInt(key string) int       { return c.v.GetInt(key) }
func (c *viperConfig) GetBool(key string) bool     { return c.v.GetBool(key) }
func (c *viperConfig) IsSet(key string) bool       { return c.v.IsSet(key) }

// Unmarshal은 전체 설정을 mapstructure 태그를 가진 구조체로 디코딩합니다.
func (c *viperConfig) Unmarshal(target interface{}) error {
	return c.v.Unmarshal(target)
}

// ConfigFile은 실제로 읽은 설정 파일 경로를 반환합니다.
func (c *viperConfig) ConfigFile() string {
	return c.v.ConfigFileUsed()
}

// 설정 디렉토리 경로
const configDir = "configs"

// Options는 Load 동작을 조정합니다.
type Options struct {
	// EnvPrefix 환경 변수 접두사 (예: MARKET → MARKET_DATABASE_HOST)
	EnvPrefix string
	// Defaults 설정 파일에 없는 키의 기본값
	Defaults map[string]interface{}
}

// Load는 configs/{APP_ENV}/{name}.yaml 을 읽고, 없으면 configs/example/{name}.yaml 을 읽습니다.
// CONFIG_PATH 환경 변수가 있으면 해당 디렉토리를 우선 사용합니다.
func Load(name string, opts Options) (Config, error) {
	v := viper.New()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	for key, value := range opts.Defaults {
		v.SetDefault(key, value)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = name
	}
	v.SetEnvPrefix(strings.ToUpper(prefix))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join(configDir, env)
	}

	v.SetConfigType("yaml")
	v.SetConfigName(name)
	v.AddConfigPath(configPath)

	if err := v.ReadInConfig(); err != nil {
		v.AddConfigPath(filepath.Join(configDir, "example"))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("설정 파일 로드 실패: %w", err)
		}
	}

	// AutomaticEnv 는 Unmarshal 시 파일에 없는 키를 보지 못하므로 기본값 키를 명시적으로 바인딩
	for key := range opts.Defaults {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("환경 변수 바인딩 실패(%s): %w", key, err)
		}
	}

	return &viperConfig{v: v}, nil
}
