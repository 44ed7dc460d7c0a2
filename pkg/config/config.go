package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/queue"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/search"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/server/middlewares"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/store"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/worker"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/jwks"
)

// Config 全局配置
type Config struct {
	App     AppConfig              `mapstructure:"app"`
	Server  ServerConfig           `mapstructure:"server"`
	Redis   store.RedisConfig      `mapstructure:"redis"`
	MySQL   MySQLConfig            `mapstructure:"mysql"`
	Lmstfy  LmstfyConfig           `mapstructure:"lmstfy"`
	Queue   queue.Config           `mapstructure:"queue"`
	Elastic search.ElasticConfig   `mapstructure:"elastic"`
	Auth    middlewares.AuthConfig `mapstructure:"auth"`
	JWKS    jwks.Config            `mapstructure:"jwks"`
	Worker  worker.Config          `mapstructure:"worker"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// MySQLConfig MySQL 配置（死信归档工具用）
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LmstfyConfig Lmstfy 配置
type LmstfyConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
	Token     string `mapstructure:"token"`
}

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	return &cfg, nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	if c.Lmstfy.Host == "" {
		return fmt.Errorf("lmstfy.host is required")
	}
	if c.Queue.Name == "" {
		return fmt.Errorf("queue.name is required")
	}
	if c.Queue.DeadLetter == "" {
		return fmt.Errorf("queue.dead_letter is required")
	}
	return nil
}
