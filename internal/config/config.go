package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config 应用程序配置结构
type Config struct {
	Database Database `yaml:"database"`
	Server   Server   `yaml:"server"`
	Caixa    Caixa    `yaml:"caixa"`
	Telegram Telegram `yaml:"telegram"`
	App      App      `yaml:"app"`
}

// Database 数据库配置
type Database struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Username        string        `yaml:"username"`
	Database        string        `yaml:"database"`
	Password        string        `yaml:"password"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// Server Web服务配置
type Server struct {
	Port      string `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

// Caixa 官方开奖结果API配置
type Caixa struct {
	URL        string        `yaml:"url"`
	Timeout    time.Duration `yaml:"timeout"`
	RetryCount int           `yaml:"retry_count"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// Telegram 通知机器人配置（可选）
type Telegram struct {
	Enabled bool          `yaml:"enabled"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// App 应用程序配置
type App struct {
	LogLevel     string        `yaml:"log_level"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	SyncInterval time.Duration `yaml:"sync_interval"` // 0 表示不轮询官方API
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}

	config.applyDefaults()
	return &config, nil
}

// applyDefaults 填充缺省配置
func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = "./static"
	}
	if c.Caixa.URL == "" {
		c.Caixa.URL = "https://servicebus2.caixa.gov.br/portaldeloterias/api/megasena"
	}
	if c.Caixa.Timeout == 0 {
		c.Caixa.Timeout = 10 * time.Second
	}
	if c.App.CacheTTL == 0 {
		c.App.CacheTTL = 10 * time.Minute
	}
}

// GetDSN 获取数据库连接字符串
func (d *Database) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}
