package config

import (
	"github.com/blues/mts/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// PaymentConfig 支付渠道配置
type PaymentConfig struct {
	Cardpay RailConfig `mapstructure:"cardpay"` // 卡支付渠道
	Altpay  RailConfig `mapstructure:"altpay"`  // 订单/捕获式渠道
}

// RailConfig 单个外部支付渠道配置
type RailConfig struct {
	BaseURL       string `mapstructure:"base_url"`       // 渠道API地址
	Secret        string `mapstructure:"secret"`         // API密钥，为空时进入沙箱模式
	WebhookSecret string `mapstructure:"webhook_secret"` // webhook签名密钥
}

// Sandbox 未配置密钥时使用沙箱模式
func (r RailConfig) Sandbox() bool {
	return r.Secret == ""
}

type TaskConfig struct {
	Interval      int `mapstructure:"interval"`        // 任务间隔，秒
	PendingTTL    int `mapstructure:"pending_ttl"`     // pending打赏过期时间，秒
	SweepPoolSize int `mapstructure:"sweep_pool_size"` // 清理任务协程池大小
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/mts")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "musictips")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("payment.cardpay.base_url", "https://api.cardpay.example.com/v1")
	viper.SetDefault("payment.altpay.base_url", "https://api.altpay.example.com/v2")
	viper.SetDefault("task.interval", 60)
	viper.SetDefault("task.pending_ttl", 3600)
	viper.SetDefault("task.sweep_pool_size", 4)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
