// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// MainConfig 主配置
type MainConfig struct {
	AppName string `toml:"appName"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Mode    string `toml:"mode"` // dev | release
}

// DatabaseConfig 数据库连接配置，driver 为 mysql 或 sqlite
type DatabaseConfig struct {
	Driver       string `toml:"driver"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
	SqlitePath   string `toml:"sqlitePath"`
	MaxOpenConns int    `toml:"maxOpenConns"`
	MaxIdleConns int    `toml:"maxIdleConns"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Password string `toml:"password"`
	Db       int    `toml:"db"`
	Workers  int    `toml:"workers"`
	TaskSize int    `toml:"taskSize"`
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`
	FileName   string `toml:"fileName"`
	MaxSize    int    `toml:"maxSize"` // MB
	MaxBackups int    `toml:"maxBackups"`
	MaxAge     int    `toml:"maxAge"` // days
	Level      string `toml:"level"`
}

// MQConfig 领域事件发布配置，driver 为 noop、kafka 或 amqp
type MQConfig struct {
	Driver        string        `toml:"driver"`
	KafkaHostPort string        `toml:"kafkaHostPort"`
	KafkaTopic    string        `toml:"kafkaTopic"`
	KafkaTimeout  time.Duration `toml:"kafkaTimeout"` // seconds
	AmqpURL       string        `toml:"amqpUrl"`
	AmqpExchange  string        `toml:"amqpExchange"`
}

// StaticSrcConfig 静态资源路径配置
type StaticSrcConfig struct {
	StaticAvatarPath string `toml:"staticAvatarPath"`
	StaticImagePath  string `toml:"staticImagePath"`
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret             string `toml:"secret"`
	AccessTokenExpiry  int    `toml:"accessTokenExpiry"`  // minutes
	RefreshTokenExpiry int    `toml:"refreshTokenExpiry"` // hours
	SecureCookie       bool   `toml:"secureCookie"`
}

// SnowflakeConfig 雪花算法配置
type SnowflakeConfig struct {
	MachineID int64 `toml:"machineId"` // 0-1023
}

type TLSConfig struct {
	Enabled  bool   `toml:"enabled"`
	CertFile string `toml:"certFile"`
	KeyFile  string `toml:"keyFile"`
}

type CorsConfig struct {
	AllowOrigins []string `toml:"allowOrigins"`
}

// IceConfig TURN 凭证服务配置 (Xirsys)
type IceConfig struct {
	XirsysIdent    string `toml:"xirsysIdent"`
	XirsysSecret   string `toml:"xirsysSecret"`
	XirsysChannel  string `toml:"xirsysChannel"`
	XirsysEndpoint string `toml:"xirsysEndpoint"`
	DefaultTTL     int    `toml:"defaultTTL"`     // seconds, used when the provider omits ttl
	RequestTimeout int    `toml:"requestTimeout"` // seconds
}

// AIConfig 回复建议配置 (Gemini)
type AIConfig struct {
	GeminiAPIKey string `toml:"geminiApiKey"`
	GeminiModel  string `toml:"geminiModel"`
}

type TracingConfig struct {
	Enabled     bool   `toml:"enabled"`
	Endpoint    string `toml:"endpoint"`
	ServiceName string `toml:"serviceName"`
}

// Config 应用程序总配置
type Config struct {
	MainConfig      `toml:"mainConfig"`
	DatabaseConfig  `toml:"databaseConfig"`
	RedisConfig     `toml:"redisConfig"`
	LogConfig       `toml:"logConfig"`
	MQConfig        `toml:"mqConfig"`
	StaticSrcConfig `toml:"staticSrcConfig"`
	JWTConfig       `toml:"jwtConfig"`
	SnowflakeConfig `toml:"snowflakeConfig"`
	TLSConfig       `toml:"tlsConfig"`
	CorsConfig      `toml:"corsConfig"`
	IceConfig       `toml:"iceConfig"`
	AIConfig        `toml:"aiConfig"`
	TracingConfig   `toml:"tracingConfig"`
}

var config *Config

var searchPaths = []string{
	"configs/config_local.toml",
	"configs/config.toml",
	"../../configs/config_local.toml",
	"../../configs/config.toml",
}

// LoadConfig 按顺序尝试候选路径，找到第一个可用的配置文件即停止
func LoadConfig() error {
	for _, path := range searchPaths {
		if _, err := toml.DecodeFile(path, config); err == nil {
			return nil
		}
	}
	return fmt.Errorf("could not find configuration file in any of the search paths")
}

// LoadFile 解析单个配置文件，缺省值和环境变量覆盖同样生效
func LoadFile(path string) (*Config, error) {
	c := Default()
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	c.applyEnv()
	return c, nil
}

// GetConfig 获取全局配置实例（单例），首次调用时加载配置文件
func GetConfig() *Config {
	if config == nil {
		config = Default()
		_ = LoadConfig() // 找不到配置文件时使用默认值
		config.applyEnv()
	}
	return config
}

// Default 配置文件缺少某项时使用的默认值
func Default() *Config {
	return &Config{
		MainConfig: MainConfig{AppName: "pulse_chat_server", Host: "0.0.0.0", Port: 5001, Mode: "dev"},
		DatabaseConfig: DatabaseConfig{
			Driver:       "sqlite",
			SqlitePath:   "pulse_chat.db",
			MaxOpenConns: 20,
			MaxIdleConns: 5,
		},
		RedisConfig:     RedisConfig{Host: "127.0.0.1", Port: 6379, Workers: 15, TaskSize: 3000},
		LogConfig:       LogConfig{LogPath: "logs", Level: "info"},
		MQConfig:        MQConfig{Driver: "noop", KafkaTopic: "pulse_chat_events", KafkaTimeout: 1, AmqpExchange: "pulse_chat.events"},
		StaticSrcConfig: StaticSrcConfig{StaticAvatarPath: "static/avatars", StaticImagePath: "static/images"},
		JWTConfig:       JWTConfig{Secret: "change-me", AccessTokenExpiry: 60 * 24 * 7, RefreshTokenExpiry: 168},
		SnowflakeConfig: SnowflakeConfig{MachineID: 1},
		CorsConfig:      CorsConfig{AllowOrigins: []string{"http://localhost:5173"}},
		IceConfig: IceConfig{
			XirsysChannel:  "default",
			XirsysEndpoint: "https://global.xirsys.net/_turn",
			DefaultTTL:     60,
			RequestTimeout: 5,
		},
		AIConfig:      AIConfig{GeminiModel: "gemini-2.5-flash"},
		TracingConfig: TracingConfig{ServiceName: "pulse_chat_server"},
	}
}

// applyEnv 密钥类配置可由环境变量提供
func (c *Config) applyEnv() {
	setFromEnv(&c.JWTConfig.Secret, "JWT_SECRET")
	setFromEnv(&c.IceConfig.XirsysIdent, "XIRSYS_IDENT")
	setFromEnv(&c.IceConfig.XirsysSecret, "XIRSYS_SECRET")
	setFromEnv(&c.IceConfig.XirsysChannel, "XIRSYS_CHANNEL")
	setFromEnv(&c.AIConfig.GeminiAPIKey, "GEMINI_API_KEY")
	setFromEnv(&c.AIConfig.GeminiModel, "GEMINI_MODEL")
}

func setFromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
