package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the gateway
type Config struct {
	Serial   SerialConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Gateway  GatewayConfig
	Server   ServerConfig
	LogLevel string `mapstructure:"log_level"`
}

type SerialConfig struct {
	Port        string        `mapstructure:"port"`
	Baud        int           `mapstructure:"baud"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DatabaseConfig struct {
	TimescaleDB PostgresConfig `mapstructure:"timescaledb"`
}

type PostgresConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	DBName         string        `mapstructure:"dbname"`
	SSLMode        string        `mapstructure:"sslmode"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type GatewayConfig struct {
	MaxRetries       int           `mapstructure:"max_retries"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
	TestingMode      bool          `mapstructure:"testing_mode"`
	SimulateData     bool          `mapstructure:"simulate_data"`
	SimulateInterval time.Duration `mapstructure:"simulate_interval"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	DeviceID         string        `mapstructure:"device_id"`
	FirmwareVersion  string        `mapstructure:"firmware_version"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("POND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Serial defaults
	viper.SetDefault("serial.port", "/dev/ttyUSB0")
	viper.SetDefault("serial.baud", 9600)
	viper.SetDefault("serial.read_timeout", "1s")

	// Redis defaults
	viper.SetDefault("redis.host", "redis")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	// Database defaults
	viper.SetDefault("database.timescaledb.host", "timescaledb")
	viper.SetDefault("database.timescaledb.port", 5432)
	viper.SetDefault("database.timescaledb.user", "pond_user")
	viper.SetDefault("database.timescaledb.dbname", "pond_data")
	viper.SetDefault("database.timescaledb.sslmode", "disable")
	viper.SetDefault("database.timescaledb.connect_timeout", "10s")

	// Gateway defaults
	viper.SetDefault("gateway.max_retries", 3)
	viper.SetDefault("gateway.retry_delay", "5s")
	viper.SetDefault("gateway.testing_mode", false)
	viper.SetDefault("gateway.simulate_data", false)
	viper.SetDefault("gateway.simulate_interval", "30s")
	viper.SetDefault("gateway.cache_ttl", "300s")
	viper.SetDefault("gateway.device_id", "POND-001")
	viper.SetDefault("gateway.firmware_version", "1.0.0")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	viper.SetDefault("log_level", "info")
}

func validateConfig(config *Config) error {
	if config.Database.TimescaleDB.Host == "" {
		return fmt.Errorf("timescaledb host is required")
	}
	if config.Redis.Host == "" {
		return fmt.Errorf("redis host is required")
	}
	if !config.Gateway.TestingMode && config.Serial.Port == "" {
		return fmt.Errorf("serial port is required outside testing mode")
	}
	if config.Gateway.MaxRetries < 1 {
		return fmt.Errorf("gateway max_retries must be at least 1")
	}
	if config.Gateway.CacheTTL <= 0 {
		return fmt.Errorf("gateway cache_ttl must be positive")
	}
	return nil
}

// FirmwareVersion returns the reported firmware string, tagged when the
// gateway runs without physical hardware.
func (c *Config) FirmwareVersion() string {
	if c.Gateway.TestingMode {
		return c.Gateway.FirmwareVersion + "-testing"
	}
	return c.Gateway.FirmwareVersion
}
