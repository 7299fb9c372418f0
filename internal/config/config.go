package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultServerPort = "8080"
	DefaultChunkSize  = 250
	DefaultTimeout    = 30 * time.Second
)

// DBConfig holds the database connection parameters.
type DBConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Type     string `json:"type" mapstructure:"type"`
	Host     string `json:"host" mapstructure:"host"`
	User     string `json:"user" mapstructure:"user"`
	Password string `json:"password" mapstructure:"password"`
	DBName   string `json:"dbname" mapstructure:"dbname"`
	Port     int    `json:"port" mapstructure:"port"`
	SSLMode  string `json:"sslmode" mapstructure:"sslmode"`
	TimeZone string `json:"timezone" mapstructure:"timezone"`
}

// LoggerConfig holds the logging configuration.
type LoggerConfig struct {
	Level      string `json:"level" mapstructure:"level"`   // e.g., "debug", "info", "warn", "error"
	Format     string `json:"format" mapstructure:"format"` // "json" or "text"
	FilePath   string `json:"file_path" mapstructure:"file_path"`
	MaxSize    int    `json:"max_size" mapstructure:"max_size"` // megabytes
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `json:"max_age" mapstructure:"max_age"` // days
	Compress   bool   `json:"compress" mapstructure:"compress"`
}

// MetricsConfig holds the Prometheus configuration.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	Namespace string `json:"namespace" mapstructure:"namespace"`
}

// Device holds the configuration for a single signing device.
type Device struct {
	Name        string        `json:"name" mapstructure:"name"`
	Address     string        `json:"address" mapstructure:"address"`           // e.g., "127.0.0.1:9999"
	Mode        string        `json:"mode" mapstructure:"mode"`                 // "plain" or "dkg"
	ChunkSize   int           `json:"chunk_size" mapstructure:"chunk_size"`     // bytes per frame
	PathFraming string        `json:"path_framing" mapstructure:"path_framing"` // "packed" or "separate"
	Timeout     time.Duration `json:"timeout" mapstructure:"timeout"`
	IndexBase   int           `json:"index_base" mapstructure:"index_base"` // 0 or 1
}

// Config holds the application's configuration values.
type Config struct {
	ServerPort string        `json:"server_port" mapstructure:"server_port"`
	History    int           `json:"history" mapstructure:"history"`
	Devices    []Device      `json:"devices" mapstructure:"devices"`
	Database   DBConfig      `json:"database" mapstructure:"database"`
	Logger     LoggerConfig  `json:"logger" mapstructure:"logger"`
	Metrics    MetricsConfig `json:"metrics" mapstructure:"metrics"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_port", DefaultServerPort)
	v.SetDefault("history", 256)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "frost_ledger")
	v.SetDefault("database.type", "postgres")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")
}

// LoadConfig reads the configuration from a file, applies FROST_LEDGER_*
// environment overrides and returns a validated Config. An empty path
// loads defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FROST_LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	config.applyDeviceDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyDeviceDefaults() {
	for i := range c.Devices {
		d := &c.Devices[i]
		if d.Mode == "" {
			d.Mode = "dkg"
		}
		if d.ChunkSize == 0 {
			d.ChunkSize = DefaultChunkSize
		}
		if d.PathFraming == "" {
			d.PathFraming = "packed"
		}
		if d.Timeout == 0 {
			d.Timeout = DefaultTimeout
		}
	}
}

// Validate checks values that cannot be caught by decoding.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if d.Name == "" {
			return fmt.Errorf("config: device %d has no name", i)
		}
		if seen[d.Name] {
			return fmt.Errorf("config: duplicate device %q", d.Name)
		}
		seen[d.Name] = true
		if d.Address == "" {
			return fmt.Errorf("config: device %q has no address", d.Name)
		}
		if d.Mode != "plain" && d.Mode != "dkg" {
			return fmt.Errorf("config: device %q: mode must be plain or dkg, got %q", d.Name, d.Mode)
		}
		if d.ChunkSize < 1 || d.ChunkSize > 255 {
			return fmt.Errorf("config: device %q: chunk_size %d out of range 1..255", d.Name, d.ChunkSize)
		}
		if d.PathFraming != "packed" && d.PathFraming != "separate" {
			return fmt.Errorf("config: device %q: path_framing must be packed or separate, got %q", d.Name, d.PathFraming)
		}
		if d.IndexBase != 0 && d.IndexBase != 1 {
			return fmt.Errorf("config: device %q: index_base must be 0 or 1, got %d", d.Name, d.IndexBase)
		}
	}
	return nil
}
