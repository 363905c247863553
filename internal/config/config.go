package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Address     string `yaml:"address"`
	PublicKey   string `yaml:"public_key"`
	AdminKey    string `yaml:"admin_key"`
	SlotMinutes int    `yaml:"slot_minutes"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	StoragePath   string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Interval returns how often backups run.
func (b BackupConfig) Interval() time.Duration {
	if b.IntervalHours <= 0 {
		return 6 * time.Hour
	}
	return time.Duration(b.IntervalHours) * time.Hour
}

type RedisConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

type TelegramConfig struct {
	Enabled  bool    `yaml:"enabled"`
	BotToken string  `yaml:"bot_token"`
	ChatIDs  []int64 `yaml:"chat_ids"`
	Debug    bool    `yaml:"debug"`
}

type SheetsConfig struct {
	Enabled         bool   `yaml:"enabled"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	CredentialsFile string `yaml:"credentials_file"`
	SheetName       string `yaml:"sheet_name"`
}

type MonitoringConfig struct {
	HealthCheckPort   int  `yaml:"health_check_port"`
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type RetentionConfig struct {
	BookingDays int `yaml:"booking_days"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Backup     BackupConfig     `yaml:"backup"`
	Redis      RedisConfig      `yaml:"redis"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Sheets     SheetsConfig     `yaml:"sheets"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Retention  RetentionConfig  `yaml:"retention"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.SlotMinutes <= 0 {
		cfg.Server.SlotMinutes = 30
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/roomdesk.db"
	}
	if cfg.Sheets.SheetName == "" {
		cfg.Sheets.SheetName = "Bookings"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// CacheTTL returns how long cached day availability stays fresh.
func (c *Config) CacheTTL() time.Duration {
	if c.Redis.TTLSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}

// BookingRetention returns how long finished bookings are kept before the
// cleanup loop removes them.
func (c *Config) BookingRetention() time.Duration {
	if c.Retention.BookingDays <= 0 {
		return 365 * 24 * time.Hour
	}
	return time.Duration(c.Retention.BookingDays) * 24 * time.Hour
}
