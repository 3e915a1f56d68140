package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Config конфигурация сервиса, загружаемая из TOML-файла
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Logs      LogsConfig      `toml:"logs"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Loyalty   LoyaltyConfig   `toml:"loyalty"`
}

// ServerConfig настройки HTTP-сервера
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN возвращает строку подключения PostgreSQL
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig настройки метрик Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// SchedulerConfig интервалы фоновых sweep-операций в секундах
// Сервис только исполняет sweep-операции, расписание задаётся здесь
type SchedulerConfig struct {
	Enabled                bool `toml:"enabled"`
	CleanupIntervalSeconds int  `toml:"cleanup_interval_seconds"`
	ExpireIntervalSeconds  int  `toml:"expire_interval_seconds"`
}

// LoyaltyConfig константы программы лояльности
type LoyaltyConfig struct {
	PointsPerCurrencyUnit float64 `toml:"points_per_currency_unit"`
	PointValue            float64 `toml:"point_value"`
	MinRedeemPoints       int64   `toml:"min_redeem_points"`
	ExpiryMonths          int     `toml:"expiry_months"`
}

// Load читает конфигурацию из TOML-файла и подставляет значения по умолчанию
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Scheduler.CleanupIntervalSeconds == 0 {
		c.Scheduler.CleanupIntervalSeconds = 300
	}
	if c.Scheduler.ExpireIntervalSeconds == 0 {
		c.Scheduler.ExpireIntervalSeconds = 3600
	}
	if c.Loyalty.PointsPerCurrencyUnit == 0 {
		c.Loyalty.PointsPerCurrencyUnit = domain.DefaultPointsPerCurrencyUnit
	}
	if c.Loyalty.PointValue == 0 {
		c.Loyalty.PointValue = domain.DefaultPointValue
	}
	if c.Loyalty.MinRedeemPoints == 0 {
		c.Loyalty.MinRedeemPoints = domain.DefaultMinRedeemPoints
	}
	if c.Loyalty.ExpiryMonths == 0 {
		c.Loyalty.ExpiryMonths = domain.DefaultExpiryMonths
	}
}
