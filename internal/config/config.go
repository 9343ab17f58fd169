package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/cerberus-crm/booking-service/internal/domain"
)

// Config конфигурация сервиса
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Logs      LogsConfig      `toml:"logs"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Billing   BillingConfig   `toml:"billing"`
	Mailer    ClientConfig    `toml:"mailer"`
	PDFRender ClientConfig    `toml:"pdfrender"`
}

// ServerConfig настройки HTTP сервера
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

// DSN возвращает строку подключения к базе данных
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig настройки метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// BillingConfig настройки биллинга
type BillingConfig struct {
	Currency       string `toml:"currency"`
	InvoiceDueDays int    `toml:"invoice_due_days"`
}

// ClientConfig настройки интеграционного клиента
type ClientConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
}

// Load загружает конфигурацию из TOML файла.
// Переменные окружения (в том числе из .env) перекрывают
// чувствительные параметры файла
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	// .env опционален, в production переменные приходят из окружения
	_ = godotenv.Load()

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.DBName = v
	}
	if v := os.Getenv("MAILER_URL"); v != "" {
		cfg.Mailer.URL = v
	}
	if v := os.Getenv("PDFRENDER_URL"); v != "" {
		cfg.PDFRender.URL = v
	}
}

func (c *Config) validate() error {
	if c.Server.HTTPPort <= 0 {
		return fmt.Errorf("config: server.http_port must be positive")
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("config: database.host and database.dbname are required")
	}
	if c.Billing.Currency == "" {
		return fmt.Errorf("config: billing.currency is required")
	}
	if c.Billing.InvoiceDueDays < 0 {
		return fmt.Errorf("config: billing.invoice_due_days must not be negative")
	}
	if c.Billing.InvoiceDueDays == 0 {
		c.Billing.InvoiceDueDays = domain.DefaultInvoiceDueDays
	}
	return nil
}
