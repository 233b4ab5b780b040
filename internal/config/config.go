package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	DB struct {
		DSN string `yaml:"dsn"`
	} `yaml:"db"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	PagSeguro struct {
		Email          string `yaml:"email"`
		Token          string `yaml:"token"`
		Sandbox        bool   `yaml:"sandbox"`
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"pagseguro"`
	Notes struct {
		ShipmentDeadline bool `yaml:"shipment_deadline"`
	} `yaml:"notes"`
	Shipping struct {
		Holidays       []string          `yaml:"holidays"`
		CarrierTransit map[string]string `yaml:"carrier_transit"`
	} `yaml:"shipping"`
	Notifications struct {
		DefaultLanguage string `yaml:"default_language"`
		From            string `yaml:"from"`
		SMTP            struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Username string `yaml:"username"`
			Password string `yaml:"password"`
		} `yaml:"smtp"`
	} `yaml:"notifications"`
	Worker struct {
		IntervalSeconds int64 `yaml:"interval_seconds"`
		BatchSize       int   `yaml:"batch_size"`
		MaxAttempts     int   `yaml:"max_attempts"`
	} `yaml:"worker"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML, applies env overrides and defaults, then validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if cfg.Server.Addr == "" {
		return nil, errors.New("server.addr is required")
	}
	if cfg.DB.DSN == "" {
		return nil, errors.New("db.dsn is required")
	}
	if cfg.PagSeguro.Email == "" || cfg.PagSeguro.Token == "" {
		return nil, errors.New("pagseguro.email and pagseguro.token are required")
	}
	if _, err := language.Parse(cfg.Notifications.DefaultLanguage); err != nil {
		return nil, fmt.Errorf("notifications.default_language: %w", err)
	}
	return &cfg, nil
}

func (c *Config) PagSeguroTimeout() time.Duration {
	return time.Duration(c.PagSeguro.TimeoutSeconds) * time.Second
}

func (c *Config) WorkerInterval() time.Duration {
	return time.Duration(c.Worker.IntervalSeconds) * time.Second
}

// DefaultLanguage is validated in Parse.
func (c *Config) DefaultLanguage() language.Tag {
	tag, err := language.Parse(c.Notifications.DefaultLanguage)
	if err != nil {
		return language.BrazilianPortuguese
	}
	return tag
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.PagSeguro.TimeoutSeconds <= 0 {
		cfg.PagSeguro.TimeoutSeconds = 15
	}
	if cfg.Notifications.DefaultLanguage == "" {
		cfg.Notifications.DefaultLanguage = "pt-BR"
	}
	if cfg.Notifications.SMTP.Port == 0 {
		cfg.Notifications.SMTP.Port = 587
	}
	if cfg.Worker.IntervalSeconds <= 0 {
		cfg.Worker.IntervalSeconds = 10
	}
	if cfg.Worker.BatchSize <= 0 {
		cfg.Worker.BatchSize = 50
	}
	if cfg.Worker.MaxAttempts <= 0 {
		cfg.Worker.MaxAttempts = 5
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PAGSEGURO_EMAIL"); v != "" {
		cfg.PagSeguro.Email = v
	}
	if v := os.Getenv("PAGSEGURO_TOKEN"); v != "" {
		cfg.PagSeguro.Token = v
	}
	if v := os.Getenv("PAGSEGURO_SANDBOX"); v != "" {
		cfg.PagSeguro.Sandbox = boolOr(cfg.PagSeguro.Sandbox, v)
	}
	if v := os.Getenv("PAGSEGURO_BASE_URL"); v != "" {
		cfg.PagSeguro.BaseURL = v
	}
	if v := os.Getenv("PAGSEGURO_TIMEOUT_SECONDS"); v != "" {
		cfg.PagSeguro.TimeoutSeconds = atoiOr(cfg.PagSeguro.TimeoutSeconds, v)
	}
	if v := os.Getenv("SHIPMENT_DEADLINE_NOTE"); v != "" {
		cfg.Notes.ShipmentDeadline = boolOr(cfg.Notes.ShipmentDeadline, v)
	}
	if v := os.Getenv("SHIPPING_HOLIDAYS"); v != "" {
		cfg.Shipping.Holidays = splitCommaList(v)
	}
	if v := os.Getenv("NOTIFICATIONS_DEFAULT_LANGUAGE"); v != "" {
		cfg.Notifications.DefaultLanguage = v
	}
	if v := os.Getenv("NOTIFICATIONS_FROM"); v != "" {
		cfg.Notifications.From = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Notifications.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		cfg.Notifications.SMTP.Port = atoiOr(cfg.Notifications.SMTP.Port, v)
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.Notifications.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Notifications.SMTP.Password = v
	}
	if v := os.Getenv("WORKER_INTERVAL_SECONDS"); v != "" {
		cfg.Worker.IntervalSeconds = atoi64Or(cfg.Worker.IntervalSeconds, v)
	}
	if v := os.Getenv("WORKER_BATCH_SIZE"); v != "" {
		cfg.Worker.BatchSize = atoiOr(cfg.Worker.BatchSize, v)
	}
	if v := os.Getenv("WORKER_MAX_ATTEMPTS"); v != "" {
		cfg.Worker.MaxAttempts = atoiOr(cfg.Worker.MaxAttempts, v)
	}
}

func splitCommaList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func atoiOr(fallback int, v string) int {
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func atoi64Or(fallback int64, v string) int64 {
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func boolOr(fallback bool, v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return b
}
