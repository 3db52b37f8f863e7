// Package config загружает конфигурацию сервиса из значений по умолчанию,
// JSON файла, флагов командной строки и переменных окружения.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
)

const (
	// StrategyProxy: инвойсы запрашиваются через прокси платежного сервиса
	StrategyProxy = "proxy"
	// StrategyDirect: инвойсы запрашиваются напрямую по lnurl-pay
	StrategyDirect = "direct"
)

// Config хранит конфигурацию приложения.
type Config struct {
	ConfigFile            string        `env:"CONFIG"`                   // Путь к JSON файлу конфигурации
	ServerAddress         string        `env:"SERVER_ADDRESS"`           // Адрес для запуска HTTP-сервера
	PaymentServiceBaseURL string        `env:"PAYMENT_SERVICE_BASE_URL"` // Базовый адрес API платежного сервиса
	ProxyEndpoint         string        `env:"PROXY_ENDPOINT"`           // Адрес прокси для получения инвойсов
	PerCallTimeout        time.Duration `env:"PER_CALL_TIMEOUT"`         // Таймаут одного внешнего вызова
	AuthSecret            string        `env:"ALBY_JWT"`                 // Секрет для проверки JWT сессии
	InvoiceStrategy       string        `env:"INVOICE_STRATEGY"`         // proxy или direct
	ResolveWorkers        int           `env:"RESOLVE_WORKERS"`          // Число параллельных получателей-адресов
	DatabaseDSN           string        `env:"DATABASE_DSN"`             // Строка подключения к PostgreSQL
	FileStoragePath       string        `env:"FILE_STORAGE_PATH"`        // Путь к файлу хранилища библиотек
	EnableHTTPS           string        `env:"ENABLE_HTTPS"`             // Любое непустое значение включает HTTPS
	TLSCertFile           string        `env:"TLS_CERT_FILE"`            // Сертификат TLS
	TLSKeyFile            string        `env:"TLS_KEY_FILE"`             // Ключ TLS
	RateLimitRPS          float64       `env:"RATE_LIMIT_RPS"`           // Запросов в секунду с одного IP, 0 отключает
	RateLimitBurst        int           `env:"RATE_LIMIT_BURST"`         // Допустимый всплеск запросов
	MetricsNamespace      string        `env:"METRICS_NAMESPACE"`        // Пустое значение отключает метрики
}

// JSONConfig описывает JSON файл конфигурации. Отсутствующие поля не меняют значения.
type JSONConfig struct {
	ServerAddress         *string  `json:"server_address,omitempty"`
	PaymentServiceBaseURL *string  `json:"payment_service_base_url,omitempty"`
	ProxyEndpoint         *string  `json:"proxy_endpoint,omitempty"`
	PerCallTimeout        *string  `json:"per_call_timeout,omitempty"`
	AuthSecret            *string  `json:"alby_jwt,omitempty"`
	InvoiceStrategy       *string  `json:"invoice_strategy,omitempty"`
	ResolveWorkers        *int     `json:"resolve_workers,omitempty"`
	DatabaseDSN           *string  `json:"database_dsn,omitempty"`
	FileStoragePath       *string  `json:"file_storage_path,omitempty"`
	EnableHTTPS           *bool    `json:"enable_https,omitempty"`
	TLSCertFile           *string  `json:"tls_cert_file,omitempty"`
	TLSKeyFile            *string  `json:"tls_key_file,omitempty"`
	RateLimitRPS          *float64 `json:"rate_limit_rps,omitempty"`
	RateLimitBurst        *int     `json:"rate_limit_burst,omitempty"`
	MetricsNamespace      *string  `json:"metrics_namespace,omitempty"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		ServerAddress:         ":8080",
		PaymentServiceBaseURL: "https://api.getalby.com",
		ProxyEndpoint:         "https://api.getalby.com/lnurl/generate-invoice",
		PerCallTimeout:        20 * time.Second,
		InvoiceStrategy:       StrategyProxy,
		ResolveWorkers:        1,
		TLSCertFile:           "server.crt",
		TLSKeyFile:            "server.key",
		RateLimitRPS:          10,
		RateLimitBurst:        20,
		MetricsNamespace:      "lnboost",
	}
}

// NewConfig инициализирует конфигурацию, читая флаги и переменные окружения.
func NewConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load собирает конфигурацию с приоритетом: env > флаги > JSON файл > значения по умолчанию.
func Load(args []string) (*Config, error) {
	cfg := Default()

	// 1. Определение флагов командной строки
	fs := flag.NewFlagSet("lnboost", flag.ContinueOnError)
	fs.StringVar(&cfg.ConfigFile, "c", "", "Путь к JSON файлу конфигурации (env: CONFIG)")
	fs.StringVar(&cfg.ServerAddress, "a", cfg.ServerAddress, "Адрес запуска HTTP-сервера (env: SERVER_ADDRESS)")
	fs.StringVar(&cfg.PaymentServiceBaseURL, "p", cfg.PaymentServiceBaseURL, "Базовый адрес платежного API (env: PAYMENT_SERVICE_BASE_URL)")
	fs.StringVar(&cfg.ProxyEndpoint, "x", cfg.ProxyEndpoint, "Адрес прокси инвойсов (env: PROXY_ENDPOINT)")
	fs.DurationVar(&cfg.PerCallTimeout, "t", cfg.PerCallTimeout, "Таймаут внешнего вызова (env: PER_CALL_TIMEOUT)")
	fs.StringVar(&cfg.InvoiceStrategy, "i", cfg.InvoiceStrategy, "Способ получения инвойсов: proxy|direct (env: INVOICE_STRATEGY)")
	fs.IntVar(&cfg.ResolveWorkers, "w", cfg.ResolveWorkers, "Число параллельных платежей по адресам (env: RESOLVE_WORKERS)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "Строка подключения к БД (env: DATABASE_DSN)")
	fs.StringVar(&cfg.FileStoragePath, "f", cfg.FileStoragePath, "Путь к файлу хранилища (env: FILE_STORAGE_PATH)")
	fs.StringVar(&cfg.EnableHTTPS, "s", cfg.EnableHTTPS, "Включить HTTPS (env: ENABLE_HTTPS)")

	// 2. Парсинг флагов командной строки
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// 3. JSON файл имеет низший приоритет: применяем его только к полям, не заданным флагами
	if path := configFilePath(cfg.ConfigFile); path != "" {
		jsonConfig, err := loadJSONConfig(path)
		if err != nil {
			return nil, err
		}
		explicit := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		flagged := *cfg
		cfg.applyJSONConfig(jsonConfig)
		cfg.restoreFlags(&flagged, explicit)
	}

	// 4. Парсинг переменных окружения (имеет наивысший приоритет)
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFilePath(fromFlag string) string {
	if v, ok := os.LookupEnv("CONFIG"); ok && v != "" {
		return v
	}
	return fromFlag
}

// loadJSONConfig читает JSON файл конфигурации. Отсутствующий файл не считается ошибкой.
func loadJSONConfig(filename string) (*JSONConfig, error) {
	cfg := &JSONConfig{}
	if filename == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return cfg, nil
}

// applyJSONConfig переносит заданные в JSON значения в конфигурацию
func (c *Config) applyJSONConfig(j *JSONConfig) {
	if j.ServerAddress != nil {
		c.ServerAddress = *j.ServerAddress
	}
	if j.PaymentServiceBaseURL != nil {
		c.PaymentServiceBaseURL = *j.PaymentServiceBaseURL
	}
	if j.ProxyEndpoint != nil {
		c.ProxyEndpoint = *j.ProxyEndpoint
	}
	if j.PerCallTimeout != nil {
		if d, err := time.ParseDuration(*j.PerCallTimeout); err == nil {
			c.PerCallTimeout = d
		}
	}
	if j.AuthSecret != nil {
		c.AuthSecret = *j.AuthSecret
	}
	if j.InvoiceStrategy != nil {
		c.InvoiceStrategy = *j.InvoiceStrategy
	}
	if j.ResolveWorkers != nil {
		c.ResolveWorkers = *j.ResolveWorkers
	}
	if j.DatabaseDSN != nil {
		c.DatabaseDSN = *j.DatabaseDSN
	}
	if j.FileStoragePath != nil {
		c.FileStoragePath = *j.FileStoragePath
	}
	if j.EnableHTTPS != nil {
		if *j.EnableHTTPS {
			c.EnableHTTPS = "true"
		} else {
			c.EnableHTTPS = ""
		}
	}
	if j.TLSCertFile != nil {
		c.TLSCertFile = *j.TLSCertFile
	}
	if j.TLSKeyFile != nil {
		c.TLSKeyFile = *j.TLSKeyFile
	}
	if j.RateLimitRPS != nil {
		c.RateLimitRPS = *j.RateLimitRPS
	}
	if j.RateLimitBurst != nil {
		c.RateLimitBurst = *j.RateLimitBurst
	}
	if j.MetricsNamespace != nil {
		c.MetricsNamespace = *j.MetricsNamespace
	}
}

// restoreFlags возвращает значения, явно заданные флагами, поверх JSON конфигурации
func (c *Config) restoreFlags(flagged *Config, explicit map[string]bool) {
	if explicit["a"] {
		c.ServerAddress = flagged.ServerAddress
	}
	if explicit["p"] {
		c.PaymentServiceBaseURL = flagged.PaymentServiceBaseURL
	}
	if explicit["x"] {
		c.ProxyEndpoint = flagged.ProxyEndpoint
	}
	if explicit["t"] {
		c.PerCallTimeout = flagged.PerCallTimeout
	}
	if explicit["i"] {
		c.InvoiceStrategy = flagged.InvoiceStrategy
	}
	if explicit["w"] {
		c.ResolveWorkers = flagged.ResolveWorkers
	}
	if explicit["d"] {
		c.DatabaseDSN = flagged.DatabaseDSN
	}
	if explicit["f"] {
		c.FileStoragePath = flagged.FileStoragePath
	}
	if explicit["s"] {
		c.EnableHTTPS = flagged.EnableHTTPS
	}
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	if c.InvoiceStrategy != StrategyProxy && c.InvoiceStrategy != StrategyDirect {
		return fmt.Errorf("unknown invoice strategy %q", c.InvoiceStrategy)
	}
	if c.PerCallTimeout <= 0 {
		return fmt.Errorf("per-call timeout must be positive, got %s", c.PerCallTimeout)
	}
	if c.ResolveWorkers < 1 {
		return fmt.Errorf("resolve workers must be at least 1, got %d", c.ResolveWorkers)
	}
	return nil
}

// IsHTTPSEnabled сообщает, нужно ли запускать сервер с TLS
func (c *Config) IsHTTPSEnabled() bool {
	return c.EnableHTTPS != ""
}
