package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Upload    UploadConfig    `yaml:"upload" envconfig:"UPLOAD"`
	Data      DataConfig      `yaml:"data" envconfig:"DATA"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST" default:"127.0.0.1"`
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// Address returns the listen address
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"100"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/contestlens.log"`
}

// UploadConfig bounds contest history uploads
type UploadConfig struct {
	MaxBytes          int64    `yaml:"max_bytes" envconfig:"MAX_BYTES" default:"33554432"`
	AllowedExtensions []string `yaml:"allowed_extensions" envconfig:"ALLOWED_EXTENSIONS" default:".csv,.txt,.tsv,.xlsx,.xlsm,.xltx"`
}

// DataConfig controls how records are read and presented
type DataConfig struct {
	Timezone         string `yaml:"timezone" envconfig:"TIMEZONE" default:"America/New_York"`
	DefaultPageSize  int    `yaml:"default_page_size" envconfig:"DEFAULT_PAGE_SIZE" default:"10"`
	CSVByteOrderMark bool   `yaml:"csv_byte_order_mark" envconfig:"CSV_BYTE_ORDER_MARK" default:"true"`
}

// TelemetryConfig selects the OpenTelemetry exporters
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1"`
}

// Load loads configuration from a .env file, environment variables and an
// optional YAML file. Environment variables take precedence over the file.
func Load() (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}
	return LoadWithFile(getConfigFilePath())
}

// LoadWithFile is Load with an explicit YAML path. An empty path skips the file.
func LoadWithFile(configFile string) (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads KEY=VALUE pairs without overriding variables already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs overlays file values onto envConfig wherever the matching
// environment variable is unset and the file value is not zero.
func mergeConfigs(fileConfig, envConfig Config) Config {
	m := merger{}

	// Server config
	m.str("SERVER_HOST", &envConfig.Server.Host, fileConfig.Server.Host)
	m.int("SERVER_PORT", &envConfig.Server.Port, fileConfig.Server.Port)
	m.dur("SERVER_READ_TIMEOUT", &envConfig.Server.ReadTimeout, fileConfig.Server.ReadTimeout)
	m.dur("SERVER_WRITE_TIMEOUT", &envConfig.Server.WriteTimeout, fileConfig.Server.WriteTimeout)
	m.dur("SERVER_IDLE_TIMEOUT", &envConfig.Server.IdleTimeout, fileConfig.Server.IdleTimeout)
	m.int("SERVER_MAX_HEADER_BYTES", &envConfig.Server.MaxHeaderBytes, fileConfig.Server.MaxHeaderBytes)
	m.dur("SERVER_SHUTDOWN_TIMEOUT", &envConfig.Server.ShutdownTimeout, fileConfig.Server.ShutdownTimeout)
	m.dur("SERVER_REQUEST_TIMEOUT", &envConfig.Server.RequestTimeout, fileConfig.Server.RequestTimeout)

	// Security config
	m.list("SECURITY_ALLOWED_ORIGINS", &envConfig.Security.AllowedOrigins, fileConfig.Security.AllowedOrigins)
	m.flag("SECURITY_ENABLE_CORS", &envConfig.Security.EnableCORS, fileConfig.Security.EnableCORS)
	m.flag("SECURITY_RATE_LIMIT_ENABLED", &envConfig.Security.RateLimit.Enabled, fileConfig.Security.RateLimit.Enabled)
	m.float("SECURITY_RATE_LIMIT_RPS", &envConfig.Security.RateLimit.RPS, fileConfig.Security.RateLimit.RPS)
	m.int("SECURITY_RATE_LIMIT_BURST", &envConfig.Security.RateLimit.Burst, fileConfig.Security.RateLimit.Burst)

	// Logging config
	m.str("LOGGING_LEVEL", &envConfig.Logging.Level, fileConfig.Logging.Level)
	m.str("LOGGING_FORMAT", &envConfig.Logging.Format, fileConfig.Logging.Format)
	m.str("LOGGING_OUTPUT", &envConfig.Logging.Output, fileConfig.Logging.Output)
	m.str("LOGGING_FILE_PATH", &envConfig.Logging.FilePath, fileConfig.Logging.FilePath)

	// Upload config
	if !envSet("UPLOAD_MAX_BYTES") && fileConfig.Upload.MaxBytes != 0 {
		envConfig.Upload.MaxBytes = fileConfig.Upload.MaxBytes
	}
	m.list("UPLOAD_ALLOWED_EXTENSIONS", &envConfig.Upload.AllowedExtensions, fileConfig.Upload.AllowedExtensions)

	// Data config
	m.str("DATA_TIMEZONE", &envConfig.Data.Timezone, fileConfig.Data.Timezone)
	m.int("DATA_DEFAULT_PAGE_SIZE", &envConfig.Data.DefaultPageSize, fileConfig.Data.DefaultPageSize)
	m.flag("DATA_CSV_BYTE_ORDER_MARK", &envConfig.Data.CSVByteOrderMark, fileConfig.Data.CSVByteOrderMark)

	// Telemetry config
	m.str("TELEMETRY_ENVIRONMENT", &envConfig.Telemetry.Environment, fileConfig.Telemetry.Environment)
	m.str("TELEMETRY_TRACE_EXPORTER", &envConfig.Telemetry.TraceExporter, fileConfig.Telemetry.TraceExporter)
	m.str("TELEMETRY_METRIC_EXPORTER", &envConfig.Telemetry.MetricExporter, fileConfig.Telemetry.MetricExporter)
	m.float("TELEMETRY_SAMPLE_RATIO", &envConfig.Telemetry.SampleRatio, fileConfig.Telemetry.SampleRatio)

	return envConfig
}

// merger applies one file value per call. Booleans default to true, so the
// file can only switch them off.
type merger struct{}

func envSet(key string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + key)
	return ok
}

func (merger) str(key string, dst *string, v string) {
	if !envSet(key) && v != "" {
		*dst = v
	}
}

func (merger) int(key string, dst *int, v int) {
	if !envSet(key) && v != 0 {
		*dst = v
	}
}

func (merger) float(key string, dst *float64, v float64) {
	if !envSet(key) && v != 0 {
		*dst = v
	}
}

func (merger) dur(key string, dst *time.Duration, v time.Duration) {
	if !envSet(key) && v != 0 {
		*dst = v
	}
}

func (merger) list(key string, dst *[]string, v []string) {
	if !envSet(key) && len(v) > 0 {
		*dst = v
	}
}

func (merger) flag(key string, dst *bool, v bool) {
	if !envSet(key) && !v {
		*dst = v
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit rps must be positive")
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive")
	}

	if len(c.Upload.AllowedExtensions) == 0 {
		return fmt.Errorf("at least one upload extension must be allowed")
	}
	for i, ext := range c.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Upload.AllowedExtensions[i] = ext
	}

	if _, err := time.LoadLocation(c.Data.Timezone); err != nil {
		return fmt.Errorf("invalid data timezone %q: %w", c.Data.Timezone, err)
	}

	switch c.Data.DefaultPageSize {
	case 10, 25, 50:
	default:
		return fmt.Errorf("default page size must be 10, 25 or 50, got %d", c.Data.DefaultPageSize)
	}

	switch c.Telemetry.TraceExporter {
	case "stdout", "none":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", c.Telemetry.TraceExporter)
	}

	switch c.Telemetry.MetricExporter {
	case "prometheus", "none":
	default:
		return fmt.Errorf("unsupported metric exporter: %s", c.Telemetry.MetricExporter)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("trace sample ratio must be within [0, 1]")
	}

	// Logs are always structured JSON
	c.Logging.Format = "json"

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/contestlens.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(ConfigFileEnv); path != "" {
		return path
	}

	// Check for config file in common locations
	locations := []string{
		"contestlens.yaml",
		"configs/contestlens.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   100,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/contestlens.log",
		},
		Upload: UploadConfig{
			MaxBytes:          32 << 20,
			AllowedExtensions: []string{".csv", ".txt", ".tsv", ".xlsx", ".xlsm", ".xltx"},
		},
		Data: DataConfig{
			Timezone:         "America/New_York",
			DefaultPageSize:  10,
			CSVByteOrderMark: true,
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1,
		},
	}
}
