package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int           `yaml:"port"`
		ReadTimeout    time.Duration `yaml:"readTimeout"`
		WriteTimeout   time.Duration `yaml:"writeTimeout"`
		AllowedOrigins []string      `yaml:"allowedOrigins"`
		RateLimit      struct {
			Capacity   int `yaml:"capacity"`
			RefillRate int `yaml:"refillRate"` // tokens per minute
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Analyzer struct {
		Provider   string        `yaml:"provider"` // webhook | openai
		WebhookURL string        `yaml:"webhookURL"`
		Timeout    time.Duration `yaml:"timeout"`
		RetryMax   int           `yaml:"retryMax"`
		SessionTTL time.Duration `yaml:"sessionTTL"` // settled results are forgotten after this
		OpenAI     struct {
			APIKey string `yaml:"apiKey"`
			Model  string `yaml:"model"`
		} `yaml:"openai"`
	} `yaml:"analyzer"`

	Identity struct {
		Mode        string            `yaml:"mode"` // header | apikey | provider
		Header      string            `yaml:"header"`
		APIKeys     map[string]string `yaml:"apiKeys"`
		ProviderURL string            `yaml:"providerURL"`
		Cookie      string            `yaml:"cookie"`
	} `yaml:"identity"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres | sqlite
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		Path     string `yaml:"path"`
		Table    string `yaml:"table"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	History struct {
		PageSize     int  `yaml:"pageSize"`
		StoreResults bool `yaml:"storeResults"`
	} `yaml:"history"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		Prefix     string `yaml:"prefix"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`
}

// Load baca file config.yaml, isi default, lalu override dari env
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config", goerr.V("path", path))
	}
	return Parse(data)
}

// Parse decodes YAML config bytes, applies defaults and env overrides, then validates
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse config")
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 90 * time.Second
	}
	if c.Server.RateLimit.Capacity == 0 {
		c.Server.RateLimit.Capacity = 10
	}
	if c.Server.RateLimit.RefillRate == 0 {
		c.Server.RateLimit.RefillRate = 30
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Analyzer.Provider == "" {
		c.Analyzer.Provider = "webhook"
	}
	if c.Analyzer.Timeout == 0 {
		c.Analyzer.Timeout = 60 * time.Second
	}
	if c.Analyzer.SessionTTL == 0 {
		c.Analyzer.SessionTTL = time.Hour
	}
	if c.Identity.Mode == "" {
		c.Identity.Mode = "header"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "greenscan.db"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.History.PageSize == 0 {
		c.History.PageSize = 20
	}
	if c.Minio.Prefix == "" {
		c.Minio.Prefix = "reports"
	}
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&c.Analyzer.WebhookURL, "WEBHOOK_URL")
	override(&c.Analyzer.OpenAI.APIKey, "OPENAI_API_KEY")
	override(&c.Database.Password, "DB_PASSWORD")
	override(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
}

// Validate checks the combinations the server cannot start without
func (c *Config) Validate() error {
	switch c.Analyzer.Provider {
	case "webhook":
		if err := validateEndpoint(c.Analyzer.WebhookURL); err != nil {
			return goerr.Wrap(err, "invalid analyzer.webhookURL")
		}
	case "openai":
		if c.Analyzer.OpenAI.APIKey == "" {
			return goerr.New("analyzer.openai.apiKey is required for the openai provider")
		}
	default:
		return goerr.New("unknown analyzer provider", goerr.V("provider", c.Analyzer.Provider))
	}

	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return goerr.New("unknown database driver", goerr.V("driver", c.Database.Driver))
	}

	if c.Analyzer.RetryMax < 0 {
		return goerr.New("analyzer.retryMax must not be negative")
	}
	return nil
}

// MinioEnabled reports whether reports should be archived
func (c *Config) MinioEnabled() bool {
	return c.Minio.Endpoint != ""
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection URL
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

func validateEndpoint(raw string) error {
	if raw == "" {
		return goerr.New("URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return goerr.Wrap(err, "invalid URL format")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return goerr.New("invalid URL scheme (allowed: http, https)", goerr.V("scheme", u.Scheme))
	}
	if u.Host == "" {
		return goerr.New("URL has no host")
	}
	return nil
}
