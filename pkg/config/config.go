// Package config loads the immutable deployment configuration. Values come
// from an optional .env file, an optional YAML file and the environment, in
// increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Role selects which half of the system a deployment runs.
type Role string

const (
	RoleDisabled Role = "disabled"
	RoleSender   Role = "sender"
	RoleReceiver Role = "receiver"
)

const (
	DefaultListTimeout     = 10 * time.Second
	DefaultGenerateTimeout = 15 * time.Second
	DefaultQRBaseURL       = "https://api.qrserver.com/v1/create-qr-code/"
)

// Config is built once at startup and passed by value afterwards.
type Config struct {
	Role   Role
	Secret string
	Env    string
	Port   string

	MongoURI string
	MongoDB  string
	RedisURL string

	// Sender
	RemoteURL       string
	Template        string
	ListTimeout     time.Duration
	GenerateTimeout time.Duration
	QRBaseURL       string
	QRSize          int

	// Receiver
	CartURL string

	SMTP SMTPConfig
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Enabled reports whether enough SMTP settings exist to send mail.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.Port != ""
}

type fileConfig struct {
	Role     string `yaml:"role"`
	Secret   string `yaml:"secret"`
	Env      string `yaml:"env"`
	Port     string `yaml:"port"`
	MongoURI string `yaml:"mongo_uri"`
	MongoDB  string `yaml:"mongo_db"`
	RedisURL string `yaml:"redis_url"`
	Sender   struct {
		RemoteURL       string `yaml:"remote_url"`
		Template        string `yaml:"template"`
		ListTimeout     string `yaml:"list_timeout"`
		GenerateTimeout string `yaml:"generate_timeout"`
		QRBaseURL       string `yaml:"qr_base_url"`
		QRSize          int    `yaml:"qr_size"`
	} `yaml:"sender"`
	Receiver struct {
		CartURL string `yaml:"cart_url"`
	} `yaml:"receiver"`
	SMTP struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"smtp"`
}

// GetEnv returns the value of an environment variable or a fallback
func GetEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// Load reads and validates the configuration.
func Load() (Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	var fc fileConfig
	if path := os.Getenv("XSR_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg := Config{
		Role:     Role(strings.ToLower(GetEnv("XSR_ROLE", or(fc.Role, string(RoleDisabled))))),
		Secret:   GetEnv("XSR_SECRET", fc.Secret),
		Env:      GetEnv("APP_ENV", or(fc.Env, "development")),
		Port:     GetEnv("PORT", or(fc.Port, "8080")),
		MongoURI: GetEnv("MONGO_URI", or(fc.MongoURI, "mongodb://localhost:27017")),
		MongoDB:  GetEnv("MONGO_DB", or(fc.MongoDB, "cross_site_rewards")),
		RedisURL: GetEnv("REDIS_URL", or(fc.RedisURL, "redis://localhost:6379/0")),

		RemoteURL: strings.TrimRight(GetEnv("XSR_REMOTE_URL", fc.Sender.RemoteURL), "/"),
		Template:  GetEnv("XSR_TEMPLATE", fc.Sender.Template),
		QRBaseURL: GetEnv("XSR_QR_BASE_URL", or(fc.Sender.QRBaseURL, DefaultQRBaseURL)),
		CartURL:   GetEnv("XSR_CART_URL", fc.Receiver.CartURL),

		SMTP: SMTPConfig{
			Host:     GetEnv("SMTP_HOST", fc.SMTP.Host),
			Port:     GetEnv("SMTP_PORT", fc.SMTP.Port),
			Username: GetEnv("SMTP_USER", fc.SMTP.Username),
			Password: GetEnv("SMTP_PASS", fc.SMTP.Password),
			From:     GetEnv("SMTP_FROM", fc.SMTP.From),
		},
	}

	var err error
	if cfg.ListTimeout, err = duration("XSR_LIST_TIMEOUT", fc.Sender.ListTimeout, DefaultListTimeout); err != nil {
		return Config{}, err
	}
	if cfg.GenerateTimeout, err = duration("XSR_GENERATE_TIMEOUT", fc.Sender.GenerateTimeout, DefaultGenerateTimeout); err != nil {
		return Config{}, err
	}

	cfg.QRSize = fc.Sender.QRSize
	if raw := os.Getenv("XSR_QR_SIZE"); raw != "" {
		if cfg.QRSize, err = strconv.Atoi(raw); err != nil {
			return Config{}, fmt.Errorf("invalid XSR_QR_SIZE %q: %w", raw, err)
		}
	}
	if cfg.QRSize <= 0 {
		cfg.QRSize = 150
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings each role needs.
func (c Config) Validate() error {
	switch c.Role {
	case RoleDisabled:
		return nil
	case RoleSender:
		if c.Secret == "" || c.RemoteURL == "" {
			return fmt.Errorf("sender role requires XSR_SECRET and XSR_REMOTE_URL")
		}
	case RoleReceiver:
		if c.Secret == "" || c.CartURL == "" {
			return fmt.Errorf("receiver role requires XSR_SECRET and XSR_CART_URL")
		}
	default:
		return fmt.Errorf("unknown role %q", c.Role)
	}
	if c.ListTimeout <= 0 || c.GenerateTimeout <= 0 {
		return fmt.Errorf("outbound timeouts must be positive")
	}
	return nil
}

func duration(key, fileValue string, fallback time.Duration) (time.Duration, error) {
	raw := GetEnv(key, fileValue)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
