package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var validEnvs = map[string]bool{
	"local": true,
	"alpha": true,
	"beta":  true,
	"prod":  true,
}

const (
	MailProviderResend = "resend"
	MailProviderSES    = "ses"
	MailProviderLog    = "log"
)

type Config struct {
	ServerPort  string `koanf:"server_port"`
	AppEnv      string `koanf:"app_env"`
	AuthDevMode bool   `koanf:"auth_dev_mode"`
	LogLevel    string `koanf:"log_level"`
	AutoMigrate bool   `koanf:"auto_migrate"`
	Timezone    string `koanf:"app_timezone"`
	AppURL      string `koanf:"app_url"`

	DB      DBConfig      `koanf:"db"`
	Cognito CognitoConfig `koanf:"cognito"`
	Redis   RedisConfig   `koanf:"redis"`
	Mail    MailConfig    `koanf:"mail"`
	Resend  ResendConfig  `koanf:"resend"`
	SES     SESConfig     `koanf:"ses"`
	Notify  NotifyConfig  `koanf:"notify"`
	Cron    CronConfig    `koanf:"cron"`
}

func (c Config) ParseLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Location returns the timezone that defines "today" for candidates, overdue
// flags and notifications.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid SERVER_PORT %q: %w", c.ServerPort, err)
	}
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}
	if c.AuthDevMode && c.AppEnv != "local" {
		return fmt.Errorf("AUTH_DEV_MODE must not be enabled in %s environment", c.AppEnv)
	}
	if !c.AuthDevMode {
		if c.Cognito.UserPoolID == "" {
			return fmt.Errorf("COGNITO_USER_POOL_ID is required when AUTH_DEV_MODE is disabled")
		}
		if c.Cognito.AppClientID == "" {
			return fmt.Errorf("COGNITO_APP_CLIENT_ID is required when AUTH_DEV_MODE is disabled")
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	switch c.Mail.Provider {
	case MailProviderResend:
		if c.Resend.APIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required when MAIL_PROVIDER is resend")
		}
	case MailProviderSES:
		if c.SES.Region == "" {
			return fmt.Errorf("SES_REGION is required when MAIL_PROVIDER is ses")
		}
	case MailProviderLog:
		if c.AppEnv == "prod" {
			return fmt.Errorf("MAIL_PROVIDER log must not be used in prod")
		}
	default:
		return fmt.Errorf("invalid MAIL_PROVIDER %q: must be one of resend, ses, log", c.Mail.Provider)
	}

	if _, err := c.Notify.ParseThresholds(); err != nil {
		return err
	}
	if c.Notify.Concurrency < 1 {
		return fmt.Errorf("NOTIFY_CONCURRENCY must be at least 1, got %d", c.Notify.Concurrency)
	}
	if c.Notify.SendInterval < 0 || c.Notify.SendTimeout <= 0 || c.Notify.LogTimeout <= 0 {
		return fmt.Errorf("notify timeouts must be positive and NOTIFY_SEND_INTERVAL not negative")
	}
	if c.Cron.Secret == "" && c.AppEnv == "prod" {
		return fmt.Errorf("CRON_SECRET is required in prod")
	}
	return nil
}

type DBConfig struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	SSLMode  string `koanf:"sslmode"`
}

func (d DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(d.SSLMode)),
	}
	return u.String()
}

type CognitoConfig struct {
	Region      string `koanf:"region"`
	UserPoolID  string `koanf:"user_pool_id"`
	AppClientID string `koanf:"app_client_id"`
}

// RedisConfig configures the topic view cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl"`
}

type MailConfig struct {
	Provider string `koanf:"provider"`
	From     string `koanf:"from"`
}

type ResendConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type SESConfig struct {
	Region string `koanf:"region"`
}

type NotifyConfig struct {
	// Thresholds is a comma separated list of days before the due date.
	Thresholds   string        `koanf:"thresholds"`
	Concurrency  int           `koanf:"concurrency"`
	SendInterval time.Duration `koanf:"send_interval"`
	SendTimeout  time.Duration `koanf:"send_timeout"`
	LogTimeout   time.Duration `koanf:"log_timeout"`
}

// ParseThresholds returns the notification thresholds in days.
func (n NotifyConfig) ParseThresholds() ([]int, error) {
	var out []int
	for _, part := range strings.Split(n.Thresholds, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid NOTIFY_THRESHOLDS entry %q: must be a non-negative integer", part)
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("NOTIFY_THRESHOLDS must list at least one day")
	}
	return out, nil
}

// CronConfig guards the dispatch trigger. A non-empty Schedule also runs the
// dispatcher in-process on that cron expression.
type CronConfig struct {
	Secret   string `koanf:"secret"`
	Schedule string `koanf:"schedule"`
}

func defaults() map[string]any {
	return map[string]any{
		"server_port":   "8080",
		"app_env":       "local",
		"auth_dev_mode": false,
		"log_level":     "info",
		"auto_migrate":  false,
		"app_timezone":  "Europe/Paris",
		"app_url":       "https://payetavie.fr",
		"db": map[string]any{
			"host":     "localhost",
			"port":     "5432",
			"user":     "payetavie",
			"password": "payetavie",
			"name":     "payetavie",
			"sslmode":  "disable",
		},
		"cognito": map[string]any{
			"region": "eu-west-3",
		},
		"redis": map[string]any{
			"db":  0,
			"ttl": "10m",
		},
		"mail": map[string]any{
			"provider": MailProviderLog,
			"from":     "PayeTaVie <onboarding@resend.dev>",
		},
		"resend": map[string]any{
			"base_url": "https://api.resend.com",
		},
		"ses": map[string]any{
			"region": "eu-west-3",
		},
		"notify": map[string]any{
			"thresholds":    "0,1,3,7",
			"concurrency":   1,
			"send_interval": "600ms",
			"send_timeout":  "10s",
			"log_timeout":   "5s",
		},
	}
}

// envKeys maps environment variables to configuration keys.
var envKeys = map[string]string{
	"SERVER_PORT":           "server_port",
	"APP_ENV":               "app_env",
	"AUTH_DEV_MODE":         "auth_dev_mode",
	"LOG_LEVEL":             "log_level",
	"AUTO_MIGRATE":          "auto_migrate",
	"APP_TIMEZONE":          "app_timezone",
	"APP_URL":               "app_url",
	"DB_HOST":               "db.host",
	"DB_PORT":               "db.port",
	"DB_USER":               "db.user",
	"DB_PASSWORD":           "db.password",
	"DB_NAME":               "db.name",
	"DB_SSLMODE":            "db.sslmode",
	"COGNITO_REGION":        "cognito.region",
	"COGNITO_USER_POOL_ID":  "cognito.user_pool_id",
	"COGNITO_APP_CLIENT_ID": "cognito.app_client_id",
	"REDIS_ADDR":            "redis.addr",
	"REDIS_PASSWORD":        "redis.password",
	"REDIS_DB":              "redis.db",
	"REDIS_TTL":             "redis.ttl",
	"MAIL_PROVIDER":         "mail.provider",
	"MAIL_FROM":             "mail.from",
	"RESEND_API_KEY":        "resend.api_key",
	"RESEND_BASE_URL":       "resend.base_url",
	"SES_REGION":            "ses.region",
	"NOTIFY_THRESHOLDS":     "notify.thresholds",
	"NOTIFY_CONCURRENCY":    "notify.concurrency",
	"NOTIFY_SEND_INTERVAL":  "notify.send_interval",
	"NOTIFY_SEND_TIMEOUT":   "notify.send_timeout",
	"NOTIFY_LOG_TIMEOUT":    "notify.log_timeout",
	"CRON_SECRET":           "cron.secret",
	"CRON_SCHEDULE":         "cron.schedule",
}

// Load reads defaults, then the YAML file at path when it exists, then the
// environment. Empty environment variables are ignored.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		name, ok := envKeys[key]
		if !ok || value == "" {
			return "", nil
		}
		return name, value
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
