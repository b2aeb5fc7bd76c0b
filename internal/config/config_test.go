package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alexarts74/payetavie/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD",
		"DB_NAME", "DB_SSLMODE", "APP_ENV", "AUTH_DEV_MODE", "LOG_LEVEL",
		"AUTO_MIGRATE", "APP_TIMEZONE", "APP_URL",
		"COGNITO_REGION", "COGNITO_USER_POOL_ID", "COGNITO_APP_CLIENT_ID",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_TTL",
		"MAIL_PROVIDER", "MAIL_FROM", "RESEND_API_KEY", "RESEND_BASE_URL", "SES_REGION",
		"NOTIFY_THRESHOLDS", "NOTIFY_CONCURRENCY", "NOTIFY_SEND_INTERVAL",
		"NOTIFY_SEND_TIMEOUT", "NOTIFY_LOG_TIMEOUT", "CRON_SECRET", "CRON_SCHEDULE",
	} {
		t.Setenv(key, "")
	}
}

func mustLoad(t *testing.T, path string) config.Config {
	t.Helper()
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := mustLoad(t, "")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ServerPort", cfg.ServerPort, "8080"},
		{"AppEnv", cfg.AppEnv, "local"},
		{"Timezone", cfg.Timezone, "Europe/Paris"},
		{"AppURL", cfg.AppURL, "https://payetavie.fr"},
		{"DB.Host", cfg.DB.Host, "localhost"},
		{"DB.Port", cfg.DB.Port, "5432"},
		{"DB.User", cfg.DB.User, "payetavie"},
		{"DB.Name", cfg.DB.Name, "payetavie"},
		{"DB.SSLMode", cfg.DB.SSLMode, "disable"},
		{"Cognito.Region", cfg.Cognito.Region, "eu-west-3"},
		{"Mail.Provider", cfg.Mail.Provider, "log"},
		{"Resend.BaseURL", cfg.Resend.BaseURL, "https://api.resend.com"},
		{"Notify.Thresholds", cfg.Notify.Thresholds, "0,1,3,7"},
		{"Redis.Addr", cfg.Redis.Addr, ""},
		{"Cron.Schedule", cfg.Cron.Schedule, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}

	t.Run("AuthDevMode", func(t *testing.T) {
		if cfg.AuthDevMode {
			t.Errorf("got AuthDevMode=true, want false")
		}
	})

	t.Run("Notify timings", func(t *testing.T) {
		if cfg.Notify.Concurrency != 1 || cfg.Notify.SendInterval != 600*time.Millisecond ||
			cfg.Notify.SendTimeout != 10*time.Second || cfg.Notify.LogTimeout != 5*time.Second {
			t.Errorf("unexpected notify config %+v", cfg.Notify)
		}
		if cfg.Redis.TTL != 10*time.Minute {
			t.Errorf("redis ttl = %v", cfg.Redis.TTL)
		}
	})
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "db.example.com")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "admin")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "mydb")
	t.Setenv("DB_SSLMODE", "require")
	t.Setenv("APP_ENV", "alpha")
	t.Setenv("AUTH_DEV_MODE", "false")
	t.Setenv("COGNITO_REGION", "us-east-1")
	t.Setenv("COGNITO_USER_POOL_ID", "pool-123")
	t.Setenv("COGNITO_APP_CLIENT_ID", "client-456")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MAIL_PROVIDER", "resend")
	t.Setenv("RESEND_API_KEY", "re_123")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("NOTIFY_SEND_INTERVAL", "1s")
	t.Setenv("NOTIFY_CONCURRENCY", "4")
	t.Setenv("CRON_SECRET", "s3cret")

	cfg := mustLoad(t, "")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ServerPort", cfg.ServerPort, "9090"},
		{"DB.Host", cfg.DB.Host, "db.example.com"},
		{"DB.Port", cfg.DB.Port, "5433"},
		{"DB.User", cfg.DB.User, "admin"},
		{"DB.Password", cfg.DB.Password, "secret"},
		{"DB.Name", cfg.DB.Name, "mydb"},
		{"DB.SSLMode", cfg.DB.SSLMode, "require"},
		{"AppEnv", cfg.AppEnv, "alpha"},
		{"Cognito.Region", cfg.Cognito.Region, "us-east-1"},
		{"Cognito.UserPoolID", cfg.Cognito.UserPoolID, "pool-123"},
		{"Cognito.AppClientID", cfg.Cognito.AppClientID, "client-456"},
		{"LogLevel", cfg.LogLevel, "debug"},
		{"Mail.Provider", cfg.Mail.Provider, "resend"},
		{"Resend.APIKey", cfg.Resend.APIKey, "re_123"},
		{"Redis.Addr", cfg.Redis.Addr, "redis:6379"},
		{"Cron.Secret", cfg.Cron.Secret, "s3cret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}

	if cfg.Notify.SendInterval != time.Second || cfg.Notify.Concurrency != 4 {
		t.Errorf("unexpected notify config %+v", cfg.Notify)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server_port: "7070"
app_timezone: UTC
notify:
  thresholds: "0,2"
  send_interval: 250ms
mail:
  provider: ses
ses:
  region: eu-central-1
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// Environment wins over the file.
	t.Setenv("SERVER_PORT", "6060")

	cfg := mustLoad(t, path)

	if cfg.ServerPort != "6060" {
		t.Errorf("ServerPort = %s, want env override 6060", cfg.ServerPort)
	}
	if cfg.Timezone != "UTC" || cfg.Mail.Provider != "ses" || cfg.SES.Region != "eu-central-1" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Notify.SendInterval != 250*time.Millisecond {
		t.Errorf("SendInterval = %v", cfg.Notify.SendInterval)
	}
	if cfg.DB.Host != "localhost" {
		t.Errorf("defaults should survive a partial file, DB.Host = %s", cfg.DB.Host)
	}
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	clearEnv(t)
	cfg := mustLoad(t, filepath.Join(t.TempDir(), "absent.yaml"))
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %s", cfg.ServerPort)
	}
}

func TestAuthDevMode_CaseInsensitive(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"lowercase true", "true", true},
		{"uppercase TRUE", "TRUE", true},
		{"mixed case True", "True", true},
		{"lowercase false", "false", false},
		{"uppercase FALSE", "FALSE", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("AUTH_DEV_MODE", tt.value)

			cfg := mustLoad(t, "")
			if cfg.AuthDevMode != tt.want {
				t.Errorf("AUTH_DEV_MODE=%q: got %v, want %v", tt.value, cfg.AuthDevMode, tt.want)
			}
		})
	}
}

func TestAuthDevMode_InvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_DEV_MODE", "yes")

	if _, err := config.Load(""); err == nil {
		t.Error("expected error for non-boolean AUTH_DEV_MODE")
	}
}

func TestConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantSub  string
	}{
		{
			name:     "simple password",
			password: "payetavie",
			wantSub:  "payetavie:payetavie@",
		},
		{
			name:     "password with special chars",
			password: "p@ss/w#rd?",
			wantSub:  "payetavie:p%40ss%2Fw%23rd%3F@",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DB_PASSWORD", tt.password)

			cfg := mustLoad(t, "")
			dsn := cfg.DB.DSN()

			if !strings.Contains(dsn, tt.wantSub) {
				t.Errorf("DSN=%s, want to contain %s", dsn, tt.wantSub)
			}
			if !strings.HasPrefix(dsn, "postgres://") {
				t.Errorf("DSN=%s, want postgres:// prefix", dsn)
			}
			if !strings.Contains(dsn, "sslmode=disable") {
				t.Errorf("DSN=%s, want sslmode=disable", dsn)
			}
		})
	}
}

func TestConfig_ParseLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"mixed case Warn", "Warn", slog.LevelWarn},
		{"empty defaults to info", "", slog.LevelInfo},
		{"invalid defaults to info", "verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("LOG_LEVEL", tt.value)

			cfg := mustLoad(t, "")
			got := cfg.ParseLogLevel()

			if got != tt.want {
				t.Errorf("LOG_LEVEL=%q: got %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestConfig_ParseThresholds(t *testing.T) {
	tests := []struct {
		value   string
		want    []int
		wantErr bool
	}{
		{"0,1,3,7", []int{0, 1, 3, 7}, false},
		{" 7 , 0 ", []int{7, 0}, false},
		{"0,,3", []int{0, 3}, false},
		{"", nil, true},
		{"1,-2", nil, true},
		{"1,two", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := config.NotifyConfig{Thresholds: tt.value}.ParseThresholds()
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"valid local dev mode", map[string]string{"AUTH_DEV_MODE": "true"}, ""},
		{"valid alpha", map[string]string{"APP_ENV": "alpha", "COGNITO_USER_POOL_ID": "pool-1", "COGNITO_APP_CLIENT_ID": "client-1"}, ""},
		{"valid prod", map[string]string{
			"SERVER_PORT": "80", "APP_ENV": "prod",
			"COGNITO_USER_POOL_ID": "pool-1", "COGNITO_APP_CLIENT_ID": "client-1",
			"MAIL_PROVIDER": "resend", "RESEND_API_KEY": "re_1", "CRON_SECRET": "s",
		}, ""},
		{"invalid port", map[string]string{"SERVER_PORT": "abc"}, "invalid SERVER_PORT"},
		{"invalid env", map[string]string{"APP_ENV": "staging"}, "invalid APP_ENV"},
		{"dev mode in alpha", map[string]string{"APP_ENV": "alpha", "AUTH_DEV_MODE": "true"}, "AUTH_DEV_MODE must not be enabled"},
		{"dev mode in prod", map[string]string{"APP_ENV": "prod", "AUTH_DEV_MODE": "true"}, "AUTH_DEV_MODE must not be enabled"},
		{"missing pool id non-dev", map[string]string{"COGNITO_APP_CLIENT_ID": "client-1"}, "COGNITO_USER_POOL_ID is required"},
		{"missing client id non-dev", map[string]string{"COGNITO_USER_POOL_ID": "pool-1"}, "COGNITO_APP_CLIENT_ID is required"},
		{"bad timezone", map[string]string{"AUTH_DEV_MODE": "true", "APP_TIMEZONE": "Mars/Olympus"}, "invalid APP_TIMEZONE"},
		{"resend without key", map[string]string{"AUTH_DEV_MODE": "true", "MAIL_PROVIDER": "resend"}, "RESEND_API_KEY is required"},
		{"unknown mail provider", map[string]string{"AUTH_DEV_MODE": "true", "MAIL_PROVIDER": "smtp"}, "invalid MAIL_PROVIDER"},
		{"log mail in prod", map[string]string{
			"APP_ENV": "prod", "COGNITO_USER_POOL_ID": "pool-1", "COGNITO_APP_CLIENT_ID": "client-1", "CRON_SECRET": "s",
		}, "MAIL_PROVIDER log must not be used in prod"},
		{"prod without cron secret", map[string]string{
			"APP_ENV": "prod", "COGNITO_USER_POOL_ID": "pool-1", "COGNITO_APP_CLIENT_ID": "client-1",
			"MAIL_PROVIDER": "ses",
		}, "CRON_SECRET is required"},
		{"bad thresholds", map[string]string{"AUTH_DEV_MODE": "true", "NOTIFY_THRESHOLDS": "x"}, "invalid NOTIFY_THRESHOLDS"},
		{"zero concurrency", map[string]string{"AUTH_DEV_MODE": "true", "NOTIFY_CONCURRENCY": "0"}, "NOTIFY_CONCURRENCY must be at least 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := mustLoad(t, "")
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("expected error containing %q, got nil", tt.wantErr)
				} else if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}
