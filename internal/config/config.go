// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

// Package config holds the application configuration and its CLI flags.
package config

import (
	"fmt"
	"strings"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Session  SessionConfig
	Email    EmailConfig
	Storage  StorageConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

type SessionConfig struct { //nolint:govet // fieldalignment not critical
	CookieName string // Session cookie name
	MaxAge     int    // Session max age in seconds
	HashKey    string // 32-byte hex string for HMAC signing
	BlockKey   string // 32-byte hex string for AES encryption (optional)
}

type EmailConfig struct { //nolint:govet // fieldalignment not critical
	Driver   string // mailgun, smtp
	APIKey   string // Mailgun API key
	Domain   string // Mailgun sending domain
	Endpoint string // Override for the API base URL (tests, EU region)
	From     string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPTLS      bool
}

type StorageConfig struct { //nolint:govet // fieldalignment not critical
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	Endpoint  string // S3-compatible custom endpoint, empty for AWS
}

// NewFromCLI builds the configuration from parsed CLI flags.
func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		Session: SessionConfig{
			CookieName: cmd.String("session-cookie-name"),
			MaxAge:     int(cmd.Int("session-max-age")),
			HashKey:    cmd.String("session-hash-key"),
			BlockKey:   cmd.String("session-block-key"),
		},
		Email: EmailConfig{
			Driver:       cmd.String("email-driver"),
			APIKey:       cmd.String("email-api-key"),
			Domain:       cmd.String("email-domain"),
			Endpoint:     cmd.String("email-endpoint"),
			From:         cmd.String("email-from"),
			SMTPHost:     cmd.String("smtp-host"),
			SMTPPort:     int(cmd.Int("smtp-port")),
			SMTPUsername: cmd.String("smtp-username"),
			SMTPPassword: cmd.String("smtp-password"),
			SMTPTLS:      cmd.Bool("smtp-tls"),
		},
		Storage: StorageConfig{
			AccessKey: cmd.String("storage-access-key"),
			SecretKey: cmd.String("storage-secret-key"),
			Region:    cmd.String("storage-region"),
			Bucket:    cmd.String("storage-bucket"),
			Endpoint:  cmd.String("storage-endpoint"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}

	return cfg
}

// CookieSecure reports whether session cookies should be HTTPS-only,
// derived from the base URL scheme.
func (c *Config) CookieSecure() bool {
	return strings.HasPrefix(c.Server.BaseURL, "https://")
}

// StorageEnabled reports whether object storage is configured.
func (c *StorageConfig) StorageEnabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	port := cfg.Server.Port

	if port == 80 {
		return fmt.Sprintf("http://%s", host)
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: cli.NewValueSourceChain(cli.EnvVar("HOST"), toml.TOML("server.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PORT"), toml.TOML("server.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL for the application",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BASE_URL"), toml.TOML("server.base_url", configFile)),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   5,
			Usage:   "Maximum request body size in MB",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAX_BODY_SIZE"), toml.TOML("server.max_body_size", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_LEVEL"), toml.TOML("log.level", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_FORMAT"), toml.TOML("log.format", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/brewlog.db",
			Usage:   "Database DSN",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DSN"), toml.TOML("database.dsn", configFile)),
		},
		// Session flags
		&cli.StringFlag{
			Name:    "session-cookie-name",
			Value:   "_session",
			Usage:   "Session cookie name",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_COOKIE_NAME"), toml.TOML("session.cookie_name", configFile)),
		},
		&cli.IntFlag{
			Name:    "session-max-age",
			Value:   604800, // 7 days in seconds
			Usage:   "Session max age in seconds",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_MAX_AGE"), toml.TOML("session.max_age", configFile)),
		},
		&cli.StringFlag{
			Name:    "session-hash-key",
			Usage:   "Session hash key (32-byte hex)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_HASH_KEY"), toml.TOML("session.hash_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "session-block-key",
			Usage:   "Session block key for encryption (32-byte hex, optional)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_BLOCK_KEY"), toml.TOML("session.block_key", configFile)),
		},
		// Email flags
		&cli.StringFlag{
			Name:    "email-driver",
			Value:   "mailgun",
			Usage:   "Email driver (mailgun, smtp)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("EMAIL_DRIVER"), toml.TOML("email.driver", configFile)),
		},
		&cli.StringFlag{
			Name:    "email-api-key",
			Usage:   "Mailgun API key",
			Sources: cli.NewValueSourceChain(cli.EnvVar("EMAIL_API_KEY"), toml.TOML("email.api_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "email-domain",
			Usage:   "Mailgun sending domain",
			Sources: cli.NewValueSourceChain(cli.EnvVar("EMAIL_DOMAIN"), toml.TOML("email.domain", configFile)),
		},
		&cli.StringFlag{
			Name:    "email-endpoint",
			Usage:   "Override for the email API base URL",
			Sources: cli.NewValueSourceChain(cli.EnvVar("EMAIL_ENDPOINT"), toml.TOML("email.endpoint", configFile)),
		},
		&cli.StringFlag{
			Name:    "email-from",
			Usage:   "From address for outgoing mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("EMAIL_FROM"), toml.TOML("email.from", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP host (smtp driver)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_HOST"), toml.TOML("email.smtp_host", configFile)),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP port (smtp driver)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PORT"), toml.TOML("email.smtp_port", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_USERNAME"), toml.TOML("email.smtp_username", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PASSWORD"), toml.TOML("email.smtp_password", configFile)),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_TLS"), toml.TOML("email.smtp_tls", configFile)),
		},
		// Object storage flags
		&cli.StringFlag{
			Name:    "storage-access-key",
			Usage:   "Object storage access key",
			Sources: cli.NewValueSourceChain(cli.EnvVar("STORAGE_ACCESS_KEY"), toml.TOML("storage.access_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "storage-secret-key",
			Usage:   "Object storage secret key",
			Sources: cli.NewValueSourceChain(cli.EnvVar("STORAGE_SECRET_KEY"), toml.TOML("storage.secret_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "storage-region",
			Value:   "us-east-1",
			Usage:   "Object storage region",
			Sources: cli.NewValueSourceChain(cli.EnvVar("STORAGE_REGION"), toml.TOML("storage.region", configFile)),
		},
		&cli.StringFlag{
			Name:    "storage-bucket",
			Usage:   "Object storage bucket for avatars",
			Sources: cli.NewValueSourceChain(cli.EnvVar("STORAGE_BUCKET"), toml.TOML("storage.bucket", configFile)),
		},
		&cli.StringFlag{
			Name:    "storage-endpoint",
			Usage:   "S3-compatible custom endpoint (empty for AWS)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("STORAGE_ENDPOINT"), toml.TOML("storage.endpoint", configFile)),
		},
	}
}
