// Package config loads application settings from defaults, an optional YAML
// file and SOLARCYCLE_* environment variables, in increasing priority.
//
// Keys are dotted ("mail.host"); the matching variable replaces dots with
// underscores and adds the prefix (SOLARCYCLE_MAIL_HOST).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "SOLARCYCLE"
	EnvConfig  = "SOLARCYCLE_CONFIG"
	minSecret  = 16
	driverSQL  = "sqlite"
	driverJSON = "jsonfile"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Mail     MailConfig     `mapstructure:"mail"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SecureCookies   bool          `mapstructure:"secure_cookies"`
}

// DatabaseConfig selects the store. Driver is "sqlite" or "jsonfile"; Path
// is the database file or the JSON document respectively.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

// MailConfig controls outbound email. With Enabled false notifications are
// only logged.
type MailConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	Auth     string        `mapstructure:"auth"` // plain|xoauth2
	Timeout  time.Duration `mapstructure:"timeout"`
	BaseURL  string        `mapstructure:"base_url"` // links in emails
	OAuth    OAuthConfig   `mapstructure:"oauth"`
}

type OAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	TokenURL     string `mapstructure:"token_url"`
}

type SweepConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interval    time.Duration `mapstructure:"interval"`
	Concurrency int           `mapstructure:"concurrency"`
}

type LoggingConfig struct {
	Level     string `mapstructure:"level"`  // debug|info|warn|error
	Format    string `mapstructure:"format"` // text|json
	AddSource bool   `mapstructure:"add_source"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.secure_cookies", false)

	v.SetDefault("database.driver", driverSQL)
	v.SetDefault("database.path", "data/solarcycle.db")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.auth", "plain")
	v.SetDefault("mail.timeout", 15*time.Second)
	v.SetDefault("mail.base_url", "http://localhost:8080")
	v.SetDefault("mail.oauth.client_id", "")
	v.SetDefault("mail.oauth.client_secret", "")
	v.SetDefault("mail.oauth.refresh_token", "")
	v.SetDefault("mail.oauth.token_url", "")

	v.SetDefault("sweep.enabled", false)
	v.SetDefault("sweep.interval", 7*24*time.Hour)
	v.SetDefault("sweep.concurrency", 4)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.add_source", false)
}

// Load reads the configuration. file may be empty, in which case
// SOLARCYCLE_CONFIG is consulted and then ./config.yaml; a missing default
// file is not an error, a missing explicit one is.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if file == "" {
		file = os.Getenv(EnvConfig)
	}
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("config: reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the application cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Database.Driver {
	case driverSQL, driverJSON:
	default:
		errs = append(errs, fmt.Errorf("database.driver must be %q or %q, got %q", driverSQL, driverJSON, c.Database.Driver))
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path must not be empty"))
	}

	if len(c.Auth.JWTSecret) < minSecret {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least %d characters", minSecret))
	}

	if c.Mail.Enabled {
		if c.Mail.Host == "" {
			errs = append(errs, errors.New("mail.host is required when mail is enabled"))
		}
		if c.Mail.From == "" {
			errs = append(errs, errors.New("mail.from is required when mail is enabled"))
		}
		switch strings.ToLower(c.Mail.Auth) {
		case "plain":
		case "xoauth2":
			if c.Mail.OAuth.ClientID == "" || c.Mail.OAuth.RefreshToken == "" {
				errs = append(errs, errors.New("mail.oauth.client_id and mail.oauth.refresh_token are required for xoauth2"))
			}
		default:
			errs = append(errs, fmt.Errorf("mail.auth must be plain or xoauth2, got %q", c.Mail.Auth))
		}
	}

	if c.Sweep.Enabled && c.Sweep.Interval <= 0 {
		errs = append(errs, errors.New("sweep.interval must be positive when the sweep is enabled"))
	}
	if c.Sweep.Concurrency < 0 {
		errs = append(errs, errors.New("sweep.concurrency must not be negative"))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// UsesJSONFile reports whether the flat-file store is selected.
func (c *Config) UsesJSONFile() bool { return c.Database.Driver == driverJSON }
