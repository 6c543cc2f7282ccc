package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr                   string
		ShutdownTimeoutSeconds int
	}
	Database struct {
		Path string
	}
	Auth struct {
		AccessSecret      string
		RefreshSecret     string
		Issuer            string
		Audience          string
		AccessTTLMinutes  int
		RefreshTTLMinutes int
	}
	RateLimit struct {
		LoginRate  float64
		LoginBurst int
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Backup struct {
		Bucket          string
		KeyPrefix       string
		Region          string
		Endpoint        string
		IntervalMinutes int
		Retain          int
	}
	AWS struct {
		Profile string
	}
	Log struct {
		Level  string
		Format string
	}
}

// Load reads configuration from environment variables and optional config files.
// An empty path searches the working directory for config.{yaml,json,toml}.
func Load(path string) (Config, error) {
	// existing environment wins over .env
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("INVENTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8000")
	v.SetDefault("server.shutdowntimeoutseconds", 10)
	v.SetDefault("database.path", "data/inventory.db")
	v.SetDefault("auth.accesssecret", "")
	v.SetDefault("auth.refreshsecret", "")
	v.SetDefault("auth.issuer", "inventory-management")
	v.SetDefault("auth.audience", "inventory-management")
	v.SetDefault("auth.accessttlminutes", 60)
	v.SetDefault("auth.refreshttlminutes", 24*60)
	v.SetDefault("ratelimit.loginrate", 0.2)
	v.SetDefault("ratelimit.loginburst", 5)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("backup.bucket", "")
	v.SetDefault("backup.keyprefix", "backups")
	v.SetDefault("backup.region", "us-east-1")
	v.SetDefault("backup.endpoint", "")
	v.SetDefault("backup.intervalminutes", 0)
	v.SetDefault("backup.retain", 7)
	v.SetDefault("aws.profile", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // optional file
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server addr is required"))
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	if strings.TrimSpace(c.Auth.AccessSecret) == "" {
		errs = append(errs, errors.New("auth access secret is required"))
	}
	if strings.TrimSpace(c.Auth.RefreshSecret) == "" {
		errs = append(errs, errors.New("auth refresh secret is required"))
	}
	if c.Auth.AccessSecret != "" && c.Auth.AccessSecret == c.Auth.RefreshSecret {
		errs = append(errs, errors.New("auth access and refresh secrets must differ"))
	}
	if c.Auth.AccessTTLMinutes <= 0 || c.Auth.RefreshTTLMinutes <= 0 {
		errs = append(errs, errors.New("auth token ttl must be positive"))
	}
	if c.RateLimit.LoginRate <= 0 || c.RateLimit.LoginBurst <= 0 {
		errs = append(errs, errors.New("login rate limit must be positive"))
	}
	if c.Backup.Retain < 1 {
		errs = append(errs, errors.New("backup retain must be at least 1"))
	}
	if c.Backup.IntervalMinutes > 0 && c.Backup.Bucket == "" {
		errs = append(errs, errors.New("backup interval requires a backup bucket"))
	}
	return errors.Join(errs...)
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.Auth.AccessTTLMinutes) * time.Minute
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.Auth.RefreshTTLMinutes) * time.Minute
}

func (c Config) BackupInterval() time.Duration {
	return time.Duration(c.Backup.IntervalMinutes) * time.Minute
}

func (c Config) ShutdownTimeout() time.Duration {
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}
