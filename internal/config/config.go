package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/labstack/gommon/random"
)

// Config represents the complete service configuration
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Database    DatabaseConfig  `toml:"database"`
	Auth        AuthConfig      `toml:"auth"`
	Redis       RedisConfig     `toml:"redis"`
	Minio       MinioConfig     `toml:"minio"`
	Log         LogConfig       `toml:"log"`
	Export      ExportConfig    `toml:"export"`
	Dashboard   DashboardConfig `toml:"dashboard"`
}

type ServerConfig struct {
	Port            int           `toml:"port"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL string `toml:"url"`
}

// AuthConfig contains session signing and login throttling settings
type AuthConfig struct {
	JWTSecret        string        `toml:"jwt_secret"`
	MaxLoginAttempts int           `toml:"max_login_attempts"`
	LoginWindow      time.Duration `toml:"login_window"`
	SecureCookie     bool          `toml:"secure_cookie"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MinioConfig is optional; an empty endpoint disables snapshot uploads
type MinioConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
	Bucket    string `toml:"bucket"`
	// LinkTTL is how long snapshot download links stay valid
	LinkTTL time.Duration `toml:"link_ttl"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ExportConfig controls snapshot exports. A zero interval disables the
// scheduled export and a zero Retain keeps every uploaded snapshot.
type ExportConfig struct {
	Dir      string        `toml:"dir"`
	Format   string        `toml:"format"`
	Interval time.Duration `toml:"interval"`
	Retain   int           `toml:"retain"`
}

type DashboardConfig struct {
	CacheTTL        time.Duration `toml:"cache_ttl"`
	RefreshInterval time.Duration `toml:"refresh_interval"`
}

const minSecretLength = 32

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			MaxLoginAttempts: 5,
			LoginWindow:      15 * time.Minute,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Minio: MinioConfig{
			Bucket:  "exports",
			LinkTTL: 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Export: ExportConfig{
			Dir:    "exports",
			Format: "json",
		},
		Dashboard: DashboardConfig{
			CacheTTL:        2 * time.Minute,
			RefreshInterval: 10 * time.Minute,
		},
	}
}

// Load reads defaults, then the optional TOML file at path, then environment
// overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" && !cfg.IsProduction() {
		cfg.Auth.JWTSecret = random.String(minSecretLength)
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// MinioEnabled reports whether snapshot uploads are configured
func (c *Config) MinioEnabled() bool {
	return c.Minio.Endpoint != ""
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			*dst = n
		}
		return nil
	}
	duration := func(key string, dst *time.Duration) error {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			*dst = d
		}
		return nil
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = strings.EqualFold(v, "true") || v == "1"
		}
	}

	str("APP_ENV", &c.Environment)
	str("DATABASE_URL", &c.Database.URL)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	boolean("SECURE_COOKIE", &c.Auth.SecureCookie)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("MINIO_ENDPOINT", &c.Minio.Endpoint)
	str("MINIO_ACCESS_KEY", &c.Minio.AccessKey)
	str("MINIO_SECRET_KEY", &c.Minio.SecretKey)
	str("MINIO_BUCKET", &c.Minio.Bucket)
	boolean("MINIO_USE_SSL", &c.Minio.UseSSL)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("EXPORT_DIR", &c.Export.Dir)
	str("EXPORT_FORMAT", &c.Export.Format)

	if err := integer("REDIS_DB", &c.Redis.DB); err != nil {
		return err
	}
	if err := integer("PORT", &c.Server.Port); err != nil {
		return err
	}
	if err := duration("EXPORT_INTERVAL", &c.Export.Interval); err != nil {
		return err
	}
	if err := integer("EXPORT_RETAIN", &c.Export.Retain); err != nil {
		return err
	}
	if err := duration("MINIO_LINK_TTL", &c.Minio.LinkTTL); err != nil {
		return err
	}
	return nil
}

// Validate reports every problem with the configuration at once
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.IsProduction() && len(c.Auth.JWTSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters in production", minSecretLength))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Server.Port))
	}
	if c.Auth.MaxLoginAttempts <= 0 {
		errs = append(errs, errors.New("max_login_attempts must be positive"))
	}
	switch c.Export.Format {
	case "json", "xlsx", "pdf":
	default:
		errs = append(errs, fmt.Errorf("unsupported export format %q", c.Export.Format))
	}
	if c.Export.Retain < 0 {
		errs = append(errs, errors.New("export retain must not be negative"))
	}
	if c.MinioEnabled() && (c.Minio.LinkTTL <= 0 || c.Minio.LinkTTL > 7*24*time.Hour) {
		errs = append(errs, errors.New("MINIO_LINK_TTL must be between 1s and 168h"))
	}
	if c.MinioEnabled() && (c.Minio.AccessKey == "" || c.Minio.SecretKey == "") {
		errs = append(errs, errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set"))
	}
	return errors.Join(errs...)
}
