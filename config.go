package folio

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "Folio")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and meta tags
	Author      string `yaml:"author"`

	Addr string `yaml:"addr"` // Listen address (default ":3000")

	DatabaseDriver string `yaml:"database_driver"` // "sqlite" or "postgres"
	DatabasePath   string `yaml:"database_path"`   // SQLite path (default "data/folio.db")
	DatabaseURL    string `yaml:"database_url"`    // Postgres connection string

	StorageDriver      string `yaml:"storage_driver"` // "local" or "supabase"
	StorageDir         string `yaml:"storage_dir"`    // local uploads root (default "data/uploads")
	SupabaseURL        string `yaml:"supabase_url"`
	SupabaseServiceKey string `yaml:"supabase_service_key"`

	ResendAPIKey     string `yaml:"resend_api_key"`
	ResendAudienceID string `yaml:"resend_audience_id"`

	RedisURL string        `yaml:"redis_url"` // content cache in Redis when set
	CacheTTL time.Duration `yaml:"cache_ttl"` // default 5m

	AdminPassword     string `yaml:"admin_password"`
	AdminPasswordHash string `yaml:"admin_password_hash"` // bcrypt, preferred over AdminPassword
	SessionSecret     string `yaml:"session_secret"`
	CookieSecure      bool   `yaml:"cookie_secure"` // Set true for HTTPS

	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // json or console
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Folio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabaseDriver == "" {
		c.DatabaseDriver = "sqlite"
		if c.DatabaseURL != "" {
			c.DatabaseDriver = "postgres"
		}
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/folio.db"
	}
	if c.StorageDriver == "" {
		c.StorageDriver = "local"
		if c.SupabaseURL != "" {
			c.StorageDriver = "supabase"
		}
	}
	if c.StorageDir == "" {
		c.StorageDir = "data/uploads"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
}

func (c *SiteConfig) validate() error {
	var errs []error
	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		errs = append(errs, errors.New("AdminPassword or AdminPasswordHash is required"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SessionSecret is required"))
	}
	switch c.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DatabaseURL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.DatabaseDriver))
	}
	switch c.StorageDriver {
	case "local":
	case "supabase":
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			errs = append(errs, errors.New("SupabaseURL and SupabaseServiceKey are required for the supabase storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.StorageDriver))
	}
	return errors.Join(errs...)
}

// LoadConfig reads the YAML file at path (skipped when path is empty) and then
// applies environment overrides. Defaults are filled in by New.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return SiteConfig{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return SiteConfig{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return SiteConfig{}, err
	}
	return cfg, nil
}

func (c *SiteConfig) applyEnv() error {
	c.Name = EnvOr("SITE_NAME", c.Name)
	c.URL = EnvOr("SITE_URL", c.URL)
	c.Description = EnvOr("SITE_DESCRIPTION", c.Description)
	c.Author = EnvOr("SITE_AUTHOR", c.Author)
	c.Addr = EnvOr("ADDR", c.Addr)
	c.DatabaseDriver = EnvOr("DATABASE_DRIVER", c.DatabaseDriver)
	c.DatabasePath = EnvOr("DATABASE_PATH", c.DatabasePath)
	c.DatabaseURL = EnvOr("DATABASE_URL", c.DatabaseURL)
	c.StorageDriver = EnvOr("STORAGE_DRIVER", c.StorageDriver)
	c.StorageDir = EnvOr("STORAGE_DIR", c.StorageDir)
	c.SupabaseURL = EnvOr("SUPABASE_URL", c.SupabaseURL)
	c.SupabaseServiceKey = EnvOr("SUPABASE_SERVICE_ROLE_KEY", c.SupabaseServiceKey)
	c.ResendAPIKey = EnvOr("RESEND_API_KEY", c.ResendAPIKey)
	c.ResendAudienceID = EnvOr("RESEND_AUDIENCE_ID", c.ResendAudienceID)
	c.RedisURL = EnvOr("REDIS_URL", c.RedisURL)
	c.AdminPassword = EnvOr("ADMIN_PASSWORD", c.AdminPassword)
	c.AdminPasswordHash = EnvOr("ADMIN_PASSWORD_HASH", c.AdminPasswordHash)
	c.SessionSecret = EnvOr("SESSION_SECRET", c.SessionSecret)
	c.LogLevel = EnvOr("LOG_LEVEL", c.LogLevel)
	c.LogFormat = EnvOr("LOG_FORMAT", c.LogFormat)

	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		c.CookieSecure = b
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		c.CacheTTL = d
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
