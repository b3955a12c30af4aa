// Package config loads autodoc settings from defaults, an optional
// autodoc.yaml, a .env file and AUTODOC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/phobologic/autodoc/internal/store"
)

// EnvPrefix prefixes every environment override, e.g. AUTODOC_MAX_CHARS.
const EnvPrefix = "AUTODOC"

// Config holds resolved settings.
type Config struct {
	CacheDir        string         `mapstructure:"cache_dir"`
	MaxChars        int            `mapstructure:"max_chars"`
	Workers         int            `mapstructure:"workers"`
	MaxFileSize     int64          `mapstructure:"max_file_size"`
	Gitignore       bool           `mapstructure:"gitignore"`
	KeyByPath       bool           `mapstructure:"key_by_path"`
	Model           string         `mapstructure:"model"`
	APIKey          string         `mapstructure:"api_key"`
	MaxRetries      int            `mapstructure:"max_retries"`
	RetryBase       time.Duration  `mapstructure:"retry_base"`
	MemoryCacheSize int            `mapstructure:"memory_cache_size"`
	StagingDir      string         `mapstructure:"staging_dir"`
	S3              store.S3Config `mapstructure:"s3"`
}

// Store returns the persistence settings.
func (c *Config) Store() store.Config {
	return store.Config{Dir: c.CacheDir, S3: c.S3}
}

// New returns a viper instance with defaults and environment overrides
// registered. Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("cache_dir", ".autodoc_cache")
	v.SetDefault("max_chars", 3000)
	v.SetDefault("workers", runtime.GOMAXPROCS(0))
	v.SetDefault("max_file_size", 1<<20)
	v.SetDefault("gitignore", false)
	v.SetDefault("key_by_path", false)
	v.SetDefault("model", "gemini-2.5-flash")
	v.SetDefault("api_key", "")
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_base", time.Second)
	v.SetDefault("memory_cache_size", 1024)
	v.SetDefault("staging_dir", ".autodoc_cache/repo")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "")
	v.SetDefault("s3.use_ssl", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load resolves the configuration. configFile may be empty, in which case
// autodoc.yaml in the working directory is used if present.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	_ = godotenv.Load()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("autodoc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading autodoc.yaml: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.MaxChars <= 0 {
		return fmt.Errorf("max_chars must be positive, got %d", c.MaxChars)
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be positive, got %d", c.MaxRetries)
	}
	if strings.TrimSpace(c.CacheDir) == "" {
		return fmt.Errorf("cache_dir is required")
	}
	return nil
}
