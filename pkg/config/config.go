package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Classifier  ClassifierConfig  `mapstructure:"classifier"`
	OpenAI      OpenAIConfig      `mapstructure:"openai"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Log         LogConfig         `mapstructure:"log"`
	Retention   RetentionConfig   `mapstructure:"retention"`
	Crisis      CrisisConfig      `mapstructure:"crisis"`
	Recommender RecommenderConfig `mapstructure:"recommender"`
	// Timezone is the IANA zone used to bucket check-ins by time of day.
	Timezone string `mapstructure:"timezone"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type DatabaseConfig struct {
	URL         string `mapstructure:"url"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

// RedisConfig selects the key-value backend. An empty URL keeps values in memory.
type RedisConfig struct {
	URL    string `mapstructure:"url"`
	Prefix string `mapstructure:"prefix"`
}

type ClassifierConfig struct {
	// Provider is "gpt" or "simple".
	Provider string `mapstructure:"provider"`
	MaxTags  int    `mapstructure:"max_tags"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type RetentionConfig struct {
	Days int `mapstructure:"days"`
}

// Window is the retention period as a duration.
func (r RetentionConfig) Window() time.Duration {
	return time.Duration(r.Days) * 24 * time.Hour
}

type CrisisConfig struct {
	DefaultCountry   string        `mapstructure:"default_country"`
	IPLookupURL      string        `mapstructure:"ip_lookup_url"`
	IPLookupTimeout  time.Duration `mapstructure:"ip_lookup_timeout"`
	LocationTTL      time.Duration `mapstructure:"location_ttl"`
	ResourceCacheTTL time.Duration `mapstructure:"resource_cache_ttl"`
}

type RecommenderConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "pocket_therapy")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", false)
	v.SetDefault("redis.prefix", "pt")
	v.SetDefault("classifier.provider", "gpt")
	v.SetDefault("classifier.max_tags", 3)
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.max_tokens", 150)
	v.SetDefault("openai.temperature", 0.2)
	v.SetDefault("http.enabled", true)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("retention.days", 90)
	v.SetDefault("crisis.default_country", "United States")
	v.SetDefault("crisis.ip_lookup_url", "http://ip-api.com")
	v.SetDefault("crisis.ip_lookup_timeout", 3*time.Second)
	v.SetDefault("crisis.location_ttl", 24*time.Hour)
	v.SetDefault("crisis.resource_cache_ttl", 7*24*time.Hour)
	v.SetDefault("timezone", "Local")
	v.SetDefault("recommender.default_limit", 5)
}

// LoadConfig reads the YAML file at path. An empty path loads defaults and
// environment only. Nested keys can be set from the environment as
// POCKET_THERAPY_<SECTION>_<KEY>; the unprefixed DATABASE_URL, TELEGRAM_TOKEN,
// OPENAI_API_KEY and REDIS_URL win over everything else.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("POCKET_THERAPY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	overrides := viper.New()
	for _, key := range []string{"DATABASE_URL", "TELEGRAM_TOKEN", "OPENAI_API_KEY", "REDIS_URL"} {
		if err := overrides.BindEnv(key); err != nil {
			return nil, err
		}
	}
	if dbURL := overrides.GetString("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
		config.Database.UseInMemory = false
	}
	if token := overrides.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}
	if apiKey := overrides.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}
	if redisURL := overrides.GetString("REDIS_URL"); redisURL != "" {
		config.Redis.URL = redisURL
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Retention.Days <= 0 {
		errs = append(errs, errors.New("retention.days must be positive"))
	}
	if c.Recommender.DefaultLimit <= 0 {
		errs = append(errs, errors.New("recommender.default_limit must be positive"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	switch c.Classifier.Provider {
	case "gpt", "simple":
	default:
		errs = append(errs, fmt.Errorf("classifier.provider %q is not one of gpt, simple", c.Classifier.Provider))
	}
	return errors.Join(errs...)
}

// Location returns the configured time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
