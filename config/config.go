package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	DBDriver    string `mapstructure:"DB_DRIVER"`
	DBPath      string `mapstructure:"DB_PATH"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL"` // 0 disables expiry; logout still invalidates

	FactoryURL     string        `mapstructure:"FACTORY_URL"`
	FactoryAPIKey  string        `mapstructure:"FACTORY_API_KEY"`
	FactoryTimeout time.Duration `mapstructure:"FACTORY_TIMEOUT"`

	// Sessions live in redis when RedisAddr is set, otherwise in the database.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	AdminName     string `mapstructure:"ADMIN_NAME"`
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	AuthRateLimit float64 `mapstructure:"AUTH_RATE_LIMIT"` // requests per second per client, 0 disables
	AuthRateBurst int     `mapstructure:"AUTH_RATE_BURST"`
}

var defaults = map[string]any{
	"PORT":            "3000",
	"GIN_MODE":        "release",
	"DB_DRIVER":       DriverSQLite,
	"DB_PATH":         "pizza.db",
	"DATABASE_URL":    "",
	"JWT_SECRET":      "",
	"TOKEN_TTL":       24 * time.Hour,
	"FACTORY_URL":     "https://pizza-factory.cs329.click",
	"FACTORY_API_KEY": "",
	"FACTORY_TIMEOUT": 10 * time.Second,
	"REDIS_ADDR":      "",
	"REDIS_PASSWORD":  "",
	"REDIS_DB":        0,
	"ADMIN_NAME":      "pizza admin",
	"ADMIN_EMAIL":     "a@jwt.com",
	"ADMIN_PASSWORD":  "admin",
	"LOG_LEVEL":       "info",
	"LOG_FORMAT":      "json",
	"AUTH_RATE_LIMIT": 10.0,
	"AUTH_RATE_BURST": 20,
}

// Load reads configuration from an optional .env file, an optional
// config.yaml and the environment, in increasing priority.
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q must be sqlite or postgres", c.DBDriver))
	}
	if c.FactoryURL == "" {
		errs = append(errs, errors.New("FACTORY_URL is required"))
	}
	if c.TokenTTL < 0 {
		errs = append(errs, errors.New("TOKEN_TTL must not be negative"))
	}
	if c.AuthRateLimit < 0 || c.AuthRateBurst < 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT and AUTH_RATE_BURST must not be negative"))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q must be json or console", c.LogFormat))
	}
	return errors.Join(errs...)
}
