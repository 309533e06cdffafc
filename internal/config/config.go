package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Email    EmailConfig    `mapstructure:"email"`
	Redis    RedisConfig    `mapstructure:"redis"`
	App      AppConfig      `mapstructure:"app"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Env     string `mapstructure:"env"` // "development" or "production"
}

// SupabaseConfig configures the single remote data client. Exactly one client
// is built from these values; nothing else in the codebase may carry its own
// URL or key.
type SupabaseConfig struct {
	URL        string `mapstructure:"url"`
	AnonKey    string `mapstructure:"anon_key"`
	ServiceKey string `mapstructure:"service_key"` // admin paths only, never shipped to browsers
	JWTSecret  string `mapstructure:"jwt_secret"`
}

// StorageConfig selects the file storage driver. "supabase" stores media in
// the backend's buckets; "s3" keeps deployments on S3-compatible storage.
type StorageConfig struct {
	Driver          string        `mapstructure:"driver"`
	Bucket          string        `mapstructure:"bucket"`
	SignedURLExpiry time.Duration `mapstructure:"signed_url_expiry"`

	// S3 driver only.
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

type PaymentConfig struct {
	SecretKey string `mapstructure:"secret_key"`
}

type EmailConfig struct {
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AppConfig carries values used to build user-facing URLs.
type AppConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	// Use replacer for nested keys e.g., supabase.anon_key -> SUPABASE_ANON_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("storage.driver", "supabase")
	viper.SetDefault("storage.bucket", "media")
	viper.SetDefault("storage.signed_url_expiry", "15m")
	viper.SetDefault("redis.addr", "localhost:6379")

	err = viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// Config file not found; env vars may carry everything.
		err = nil
	} else if err != nil {
		return
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	if err = config.Validate(); err != nil {
		return
	}

	return config, nil
}

// Validate fails fast on missing required values. A silently absent key or
// secret must never degrade into a no-op at call time.
func (c Config) Validate() error {
	var missing []string

	if c.Supabase.URL == "" {
		missing = append(missing, "supabase.url (SUPABASE_URL)")
	}
	if c.Supabase.AnonKey == "" {
		missing = append(missing, "supabase.anon_key (SUPABASE_ANON_KEY)")
	}
	if c.Supabase.ServiceKey == "" {
		missing = append(missing, "supabase.service_key (SUPABASE_SERVICE_KEY)")
	}
	if c.Supabase.JWTSecret == "" {
		missing = append(missing, "supabase.jwt_secret (SUPABASE_JWT_SECRET)")
	}
	if c.Payment.SecretKey == "" {
		missing = append(missing, "payment.secret_key (PAYMENT_SECRET_KEY)")
	}
	if c.Email.APIKey == "" {
		missing = append(missing, "email.api_key (EMAIL_API_KEY)")
	}
	if c.Email.FromAddress == "" {
		missing = append(missing, "email.from_address (EMAIL_FROM_ADDRESS)")
	}
	if c.App.BaseURL == "" {
		missing = append(missing, "app.base_url (APP_BASE_URL)")
	}

	if c.Storage.Driver == "s3" {
		if c.Storage.AccessKeyID == "" || c.Storage.SecretAccessKey == "" {
			missing = append(missing, "storage.access_key_id/secret_access_key for the s3 driver")
		}
	} else if c.Storage.Driver != "supabase" {
		return fmt.Errorf("config: unknown storage driver %q (want \"supabase\" or \"s3\")", c.Storage.Driver)
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: missing required values: %s", strings.Join(missing, ", "))
	}
	return nil
}
