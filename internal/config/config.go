package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the client. The values are read by
// viper from a config file or environment variables, once at startup, and
// passed down immutably.
type Config struct {
	// Key and Secret are the API credentials. Opaque to the client: they are
	// attached to requests and handshakes, never interpreted.
	Key    string `mapstructure:"key"`
	Secret string `mapstructure:"secret"`

	REST   RESTConfig   `mapstructure:"rest"`
	Stream StreamConfig `mapstructure:"stream"`
}

// RESTConfig defines the REST endpoint settings.
type RESTConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retry   RetryConfig   `mapstructure:"retry"`
}

// RetryConfig defines the retry schedule for transient REST failures.
type RetryConfig struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	MaxAttempts     uint64        `mapstructure:"max_attempts"`
}

// StreamConfig defines the streaming endpoint settings.
type StreamConfig struct {
	URL          string        `mapstructure:"url"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Buffer       int           `mapstructure:"buffer"`
}

// LoadConfig reads configuration from file or environment variables.
// Environment variables use the MARKETWIRE_ prefix with underscores, e.g.
// MARKETWIRE_KEY and MARKETWIRE_REST_BASE_URL.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("marketwire")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults double as key registrations: AutomaticEnv only surfaces
	// variables for keys viper already knows about.
	v.SetDefault("key", "")
	v.SetDefault("secret", "")
	v.SetDefault("rest.base_url", "")
	v.SetDefault("stream.url", "")
	v.SetDefault("rest.timeout", 30*time.Second)
	v.SetDefault("rest.retry.initial_interval", 500*time.Millisecond)
	v.SetDefault("rest.retry.max_interval", 10*time.Second)
	v.SetDefault("rest.retry.max_attempts", 3)
	v.SetDefault("stream.dial_timeout", 10*time.Second)
	v.SetDefault("stream.write_timeout", 10*time.Second)
	v.SetDefault("stream.buffer", 256)

	if err = v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}
