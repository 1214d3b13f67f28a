// Package config loads and validates crawler configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/maman/internal/crawler"
	"github.com/JakeFAU/maman/internal/queue"
	"github.com/JakeFAU/maman/internal/version"
)

// Config captures all knobs loaded via Viper.
type Config struct {
	Env     string        `mapstructure:"env"`
	Logging LoggingConfig `mapstructure:"logging"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig toggles logger behavior.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// CrawlerConfig governs fetch behavior.
type CrawlerConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	ContactURL string        `mapstructure:"contact_url"`
}

// QueueConfig selects the job sink.
type QueueConfig struct {
	Backend string `mapstructure:"backend"`
}

// RedisConfig locates the Sidekiq Redis server.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// KafkaConfig configures the Kafka job sink.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// MetricsConfig controls the metrics listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from defaults, an optional file and the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MAMAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return Config{}, err
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// bindEnv maps the unprefixed variables Sidekiq deployments already use.
func bindEnv(v *viper.Viper) error {
	if err := v.BindEnv("env", "MAMAN_ENV"); err != nil {
		return fmt.Errorf("bind env: %w", err)
	}
	if err := v.BindEnv("redis.url", "REDIS_URL"); err != nil {
		return fmt.Errorf("bind redis.url: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", crawler.DefaultEnv)
	v.SetDefault("logging.development", true)
	v.SetDefault("crawler.timeout", crawler.DefaultTimeout.String())
	v.SetDefault("crawler.contact_url", version.DefaultContactURL)
	v.SetDefault("queue.backend", queue.BackendRedis)
	v.SetDefault("redis.url", "redis://127.0.0.1/")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "maman")
	v.SetDefault("metrics.addr", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Env) == "" {
		return errors.New("env must not be empty")
	}
	if c.Crawler.Timeout <= 0 {
		return errors.New("crawler.timeout must be > 0")
	}
	switch c.Queue.Backend {
	case queue.BackendRedis:
		u, err := url.Parse(c.Redis.URL)
		if err != nil || (u.Scheme != "redis" && u.Scheme != "rediss" && u.Scheme != "unix") {
			return fmt.Errorf("redis.url %q must be a redis:// url", c.Redis.URL)
		}
	case queue.BackendKafka:
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("kafka.brokers must be set when queue.backend is kafka")
		}
		if c.Kafka.Topic == "" {
			return errors.New("kafka.topic must be set when queue.backend is kafka")
		}
	case queue.BackendMemory:
	default:
		return fmt.Errorf("queue.backend %q: %w", c.Queue.Backend, queue.ErrUnknownBackend)
	}
	return nil
}

// UserAgent is the header value sent with every request.
func (c Config) UserAgent() string {
	return version.UserAgent(c.Crawler.ContactURL)
}

// CrawlConfig builds the crawler settings for one run.
func (c Config) CrawlConfig(base *url.URL, limit int, mimeTypes []string) crawler.Config {
	return crawler.Config{
		BaseURL:   base,
		Limit:     limit,
		MIMETypes: mimeTypes,
		Env:       c.Env,
	}
}
