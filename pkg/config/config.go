package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		CORSOrigins     []string      `yaml:"cors_origins"`
		// CIDRs of reverse proxies whose X-Forwarded-For is believed. Empty
		// means the client IP is the TCP peer.
		TrustedProxies []string `yaml:"trusted_proxies"`
		RateLimit      struct {
			RPS   float64 `yaml:"rps" default:"20"` // 0 disables
			Burst int     `yaml:"burst" default:"40"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Log struct {
		Level      string `yaml:"level" default:"info"`
		Format     string `yaml:"format" default:"json"`
		Output     string `yaml:"output" default:"stdout"`
		TimeFormat string `yaml:"time_format"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Analysis struct {
		Periods struct {
			RSI      int `yaml:"rsi" default:"14"`
			SMAShort int `yaml:"sma_short" default:"20"`
			SMALong  int `yaml:"sma_long" default:"50"`
			EMAFast  int `yaml:"ema_fast" default:"12"`
			EMASlow  int `yaml:"ema_slow" default:"26"`
		} `yaml:"periods"`
		BatchConcurrency int `yaml:"batch_concurrency" default:"8"`
	} `yaml:"analysis"`
	Cache struct {
		Type   string        `yaml:"type" default:"memory"` // none, memory, redis, layered
		TTL    time.Duration `yaml:"ttl" default:"10m"`
		Memory struct {
			MaxEntries      int           `yaml:"max_entries" default:"10000"`
			CleanupInterval time.Duration `yaml:"cleanup_interval" default:"1m"`
			LocalTTL        time.Duration `yaml:"local_ttl" default:"1m"`
		} `yaml:"memory"`
		Redis struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"pool_size" default:"10"`
			Prefix   string `yaml:"prefix" default:"techpulse"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Topics       struct {
			Results  string `yaml:"results" default:"analysis.results"`
			Requests string `yaml:"requests" default:"analysis.requests"`
		} `yaml:"topics"`
		Producer struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id" default:"techpulse-analysis"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"64"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"techpulse"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert" default:"true"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Stream struct {
		Enabled        bool          `yaml:"enabled" default:"true"`
		Path           string        `yaml:"path" default:"/ws/analysis"`
		SendBuffer     int           `yaml:"send_buffer" default:"64"`
		WriteWait      time.Duration `yaml:"write_wait" default:"10s"`
		PongWait       time.Duration `yaml:"pong_wait" default:"60s"`
		MaxMessageSize int64         `yaml:"max_message_size" default:"4096"`
	} `yaml:"stream"`
}

// Load reads and parses a YAML configuration file. Missing keys take their
// default values.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A .env file in the working directory is read first when present.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}

	str("APP_ENV", &c.Environment)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("CACHE_TYPE", &c.Cache.Type)
	str("REDIS_ADDR", &c.Cache.Redis.Addr)
	str("REDIS_PASSWORD", &c.Cache.Redis.Password)
	list("KAFKA_BROKERS", &c.Kafka.Brokers)
	str("KAFKA_RESULTS_TOPIC", &c.Kafka.Topics.Results)
	str("KAFKA_REQUESTS_TOPIC", &c.Kafka.Topics.Requests)
	str("CLICKHOUSE_HOST", &c.ClickHouse.Host)
	str("CLICKHOUSE_USER", &c.ClickHouse.User)
	str("CLICKHOUSE_PASSWORD", &c.ClickHouse.Password)
	list("CORS_ORIGINS", &c.Server.CORSOrigins)
	list("TRUSTED_PROXIES", &c.Server.TrustedProxies)

	if v, ok := lookup("HTTP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("KAFKA_CONSUMER_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("KAFKA_CONSUMER_ENABLED: %w", err)
		}
		c.Kafka.Consumer.Enabled = enabled
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// KafkaEnabled reports whether any broker is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

// TrustedProxyNets parses server.trusted_proxies.
func (c *Config) TrustedProxyNets() ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(c.Server.TrustedProxies))
	for _, cidr := range c.Server.TrustedProxies {
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("server.trusted_proxies: %w", err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// ClickHouseEnabled reports whether the analysis sink is configured.
func (c *Config) ClickHouseEnabled() bool {
	return c.ClickHouse.Host != ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	switch c.Cache.Type {
	case "none", "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.type must be one of none, memory, redis, layered, got '%s'", c.Cache.Type)
	}
	p := c.Analysis.Periods
	for name, v := range map[string]int{
		"rsi": p.RSI, "sma_short": p.SMAShort, "sma_long": p.SMALong,
		"ema_fast": p.EMAFast, "ema_slow": p.EMASlow,
	} {
		if v <= 0 {
			return fmt.Errorf("analysis.periods.%s must be positive, got %d", name, v)
		}
	}
	if c.Server.RateLimit.RPS < 0 || c.Server.RateLimit.Burst < 0 {
		return fmt.Errorf("server.rate_limit values must not be negative")
	}
	if _, err := c.TrustedProxyNets(); err != nil {
		return err
	}
	if c.Analysis.BatchConcurrency <= 0 {
		return fmt.Errorf("analysis.batch_concurrency must be positive")
	}
	if c.Kafka.Consumer.Enabled {
		if !c.KafkaEnabled() {
			return fmt.Errorf("kafka.consumer.enabled requires kafka.brokers")
		}
		if c.Kafka.Topics.Requests == "" {
			return fmt.Errorf("kafka.topics.requests is required when the consumer is enabled")
		}
	}
	if c.Stream.SendBuffer <= 0 {
		return fmt.Errorf("stream.send_buffer must be positive")
	}
	return nil
}
