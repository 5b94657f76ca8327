// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Redis, Kafka, Chat, Demo, RateLimit, Logging, etc.).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Chat      ChatConfig      `yaml:"chat"`
	Demo      DemoConfig      `yaml:"demo"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	AllowOrigins    []string      `yaml:"allowOrigins"`
}

// RedisConfig holds Redis connection parameters for the flight cache demo.
// When Enabled is false the cache kernel keeps entries in process memory.
type RedisConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	PoolSize  int           `yaml:"poolSize"`
	CacheTTL  time.Duration `yaml:"cacheTTL"`
	OpTimeout time.Duration `yaml:"opTimeout"`
}

// KafkaConfig holds the analytics sink settings.
type KafkaConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Brokers       []string      `yaml:"brokers"`
	Topic         string        `yaml:"topic"`
	BatchSize     int           `yaml:"batchSize"`
	FlushInterval time.Duration `yaml:"flushInterval"`
}

// ChatConfig controls the chat assistant.
type ChatConfig struct {
	Model         string        `yaml:"model"`
	HistoryLimit  int           `yaml:"historyLimit"`
	MinDelay      time.Duration `yaml:"minDelay"`
	MaxDelay      time.Duration `yaml:"maxDelay"`
	KnowledgeFile string        `yaml:"knowledgeFile"`
}

// MaxItemRoundTrip is the slowest simulated per-item cost of an individual
// batch run. A full run must fit inside the handler timeout.
const MaxItemRoundTrip = 120 * time.Millisecond

// DemoConfig controls the performance demo kernels. All latencies configured
// here are simulated.
type DemoConfig struct {
	CorpusSize      int   `yaml:"corpusSize"`
	CorpusSeed      int64 `yaml:"corpusSeed"`
	BatchSize       int   `yaml:"batchSize"`
	MaxBatchCount   int   `yaml:"maxBatchCount"`
	MaxStreamEvents int   `yaml:"maxStreamEvents"`
	// SimulateDelays turns the simulated latencies into real waits. The
	// reported timings are the same either way.
	SimulateDelays bool `yaml:"simulateDelays"`
}

// RateLimitConfig controls the per-client token bucket on public surfaces.
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig controls span logging for chat requests.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv exports the variables of a dotenv file so the PF_* overrides in
// Load see them. Variables already set in the environment win. It reports
// whether the file existed.
func LoadDotEnv(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("loading env file %s: %w", path, err)
	}
	return true, nil
}

// Default returns the built-in configuration without reading files or the
// environment.
func Default() *Config {
	return defaultConfig()
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	if c.Chat.MinDelay < 0 || c.Chat.MaxDelay < c.Chat.MinDelay {
		return fmt.Errorf("chat delay range invalid: min=%s max=%s", c.Chat.MinDelay, c.Chat.MaxDelay)
	}
	if c.Chat.HistoryLimit < 0 {
		return fmt.Errorf("chat.historyLimit must not be negative")
	}
	if c.Demo.CorpusSize <= 0 {
		return fmt.Errorf("demo.corpusSize must be positive, got %d", c.Demo.CorpusSize)
	}
	if c.Demo.BatchSize <= 0 {
		return fmt.Errorf("demo.batchSize must be positive, got %d", c.Demo.BatchSize)
	}
	if c.Demo.MaxBatchCount <= 0 {
		return fmt.Errorf("demo.maxBatchCount must be positive, got %d", c.Demo.MaxBatchCount)
	}
	if c.Demo.SimulateDelays && c.Server.WriteTimeout > 0 {
		if worst := time.Duration(c.Demo.MaxBatchCount) * MaxItemRoundTrip; worst >= c.Server.WriteTimeout {
			return fmt.Errorf("demo.maxBatchCount %d can take %s, not below server.writeTimeout %s",
				c.Demo.MaxBatchCount, worst, c.Server.WriteTimeout)
		}
	}
	if c.Redis.CacheTTL <= 0 {
		return fmt.Errorf("redis.cacheTTL must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka is enabled")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("rateLimit requires positive requests and window")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			AllowOrigins:    []string{"*"},
		},
		Redis: RedisConfig{
			Enabled:   false,
			Addr:      "localhost:6379",
			DB:        0,
			PoolSize:  10,
			CacheTTL:  60 * time.Second,
			OpTimeout: 200 * time.Millisecond,
		},
		Kafka: KafkaConfig{
			Enabled:       false,
			Brokers:       []string{"localhost:9092"},
			Topic:         "portfolio-analytics",
			BatchSize:     100,
			FlushInterval: 5 * time.Second,
		},
		Chat: ChatConfig{
			Model:        "mcp-assistant-v1",
			HistoryLimit: 6,
			MinDelay:     300 * time.Millisecond,
			MaxDelay:     800 * time.Millisecond,
		},
		Demo: DemoConfig{
			CorpusSize:      10000,
			CorpusSeed:      42,
			BatchSize:       4,
			MaxBatchCount:   200,
			MaxStreamEvents: 100,
			SimulateDelays:  true,
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Requests: 120,
			Window:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads PF_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PF_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PF_ALLOW_ORIGINS"); v != "" {
		cfg.Server.AllowOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("PF_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
	if v := os.Getenv("PF_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("PF_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("PF_KAFKA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = b
		}
	}
	if v := os.Getenv("PF_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("PF_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("PF_CHAT_MODEL"); v != "" {
		cfg.Chat.Model = v
	}
	if v := os.Getenv("PF_CHAT_KNOWLEDGE_FILE"); v != "" {
		cfg.Chat.KnowledgeFile = v
	}
	if v := os.Getenv("PF_CHAT_MIN_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Chat.MinDelay = d
		}
	}
	if v := os.Getenv("PF_CHAT_MAX_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Chat.MaxDelay = d
		}
	}
	if v := os.Getenv("PF_DEMO_SIMULATE_DELAYS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Demo.SimulateDelays = b
		}
	}
	if v := os.Getenv("PF_DEMO_CORPUS_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Demo.CorpusSeed = seed
		}
	}
	if v := os.Getenv("PF_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PF_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("PF_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
