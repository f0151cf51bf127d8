package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the complete PaperFlow configuration.
type Config struct {
	// Log configures zap logging.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Database configures the paper store.
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`

	// Redis configures the response cache.
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// LLM configures the chat-completion provider.
	LLM LLMConfig `yaml:"llm" env:"LLM"`

	// Agent holds per-paper-agent defaults.
	Agent AgentConfig `yaml:"agent" env:"AGENT"`

	// Collaboration holds orchestration defaults.
	Collaboration CollaborationConfig `yaml:"collaboration" env:"COLLABORATION"`

	// Telemetry configures OTel export.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json or console.
	Format string `yaml:"format" env:"FORMAT"`
}

// DatabaseConfig configures the paper store.
type DatabaseConfig struct {
	// Driver: sqlite or postgres.
	Driver string `yaml:"driver" env:"DRIVER"`
	// Path is the sqlite file path (":memory:" for in-memory).
	Path string `yaml:"path" env:"PATH"`
	// Host, Port, User, Password, Name, SSLMode apply to postgres.
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	Name     string `yaml:"name" env:"NAME"`
	SSLMode  string `yaml:"ssl_mode" env:"SSL_MODE"`
}

// DSN returns the driver-specific connection string.
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
		)
	case "sqlite":
		return d.Path
	default:
		return ""
	}
}

// RedisConfig configures the response cache connection.
type RedisConfig struct {
	// Enabled switches the cache on.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Addr is the host:port of the Redis server.
	Addr string `yaml:"addr" env:"ADDR"`
	// Password for AUTH.
	Password string `yaml:"password" env:"PASSWORD"`
	// DB selects the logical database.
	DB int `yaml:"db" env:"DB"`
	// DefaultTTL applies when a write passes no TTL.
	DefaultTTL time.Duration `yaml:"default_ttl" env:"DEFAULT_TTL"`
	// PoolSize bounds the connection pool.
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
}

// LLMConfig configures the chat provider.
type LLMConfig struct {
	// BaseURL of the OpenAI-compatible endpoint.
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// APIKey for the endpoint.
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// Model is the default completion model.
	Model string `yaml:"model" env:"MODEL"`
	// Timeout per completion call.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// RequestsPerSecond throttles the provider; 0 disables.
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	// Burst for the rate limiter.
	Burst int `yaml:"burst" env:"BURST"`
}

// AgentConfig holds per-paper-agent defaults.
type AgentConfig struct {
	// Temperature for completions.
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`
	// MaxTokens per completion.
	MaxTokens int `yaml:"max_tokens" env:"MAX_TOKENS"`
	// MaxExchanges retained in conversation memory.
	MaxExchanges int `yaml:"max_exchanges" env:"MAX_EXCHANGES"`
	// MemoryTokenBudget bounds the memory window.
	MemoryTokenBudget int `yaml:"memory_token_budget" env:"MEMORY_TOKEN_BUDGET"`
	// TokenEncoding names the tiktoken encoding for budgeting.
	TokenEncoding string `yaml:"token_encoding" env:"TOKEN_ENCODING"`
}

// CollaborationConfig holds orchestration defaults.
type CollaborationConfig struct {
	// MaxIterations default for debate/consensus tasks.
	MaxIterations int `yaml:"max_iterations" env:"MAX_ITERATIONS"`
	// Timeout default per task.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// ConsensusTarget is the score above which consensus mode stops.
	ConsensusTarget float64 `yaml:"consensus_target" env:"CONSENSUS_TARGET"`
	// ConvergenceThreshold is the debate mean-length change bound.
	ConvergenceThreshold float64 `yaml:"convergence_threshold" env:"CONVERGENCE_THRESHOLD"`
}

// TelemetryConfig configures OTel export.
type TelemetryConfig struct {
	// Enabled switches telemetry on.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLPEndpoint is the gRPC collector address.
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// ServiceName reported in resource attributes.
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// SampleRate is the trace sampling ratio.
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "paperflow.db",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DefaultTTL: 5 * time.Minute,
			PoolSize:   10,
		},
		LLM: LLMConfig{
			BaseURL:           "https://api.openai.com/v1",
			Model:             "gpt-4o-mini",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Agent: AgentConfig{
			Temperature:       0.7,
			MaxTokens:         1024,
			MaxExchanges:      10,
			MemoryTokenBudget: 4096,
			TokenEncoding:     "cl100k_base",
		},
		Collaboration: CollaborationConfig{
			MaxIterations:        3,
			Timeout:              5 * time.Minute,
			ConsensusTarget:      0.8,
			ConvergenceThreshold: 0.1,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "paperflow",
			SampleRate:  1.0,
		},
	}
}

// Validate rejects configurations no component can run with.
func (c *Config) Validate() error {
	var errs []string

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("unsupported database driver %q", c.Database.Driver))
	}
	if c.Collaboration.MaxIterations < 1 {
		errs = append(errs, "collaboration.max_iterations must be >= 1")
	}
	if c.Collaboration.ConsensusTarget < 0 || c.Collaboration.ConsensusTarget > 1 {
		errs = append(errs, "collaboration.consensus_target must be within [0, 1]")
	}
	if c.Agent.Temperature < 0 || c.Agent.Temperature > 2 {
		errs = append(errs, "agent.temperature must be within [0, 2]")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry.sample_rate must be within [0, 1]")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
