package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Privacy    PrivacyConfig    `yaml:"privacy" mapstructure:"privacy"`
	Memory     MemoryConfig     `yaml:"memory" mapstructure:"memory"`
	Profile    ProfileConfig    `yaml:"profile" mapstructure:"profile"`
	FAQ        FAQConfig        `yaml:"faq" mapstructure:"faq"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" mapstructure:"embeddings"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" mapstructure:"rate_limit"`
	WebSocket  WebSocketConfig  `yaml:"websocket" mapstructure:"websocket"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
	Debug      bool             `yaml:"debug" mapstructure:"debug"` // include debug payload in /chat responses
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// PrivacyConfig contains masking and selective unmasking configuration
type PrivacyConfig struct {
	Enabled   bool         `yaml:"enabled" mapstructure:"enabled"`
	Detectors []string     `yaml:"detectors" mapstructure:"detectors"`
	Unmask    UnmaskConfig `yaml:"unmask" mapstructure:"unmask"`
}

// UnmaskConfig controls which categories are restored in outgoing replies.
// An empty Categories list with AllCategories true restores everything.
type UnmaskConfig struct {
	AllCategories bool     `yaml:"all_categories" mapstructure:"all_categories"`
	Categories    []string `yaml:"categories" mapstructure:"categories"`
}

// MemoryConfig contains user memory storage configuration. An empty
// RedisURL selects the in-process store.
type MemoryConfig struct {
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	TTL            time.Duration `yaml:"ttl" mapstructure:"ttl"`
	KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
	HistoryLimit   int           `yaml:"history_limit" mapstructure:"history_limit"`
}

// ProfileConfig contains light user profile configuration
type ProfileConfig struct {
	UsersFile string `yaml:"users_file" mapstructure:"users_file"`
}

// FAQConfig contains FAQ retrieval configuration. An empty DatabaseURL
// selects the static in-memory retriever.
type FAQConfig struct {
	DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	TopK            int           `yaml:"top_k" mapstructure:"top_k"`
	MinSimilarity   float64       `yaml:"min_similarity" mapstructure:"min_similarity"`
}

// EmbeddingsConfig selects the embedding service used by FAQ retrieval
type EmbeddingsConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // hash or genai
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
}

// LLMConfig selects the reasoning engine behind the intent and response
// stages. The heuristic provider needs no credentials or network.
type LLMConfig struct {
	Provider string        `yaml:"provider" mapstructure:"provider"` // heuristic or genai
	Model    string        `yaml:"model" mapstructure:"model"`
	APIKey   string        `yaml:"api_key" mapstructure:"api_key"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// RateLimitConfig contains per-client request throttling configuration
type RateLimitConfig struct {
	Enabled        bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMin int  `yaml:"requests_per_min" mapstructure:"requests_per_min"`
	Burst          int  `yaml:"burst" mapstructure:"burst"`
}

// WebSocketConfig contains dashboard WebSocket configuration
type WebSocketConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Path           string        `yaml:"path" mapstructure:"path"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	PingInterval   time.Duration `yaml:"ping_interval" mapstructure:"ping_interval"`
	PongTimeout    time.Duration `yaml:"pong_timeout" mapstructure:"pong_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	Events         EventsConfig  `yaml:"events" mapstructure:"events"`
}

// EventsConfig controls which event types are broadcast to dashboard clients
type EventsConfig struct {
	BroadcastRequests    bool `yaml:"broadcast_requests" mapstructure:"broadcast_requests"`
	BroadcastMasking     bool `yaml:"broadcast_masking" mapstructure:"broadcast_masking"`
	BroadcastSystem      bool `yaml:"broadcast_system" mapstructure:"broadcast_system"`
	BroadcastConnections bool `yaml:"broadcast_connections" mapstructure:"broadcast_connections"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string     `yaml:"level" mapstructure:"level"`
	Format string     `yaml:"format" mapstructure:"format"` // json or console
	File   FileConfig `yaml:"file" mapstructure:"file"`
}

// FileConfig contains file logging configuration
type FileConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Path     string `yaml:"path" mapstructure:"path"`
	MaxSize  int    `yaml:"max_size" mapstructure:"max_size"`
	MaxAge   int    `yaml:"max_age" mapstructure:"max_age"`
	Compress bool   `yaml:"compress" mapstructure:"compress"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Privacy: PrivacyConfig{
			Enabled:   true,
			Detectors: []string{"all"},
			Unmask: UnmaskConfig{
				AllCategories: true,
			},
		},
		Memory: MemoryConfig{
			MaxConnections: 10,
			MinIdleConns:   2,
			TTL:            24 * time.Hour,
			KeyPrefix:      "concierge",
			HistoryLimit:   20,
		},
		Profile: ProfileConfig{
			UsersFile: "data/users.json",
		},
		FAQ: FAQConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Hour,
			TopK:            3,
			MinSimilarity:   0.3,
		},
		Embeddings: EmbeddingsConfig{
			Provider: "hash",
			Model:    "gemini-embedding-001",
		},
		LLM: LLMConfig{
			Provider: "heuristic",
			Model:    "gemini-2.0-flash",
			Timeout:  30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 120,
			Burst:          20,
		},
		WebSocket: WebSocketConfig{
			Enabled:        true,
			Path:           "/ws",
			MaxConnections: 100,
			PingInterval:   54 * time.Second,
			PongTimeout:    60 * time.Second,
			WriteTimeout:   10 * time.Second,
			Events: EventsConfig{
				BroadcastRequests:    true,
				BroadcastMasking:     true,
				BroadcastSystem:      true,
				BroadcastConnections: true,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File: FileConfig{
				Enabled:  false,
				Path:     "logs/concierge.log",
				MaxSize:  100, // MB
				MaxAge:   30,  // days
				Compress: true,
			},
		},
	}
}
