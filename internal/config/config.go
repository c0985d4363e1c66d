package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Cache     CacheConfig     `mapstructure:"cache"     validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// SchedulerConfig contains the worker pool settings.
type SchedulerConfig struct {
	// Workers is the fixed size of the concurrent worker pool.
	Workers int `mapstructure:"workers" validate:"required,gt=0,lte=256"`
}

// CacheConfig contains the result cache settings.
type CacheConfig struct {
	// Capacity bounds the number of cached prompt results.
	Capacity int `mapstructure:"capacity" validate:"required,gt=0"`

	// Enabled toggles serving repeated prompts from the cache.
	Enabled bool `mapstructure:"enabled"`
}

// LLMConfig contains executor backend settings. With no API key
// configured the server falls back to the deterministic echo executor.
type LLMConfig struct {
	// Provider selects the executor backend: "echo", "gemini" or "anthropic".
	Provider string `mapstructure:"provider" validate:"omitempty,oneof=echo gemini anthropic"`

	APIKey    string `mapstructure:"api_key"`
	ModelName string `mapstructure:"model_name"`
	MaxTokens int    `mapstructure:"max_tokens" validate:"omitempty,gt=0"`
}
