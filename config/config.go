// Package config loads service configuration from an optional YAML file
// and UP_-prefixed environment variables, env taking precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	// Port the HTTP server listens on.
	Port string `mapstructure:"port"`

	// AllowedOrigins is a comma-separated CORS origin list. "*" allows all.
	AllowedOrigins string `mapstructure:"allowed_origins"`

	// LogLevel: debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// DataDB is the SQLite path for the durable document store. Empty
	// keeps documents in process memory only.
	DataDB string `mapstructure:"data_db"`

	// MaxUploadBytes caps multipart upload size.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`

	// ParseTimeout bounds one extraction request end to end.
	ParseTimeout time.Duration `mapstructure:"parse_timeout"`

	// MCPTransport enables the MCP tool surface when set to "stdio".
	MCPTransport string `mapstructure:"mcp_transport"`

	Rich RichConfig `mapstructure:"rich"`
	LLM  LLMConfig  `mapstructure:"llm"`
}

// RichConfig configures the external layout-aware PDF converter.
type RichConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LLMConfig configures the optional markdown refiner.
type LLMConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	BaseURL         string  `mapstructure:"base_url"`
	APIKey          string  `mapstructure:"api_key"`
	Model           string  `mapstructure:"model"`
	Temperature     float32 `mapstructure:"temperature"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
	MaxInputChars   int     `mapstructure:"max_input_chars"`
}

// Origins returns the parsed CORS origin list.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Load reads configuration. configPath may be empty, in which case only
// defaults and UP_-prefixed environment variables apply (e.g.
// UP_LLM_ENABLED for llm.enabled).
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("UP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it even
// without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8000")
	v.SetDefault("allowed_origins", "*")
	v.SetDefault("log_level", "info")
	v.SetDefault("data_db", "")
	v.SetDefault("max_upload_bytes", int64(100*1024*1024))
	v.SetDefault("parse_timeout", 2*time.Minute)
	v.SetDefault("mcp_transport", "")

	v.SetDefault("rich.base_url", "")
	v.SetDefault("rich.api_key", "")
	v.SetDefault("rich.timeout", 60*time.Second)

	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.base_url", "http://localhost:8001")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_output_tokens", 1200)
	v.SetDefault("llm.max_input_chars", 12000)
}
