package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all duet configuration.
type Config struct {
	Name string `yaml:"name"`

	// Chat client (the terminal widget and `duet ask`)
	Client ClientConfig `yaml:"client"`

	// Terminal UI
	UI UIConfig `yaml:"ui"`

	// Backend HTTP server
	Server ServerConfig `yaml:"server"`

	// Course knowledge base used by the tutor agents
	Knowledge KnowledgeConfig `yaml:"knowledge"`

	// LLM configuration for the tutor agents
	LLM LLMConfig `yaml:"llm"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ClientConfig configures the chat client.
type ClientConfig struct {
	Endpoint       string `yaml:"endpoint"`        // full URL of the chat endpoint
	RequestTimeout string `yaml:"request_timeout"` // empty or "0" = transport default (none)
	CheckerDelay   string `yaml:"checker_delay"`   // pacing before the checker message
}

// UIConfig configures the terminal UI.
type UIConfig struct {
	Theme          string `yaml:"theme"` // light, dark, auto
	MaxInputHeight int    `yaml:"max_input_height"`
}

// ServerConfig configures `duet serve`.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	StaticDir       string `yaml:"static_dir"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// KnowledgeConfig configures the knowledge base.
type KnowledgeConfig struct {
	Path         string `yaml:"path"`
	MaxPages     int    `yaml:"max_pages"`
	ExcerptChars int    `yaml:"excerpt_chars"`
	Watch        bool   `yaml:"watch"`
}

// LLMConfig configures the provider behind the tutor agents.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai, qwen, dashscope, gemini
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float32 `yaml:"temperature"`
	Timeout     string  `yaml:"timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name: "duet",

		Client: ClientConfig{
			Endpoint:       "http://127.0.0.1:8000/api/chat",
			RequestTimeout: "0",
			CheckerDelay:   "500ms",
		},

		UI: UIConfig{
			Theme:          "auto",
			MaxInputHeight: 8,
		},

		Server: ServerConfig{
			Addr:            "0.0.0.0:8000",
			ShutdownTimeout: "10s",
		},

		Knowledge: KnowledgeConfig{
			Path:         "data/nndl-book.txt",
			MaxPages:     10,
			ExcerptChars: 8000,
		},

		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "qwen3-max",
			BaseURL:     "https://dashscope.aliyuncs.com/compatible-mode/v1",
			Temperature: 0.5,
			Timeout:     "120s",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultConfigPath returns the default config location relative to the
// working directory.
func DefaultConfigPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Join(".duet", "config.yaml")
	}
	return filepath.Join(cwd, ".duet", "config.yaml")
}

// LoadDotEnv loads a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from path. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "openai"
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}
	if url := os.Getenv("OPENAI_BASE_URL"); url != "" {
		c.LLM.BaseURL = url
	}
	if model := os.Getenv("MODEL_NAME"); model != "" {
		c.LLM.Model = model
	}

	if endpoint := os.Getenv("DUET_ENDPOINT"); endpoint != "" {
		c.Client.Endpoint = endpoint
	}
	if addr := os.Getenv("DUET_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if path := os.Getenv("DUET_KNOWLEDGE"); path != "" {
		c.Knowledge.Path = path
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// GetRequestTimeout returns the chat request timeout; zero means none.
func (c *Config) GetRequestTimeout() time.Duration {
	return parseDuration(c.Client.RequestTimeout, 0)
}

// GetCheckerDelay returns the pacing delay before the checker message.
func (c *Config) GetCheckerDelay() time.Duration {
	return parseDuration(c.Client.CheckerDelay, 500*time.Millisecond)
}

func (c *Config) GetLLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 120*time.Second)
}

func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

var ValidProviders = []string{"openai", "qwen", "dashscope", "gemini"}

// Validate checks the settings the backend needs. The chat client only needs
// an endpoint and never calls this.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set OPENAI_API_KEY or GEMINI_API_KEY, or llm.api_key)")
	}

	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server address not configured")
	}

	return nil
}
