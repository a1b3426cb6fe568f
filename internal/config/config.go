package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535

	// DefaultPath is used when neither the flag nor the environment names a config file
	DefaultPath = "configs/viewer-service/config.yaml"
	// PathEnv names the environment variable holding the config path
	PathEnv = "VIEWER_SERVICE_CONFIG_PATH"

	// MaxRetainedJobs is the upper bound for jobs.max_retained
	MaxRetainedJobs = 100

	// GeneratorCLI runs an external command per job
	GeneratorCLI = "cli"
	// GeneratorGemini calls the Gemini API per job
	GeneratorGemini = "gemini"

	// DefaultGeneratorTimeout applies when generator.timeout is omitted
	DefaultGeneratorTimeout = 10 * time.Minute
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Jobs      JobsConfig      `yaml:"jobs"`
	Generator GeneratorConfig `yaml:"generator"`
	Prompt    PromptConfig    `yaml:"prompt"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr is the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// MarkdownRoot is a browsable document directory
type MarkdownRoot struct {
	Label string `yaml:"label"`
	Dir   string `yaml:"dir"`
}

// WorkspaceConfig locates projects, documents and the web UI
type WorkspaceConfig struct {
	Root          string         `yaml:"root"`
	WebRoot       string         `yaml:"web_root"`
	ProjectsDir   string         `yaml:"projects_dir"`
	InputFile     string         `yaml:"input_file"`
	MarkdownRoots []MarkdownRoot `yaml:"markdown_roots"`
}

// JobsConfig holds job retention and provider settings
type JobsConfig struct {
	MaxRetained int      `yaml:"max_retained"`
	Providers   []string `yaml:"providers"`
}

// GeminiConfig holds Gemini API settings
type GeminiConfig struct {
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	Temperature float32 `yaml:"temperature"`
}

// GeneratorConfig selects and configures the estimate generator
type GeneratorConfig struct {
	Kind    string         `yaml:"kind"`
	Command string         `yaml:"command"`
	Args    []string       `yaml:"args"`
	Dir     string         `yaml:"dir"`
	// Timeout bounds one generator call; nil means the default, zero disables the limit
	Timeout *time.Duration `yaml:"timeout"`
	Gemini  GeminiConfig   `yaml:"gemini"`
}

// JobTimeout is the effective per-job generator timeout
func (g GeneratorConfig) JobTimeout() time.Duration {
	if g.Timeout == nil {
		return DefaultGeneratorTimeout
	}
	return *g.Timeout
}

// PromptConfig holds prompt assembly settings
type PromptConfig struct {
	SharedReferences  []string            `yaml:"shared_references"`
	References        map[string][]string `yaml:"references"`
	MaxReferenceChars int                 `yaml:"max_reference_chars"`
	MaxInputChars     int                 `yaml:"max_input_chars"`
	TruncationMarker  string              `yaml:"truncation_marker"`
}

// RabbitMQConfig holds the optional event publisher configuration
type RabbitMQConfig struct {
	Enabled          bool             `yaml:"enabled"`
	Host             string           `yaml:"host"`
	Port             int              `yaml:"port"`
	User             string           `yaml:"user"`
	Password         string           `yaml:"password"`
	VHost            string           `yaml:"vhost"`
	Exchange         ExchangeConfig   `yaml:"exchange"`
	RoutingKeyPrefix string           `yaml:"routing_key_prefix"`
	Connection       ConnectionConfig `yaml:"connection"`
	Publish          PublishConfig    `yaml:"publish"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Durable bool   `yaml:"durable"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// ResolvePath picks the config file: explicit flag, then environment, then the default
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(PathEnv); env != "" {
		return env
	}
	return DefaultPath
}

// Load reads and parses the configuration file, then applies defaults and environment overrides
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "estimate-viewer"
	}

	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 4173
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	if c.Workspace.Root == "" {
		c.Workspace.Root = "."
	}
	if c.Workspace.WebRoot == "" {
		c.Workspace.WebRoot = "web"
	}
	if c.Workspace.ProjectsDir == "" {
		c.Workspace.ProjectsDir = "estimates"
	}
	if c.Workspace.InputFile == "" {
		c.Workspace.InputFile = "infra.md"
	}
	if len(c.Workspace.MarkdownRoots) == 0 {
		c.Workspace.MarkdownRoots = []MarkdownRoot{
			{Label: "skills", Dir: "skills"},
			{Label: "skills", Dir: ".claude/skills"},
			{Label: "cost", Dir: "cost"},
			{Label: "estimates", Dir: "estimates"},
		}
	}

	if c.Jobs.MaxRetained == 0 {
		c.Jobs.MaxRetained = MaxRetainedJobs
	}
	if len(c.Jobs.Providers) == 0 {
		c.Jobs.Providers = []string{"aws", "gcp", "azure"}
	}
	for i, p := range c.Jobs.Providers {
		c.Jobs.Providers[i] = strings.ToLower(strings.TrimSpace(p))
	}

	if c.Generator.Kind == "" {
		c.Generator.Kind = GeneratorCLI
	}
	if c.Generator.Kind == GeneratorCLI && c.Generator.Command == "" {
		c.Generator.Command = "claude"
		if c.Generator.Args == nil {
			c.Generator.Args = []string{"-p"}
		}
	}
	if c.Generator.Timeout == nil {
		timeout := DefaultGeneratorTimeout
		c.Generator.Timeout = &timeout
	}
	if c.Generator.Gemini.Model == "" {
		c.Generator.Gemini.Model = "gemini-1.5-flash"
	}

	if c.Prompt.MaxReferenceChars == 0 {
		c.Prompt.MaxReferenceChars = 12000
	}
	if c.Prompt.MaxInputChars == 0 {
		c.Prompt.MaxInputChars = 40000
	}
	if c.Prompt.TruncationMarker == "" {
		c.Prompt.TruncationMarker = "\n\n[... truncated ...]"
	}

	if c.RabbitMQ.Port == 0 {
		c.RabbitMQ.Port = 5672
	}
	if c.RabbitMQ.Exchange.Type == "" {
		c.RabbitMQ.Exchange.Type = "topic"
	}
	if c.RabbitMQ.Connection.RetryAttempts == 0 {
		c.RabbitMQ.Connection.RetryAttempts = 5
	}
	if c.RabbitMQ.Connection.RetryInterval == 0 {
		c.RabbitMQ.Connection.RetryInterval = 2 * time.Second
	}
	if c.RabbitMQ.Connection.Heartbeat == 0 {
		c.RabbitMQ.Connection.Heartbeat = 10 * time.Second
	}
}

// applyEnv lets HOST, PORT and GEMINI_API_KEY override the file
func (c *Config) applyEnv() error {
	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT value %q: %w", port, err)
		}
		c.Server.Port = n
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Generator.Gemini.APIKey = key
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if c.Jobs.MaxRetained < 1 || c.Jobs.MaxRetained > MaxRetainedJobs {
		return fmt.Errorf("invalid jobs max_retained: %d (must be between 1 and %d)", c.Jobs.MaxRetained, MaxRetainedJobs)
	}

	seen := make(map[string]struct{}, len(c.Jobs.Providers))
	for _, p := range c.Jobs.Providers {
		if p == "" {
			return errors.New("jobs providers must not contain empty names")
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("duplicate provider: %s", p)
		}
		seen[p] = struct{}{}
	}

	if !slices.Contains([]string{GeneratorCLI, GeneratorGemini}, c.Generator.Kind) {
		return fmt.Errorf("invalid generator kind: %s (must be %s or %s)", c.Generator.Kind, GeneratorCLI, GeneratorGemini)
	}
	if c.Generator.Kind == GeneratorCLI && c.Generator.Command == "" {
		return errors.New("generator command is required")
	}
	if c.Generator.Kind == GeneratorGemini && c.Generator.Gemini.APIKey == "" {
		return errors.New("gemini api_key is required (or set GEMINI_API_KEY)")
	}
	if c.Generator.JobTimeout() < 0 {
		return errors.New("generator timeout must not be negative")
	}

	if c.RabbitMQ.Enabled {
		if c.RabbitMQ.Host == "" {
			return errors.New("rabbitmq host is required")
		}
		if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
			return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
		}
		if c.RabbitMQ.Exchange.Name == "" {
			return errors.New("rabbitmq exchange name is required")
		}
	}

	return nil
}
