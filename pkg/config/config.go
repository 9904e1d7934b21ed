package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig  `yaml:"server"`
	Render        RenderConfig  `yaml:"render"`
	Build         BuildConfig   `yaml:"build"`
	AcceptBackoff BackoffConfig `yaml:"accept_backoff"`
	Logging       LogConfig     `yaml:"logging"`
}

// ServerConfig contains settings for the content server
type ServerConfig struct {
	Root         string `yaml:"root"`
	Address      string `yaml:"address"`
	Workers      int    `yaml:"workers"`
	QueueSize    int    `yaml:"queue_size"`
	ReadTimeout  int    `yaml:"read_timeout"`  // in seconds, 0 disables
	WriteTimeout int    `yaml:"write_timeout"` // in seconds, 0 disables
}

// RenderConfig contains settings for the Markdown renderer
type RenderConfig struct {
	SourceExtension string `yaml:"source_extension"`
	IndexName       string `yaml:"index_name"`
	CodeStyle       string `yaml:"code_style"`
}

// BuildConfig contains default paths for the static build
type BuildConfig struct {
	Source string `yaml:"source"`
	Output string `yaml:"output"`
}

// BackoffConfig controls the delay after a transient accept failure
type BackoffConfig struct {
	InitialDelay  int     `yaml:"initial_delay"` // in milliseconds
	MaxDelay      int     `yaml:"max_delay"`     // in milliseconds
	BackoffFactor float64 `yaml:"backoff_factor"`
	JitterFactor  float64 `yaml:"jitter_factor"`
}

// LogConfig contains settings for logging
type LogConfig struct {
	LogToFile   bool   `yaml:"log_to_file"`
	LogFilePath string `yaml:"log_file_path"`
	MaxSize     int    `yaml:"max_size"`    // maximum size in megabytes
	MaxBackups  int    `yaml:"max_backups"` // maximum number of old log files to retain
	MaxAge      int    `yaml:"max_age"`     // maximum number of days to retain old log files
	Compress    bool   `yaml:"compress"`
	Pretty      bool   `yaml:"pretty"` // human readable console output instead of JSON
}

// LoadDefault returns a configuration with default values
func LoadDefault() *Config {
	return &Config{
		Server: ServerConfig{
			Root:         "./src",
			Address:      "127.0.0.1:8080",
			Workers:      4,
			QueueSize:    64,
			ReadTimeout:  10,
			WriteTimeout: 10,
		},
		Render: RenderConfig{
			SourceExtension: "md",
			IndexName:       "index",
			CodeStyle:       "monokai",
		},
		Build: BuildConfig{
			Source: "./src",
			Output: "./build",
		},
		AcceptBackoff: BackoffConfig{
			InitialDelay:  5,
			MaxDelay:      1000,
			BackoffFactor: 2.0,
			JitterFactor:  0.1,
		},
		Logging: LogConfig{
			LogToFile:   false,
			LogFilePath: "mdserve.log",
			MaxSize:     10,
			MaxBackups:  3,
			MaxAge:      28,
			Compress:    true,
			Pretty:      true,
		},
	}
}

// Default returns a configuration with default values
// This is an alias for LoadDefault
func Default() *Config {
	return LoadDefault()
}

// Load reads configuration from a file and merges it with default values
func Load(configPath string) (*Config, error) {
	cfg := LoadDefault()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Merge server configuration
	if fileCfg.Server.Root != "" {
		cfg.Server.Root = fileCfg.Server.Root
	}
	if fileCfg.Server.Address != "" {
		cfg.Server.Address = fileCfg.Server.Address
	}
	if fileCfg.Server.Workers > 0 {
		cfg.Server.Workers = fileCfg.Server.Workers
	}
	if fileCfg.Server.QueueSize > 0 {
		cfg.Server.QueueSize = fileCfg.Server.QueueSize
	}
	if fileCfg.Server.ReadTimeout > 0 {
		cfg.Server.ReadTimeout = fileCfg.Server.ReadTimeout
	}
	if fileCfg.Server.WriteTimeout > 0 {
		cfg.Server.WriteTimeout = fileCfg.Server.WriteTimeout
	}

	// Merge render configuration
	if fileCfg.Render.SourceExtension != "" {
		cfg.Render.SourceExtension = fileCfg.Render.SourceExtension
	}
	if fileCfg.Render.IndexName != "" {
		cfg.Render.IndexName = fileCfg.Render.IndexName
	}
	if fileCfg.Render.CodeStyle != "" {
		cfg.Render.CodeStyle = fileCfg.Render.CodeStyle
	}

	// Merge build configuration
	if fileCfg.Build.Source != "" {
		cfg.Build.Source = fileCfg.Build.Source
	}
	if fileCfg.Build.Output != "" {
		cfg.Build.Output = fileCfg.Build.Output
	}

	// Merge accept backoff configuration
	if fileCfg.AcceptBackoff.InitialDelay > 0 {
		cfg.AcceptBackoff.InitialDelay = fileCfg.AcceptBackoff.InitialDelay
	}
	if fileCfg.AcceptBackoff.MaxDelay > 0 {
		cfg.AcceptBackoff.MaxDelay = fileCfg.AcceptBackoff.MaxDelay
	}
	if fileCfg.AcceptBackoff.BackoffFactor > 0 {
		cfg.AcceptBackoff.BackoffFactor = fileCfg.AcceptBackoff.BackoffFactor
	}
	if fileCfg.AcceptBackoff.JitterFactor > 0 {
		cfg.AcceptBackoff.JitterFactor = fileCfg.AcceptBackoff.JitterFactor
	}

	// Merge logging configuration
	if fileCfg.Logging.LogToFile {
		cfg.Logging.LogToFile = fileCfg.Logging.LogToFile
	}
	if fileCfg.Logging.LogFilePath != "" {
		cfg.Logging.LogFilePath = fileCfg.Logging.LogFilePath
	}
	if fileCfg.Logging.MaxSize > 0 {
		cfg.Logging.MaxSize = fileCfg.Logging.MaxSize
	}
	if fileCfg.Logging.MaxBackups > 0 {
		cfg.Logging.MaxBackups = fileCfg.Logging.MaxBackups
	}
	if fileCfg.Logging.MaxAge > 0 {
		cfg.Logging.MaxAge = fileCfg.Logging.MaxAge
	}

	applyEnv(cfg)

	return cfg, nil
}

// LoadOrDefault attempts to load configuration from a file
// If the file doesn't exist or can't be parsed, it returns default configuration
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", configPath, err)
		fmt.Fprintf(os.Stderr, "Using default configuration\n")
		cfg = LoadDefault()
		applyEnv(cfg)
	}
	return cfg
}

// FromEnvironment returns the default configuration with environment
// overrides applied
func FromEnvironment() *Config {
	cfg := LoadDefault()
	applyEnv(cfg)
	return cfg
}

// applyEnv lets MDSERVE_ROOT and MDSERVE_ADDRESS override the server section
func applyEnv(cfg *Config) {
	if root := os.Getenv("MDSERVE_ROOT"); root != "" {
		cfg.Server.Root = root
	}
	if addr := os.Getenv("MDSERVE_ADDRESS"); addr != "" {
		cfg.Server.Address = addr
	}
}

// ReadTimeout returns the per-connection read deadline as a duration
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeout) * time.Second
}

// WriteTimeout returns the per-connection write deadline as a duration
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeout) * time.Second
}
