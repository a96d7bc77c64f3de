// Package config loads ontologyd's configuration from a YAML file, with
// environment-variable overrides applied on top. Grounded on the teacher's
// pkg/config/config.go pattern (LoadFromEnv + env-var helpers + Validate),
// adapted from Neo4j-compatible env vars to a YAML document since this
// server has no existing deployment convention to stay compatible with.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything ontologyd needs to start: where the graph lives,
// which transports are enabled, and how verbosely to log.
type Config struct {
	Graph     GraphConfig     `yaml:"graph"`
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GraphConfig controls where the persisted ontology document lives.
type GraphConfig struct {
	// SourcePath is the node-link JSON document loaded at startup and
	// written back by save_changes. Empty means start with an empty graph.
	SourcePath string `yaml:"source_path"`
}

// ServerConfig controls the HTTP CRUD surface (spec.md §6 supplement).
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// TransportConfig controls which MCP transport bindings run and their
// parameters (spec.md §4.5/§6).
type TransportConfig struct {
	StandardStreamEnabled bool `yaml:"standard_stream_enabled"`

	NamedPipeEnabled      bool          `yaml:"named_pipe_enabled"`
	NamedPipeInPath       string        `yaml:"named_pipe_in_path"`
	NamedPipeOutPath      string        `yaml:"named_pipe_out_path"`
	NamedPipeReopenDelay  time.Duration `yaml:"named_pipe_reopen_delay"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR.
	Level string `yaml:"level"`
}

// Default returns the configuration ontologyd starts with when no file is
// given: an empty in-memory graph, StandardStream transport only, the HTTP
// CRUD surface on 0.0.0.0:8080, INFO logging.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Address: "0.0.0.0", Port: 8080},
		Transport: TransportConfig{
			StandardStreamEnabled: true,
			NamedPipeInPath:       "/run/cyberon/mcp_in.pipe",
			NamedPipeOutPath:      "/run/cyberon/mcp_out.pipe",
			NamedPipeReopenDelay:  time.Second,
		},
		Logging: LoggingConfig{Level: "INFO"},
	}
}

// Load reads path as YAML over the defaults, then applies environment
// overrides. An empty path skips the file read and returns defaults plus
// env overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets deployment environments override file settings
// without editing the YAML, matching the teacher's env-var-wins precedence.
func applyEnvOverrides(cfg *Config) {
	cfg.Graph.SourcePath = getEnv("ONTOLOGYD_GRAPH_SOURCE_PATH", cfg.Graph.SourcePath)
	cfg.Server.Address = getEnv("ONTOLOGYD_SERVER_ADDRESS", cfg.Server.Address)
	cfg.Server.Port = getEnvInt("ONTOLOGYD_SERVER_PORT", cfg.Server.Port)
	cfg.Transport.StandardStreamEnabled = getEnvBool("ONTOLOGYD_STDIO_ENABLED", cfg.Transport.StandardStreamEnabled)
	cfg.Transport.NamedPipeEnabled = getEnvBool("ONTOLOGYD_NAMED_PIPE_ENABLED", cfg.Transport.NamedPipeEnabled)
	cfg.Transport.NamedPipeInPath = getEnv("ONTOLOGYD_NAMED_PIPE_IN", cfg.Transport.NamedPipeInPath)
	cfg.Transport.NamedPipeOutPath = getEnv("ONTOLOGYD_NAMED_PIPE_OUT", cfg.Transport.NamedPipeOutPath)
	cfg.Logging.Level = getEnv("ONTOLOGYD_LOG_LEVEL", cfg.Logging.Level)
}

// Validate checks for logically invalid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port: %d", c.Server.Port)
	}
	if !c.Transport.StandardStreamEnabled && !c.Transport.NamedPipeEnabled {
		return fmt.Errorf("config: at least one transport must be enabled")
	}
	if c.Transport.NamedPipeEnabled && (c.Transport.NamedPipeInPath == "" || c.Transport.NamedPipeOutPath == "") {
		return fmt.Errorf("config: named-pipe transport requires both in and out paths")
	}
	switch c.Logging.Level {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("config: invalid log level: %s", c.Logging.Level)
	}
	return nil
}

// String returns a safe, log-friendly summary.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Graph: %s, HTTP: %s:%d, StandardStream: %v, NamedPipe: %v, Log: %s}",
		c.Graph.SourcePath, c.Server.Address, c.Server.Port,
		c.Transport.StandardStreamEnabled, c.Transport.NamedPipeEnabled, c.Logging.Level,
	)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
