package config

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/c.mueller/gantt-order-sync/internal/dragdrop"
	"gopkg.in/yaml.v3"
)

// Config represents the server configuration
type Config struct {
	Node     NodeConfig    `yaml:"node"`
	Cluster  ClusterConfig `yaml:"cluster"`
	LogLevel string        `yaml:"log_level,omitempty"` // debug, info, warn, error
}

// NodeConfig contains node-specific configuration
type NodeConfig struct {
	Name     string     `yaml:"name"`
	Serf     SerfConfig `yaml:"serf"`
	HTTP     HTTPConfig `yaml:"http"`
	Database DBConfig   `yaml:"database"`
}

// SerfConfig contains Serf-specific configuration
type SerfConfig struct {
	BindAddr      string `yaml:"bind_addr"`
	AdvertiseAddr string `yaml:"advertise_addr,omitempty"`
}

// HTTPConfig contains HTTP server configuration
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// DBConfig contains database configuration
type DBConfig struct {
	Path string `yaml:"path"`
}

// ClusterConfig contains cluster configuration
type ClusterConfig struct {
	Standalone  bool     `yaml:"standalone,omitempty"` // run without serf
	Seeds       []string `yaml:"seeds"`
	EncryptKey  string   `yaml:"encrypt_key,omitempty"`  // base64, 16, 24 or 32 bytes
	JoinTimeout int      `yaml:"join_timeout,omitempty"` // seconds
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{
		Node: NodeConfig{
			Name: "node-1",
			Serf: SerfConfig{BindAddr: "0.0.0.0:7946"},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Node.HTTP.Port == 0 {
		c.Node.HTTP.Port = 8080
	}
	if c.Node.Database.Path == "" {
		c.Node.Database.Path = "./gantt.db"
	}
	if c.Cluster.JoinTimeout == 0 {
		c.Cluster.JoinTimeout = 10
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// JoinTimeoutDuration returns the join timeout as a duration
func (c ClusterConfig) JoinTimeoutDuration() time.Duration {
	return time.Duration(c.JoinTimeout) * time.Second
}

// DecodeEncryptKey returns the gossip key, or nil when none is set
func (c ClusterConfig) DecodeEncryptKey() ([]byte, error) {
	if c.EncryptKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.EncryptKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encrypt_key: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	}
	return nil, fmt.Errorf("invalid encrypt_key: %d bytes, want 16, 24 or 32", len(key))
}

// ClientConfig configures ganttctl
type ClientConfig struct {
	ServerURL  string `yaml:"server_url"`
	Timeout    int    `yaml:"timeout,omitempty"`     // seconds
	MaxPending int    `yaml:"max_pending,omitempty"` // tracked reorders
	LogLevel   string `yaml:"log_level,omitempty"`
}

// DefaultClient returns the client configuration used when no file is given
func DefaultClient() *ClientConfig {
	cfg := &ClientConfig{}
	cfg.applyDefaults()
	return cfg
}

// LoadClientConfig loads the ganttctl configuration from a YAML file
func LoadClientConfig(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config ClientConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *ClientConfig) applyDefaults() {
	if c.ServerURL == "" {
		c.ServerURL = "http://127.0.0.1:8080"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10
	}
	if c.MaxPending <= 0 {
		c.MaxPending = dragdrop.MaxPending
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// TimeoutDuration returns the request timeout as a duration
func (c ClientConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// ParseLogLevel converts a log level string to slog.Level
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
