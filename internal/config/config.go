package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Pebble PebbleConfig `yaml:"pebble"`
	Node   NodeConfig   `yaml:"node"`
	Miner  MinerConfig  `yaml:"miner"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// PebbleConfig represents the Pebble database configuration
type PebbleConfig struct {
	Path string `yaml:"path"`
}

// NodeConfig represents the configuration for the daemon RPC connection
type NodeConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Host       string `yaml:"host"`
	User       string `yaml:"user"`
	Pass       string `yaml:"pass"`
	Cert       string `yaml:"cert"`
	DisableTLS bool   `yaml:"disable_tls"`
	HTTPMode   bool   `yaml:"http_mode"` // Use HTTP POST instead of WebSocket (for bitcoind-style daemons)
}

// MinerConfig represents the nonce search defaults
type MinerConfig struct {
	Workers    int    `yaml:"workers"`     // search workers per job (default: 1)
	StartNonce uint32 `yaml:"start_nonce"` // default starting offset for searches
}

// Load loads configuration from a YAML file and environment variables
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Pebble: PebbleConfig{
			Path: "./data/pebble",
		},
		Miner: MinerConfig{
			Workers: 1,
		},
	}

	// Load from YAML file if it exists
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	cfg.loadEnv()

	if cfg.Miner.Workers < 1 {
		cfg.Miner.Workers = 1
	}

	return cfg, nil
}

func (c *Config) loadEnv() {
	// Server config
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}

	// Pebble config
	if path := os.Getenv("PEBBLE_PATH"); path != "" {
		c.Pebble.Path = path
	}

	// Node config
	if enabled := os.Getenv("NODE_ENABLED"); enabled != "" {
		c.Node.Enabled = enabled == "true" || enabled == "1"
	}
	if host := os.Getenv("NODE_HOST"); host != "" {
		c.Node.Host = host
	}
	if user := os.Getenv("NODE_USER"); user != "" {
		c.Node.User = user
	}
	if pass := os.Getenv("NODE_PASS"); pass != "" {
		c.Node.Pass = pass
	}
	if cert := os.Getenv("NODE_CERT"); cert != "" {
		c.Node.Cert = cert
	}
	if disableTLS := os.Getenv("NODE_DISABLE_TLS"); disableTLS != "" {
		c.Node.DisableTLS = disableTLS == "true" || disableTLS == "1"
	}
	if httpMode := os.Getenv("NODE_HTTP_MODE"); httpMode != "" {
		c.Node.HTTPMode = httpMode == "true" || httpMode == "1"
	}

	// Miner config
	if workers := os.Getenv("MINER_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			c.Miner.Workers = w
		}
	}
	if start := os.Getenv("MINER_START_NONCE"); start != "" {
		if s, err := strconv.ParseUint(start, 10, 32); err == nil {
			c.Miner.StartNonce = uint32(s)
		}
	}
}
