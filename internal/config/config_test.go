package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Pebble.Path != "./data/pebble" {
		t.Errorf("default pebble path = %q", cfg.Pebble.Path)
	}
	if cfg.Miner.Workers != 1 {
		t.Errorf("default miner workers = %d, want 1", cfg.Miner.Workers)
	}
	if cfg.Node.Enabled {
		t.Error("node should be disabled by default")
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 9999
node:
  enabled: true
  host: "127.0.0.1:22461"
  user: rpcuser
  pass: rpcpass
  http_mode: true
miner:
  workers: 4
  start_nonce: 100
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("server port = %d, want 9999", cfg.Server.Port)
	}
	if !cfg.Node.Enabled || cfg.Node.Host != "127.0.0.1:22461" || !cfg.Node.HTTPMode {
		t.Errorf("node config = %+v", cfg.Node)
	}
	if cfg.Miner.Workers != 4 || cfg.Miner.StartNonce != 100 {
		t.Errorf("miner config = %+v", cfg.Miner)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("NODE_ENABLED", "1")
	t.Setenv("NODE_HOST", "node.example:8334")
	t.Setenv("MINER_WORKERS", "8")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("server port = %d, want 7070", cfg.Server.Port)
	}
	if !cfg.Node.Enabled || cfg.Node.Host != "node.example:8334" {
		t.Errorf("node config = %+v", cfg.Node)
	}
	if cfg.Miner.Workers != 8 {
		t.Errorf("miner workers = %d, want 8", cfg.Miner.Workers)
	}
}

func TestLoadClampsWorkers(t *testing.T) {
	t.Setenv("MINER_WORKERS", "-2")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Miner.Workers != 1 {
		t.Errorf("miner workers = %d, want clamp to 1", cfg.Miner.Workers)
	}
}
