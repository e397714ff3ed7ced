package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ferrylb/ferry/internal/types"
)

// Load builds a Config starting from Default(), optionally overlaying a
// YAML file, then applying environment variable overrides. Grounded on
// the teacher's Load(configFile) → defaults → yaml.Unmarshal → loadFromEnv
// → validate pipeline (internal/config/loader.go).
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(cfg, configFile); err != nil {
			return nil, err
		}
	}

	loadFromEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", filename, err)
	}
	return nil
}

// loadFromEnv applies FERRY_* environment variable overrides, matching the
// teacher's STARGATE_* convention in loadFromEnv.
func loadFromEnv(cfg *Config) {
	if host := os.Getenv("FERRY_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("FERRY_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if level := os.Getenv("FERRY_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if attempts := os.Getenv("FERRY_REQUEST_MAX_ATTEMPTS"); attempts != "" {
		if n, err := strconv.Atoi(attempts); err == nil {
			cfg.Request.MaxAttempts = n
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", cfg.Server.Port)
	}
	if cfg.Request.MaxAttempts < 1 {
		return fmt.Errorf("config: request.max_attempts must be >= 1, got %d", cfg.Request.MaxAttempts)
	}
	return nil
}

// BootstrapNodes resolves the node list ferry should start with: the
// BACKEND_NODES environment variable when set and non-empty (form
// "host1:port1,host2:port2,..."), otherwise cfg.Nodes.Static. Ids are
// assigned as "node-<1-based-index>" per spec.md §6.
func BootstrapNodes(cfg *Config) ([]types.Node, error) {
	if raw := os.Getenv("BACKEND_NODES"); raw != "" {
		return parseBackendNodesEnv(raw)
	}

	nodes := make([]types.Node, 0, len(cfg.Nodes.Static))
	for i, sn := range cfg.Nodes.Static {
		nodes = append(nodes, types.Node{
			ID:       types.NodeId(fmt.Sprintf("node-%d", i+1)),
			Endpoint: types.Endpoint{Scheme: types.SchemeHTTP, Host: sn.Host, Port: sn.Port},
			Status:   types.HealthHealthy,
		})
	}
	return nodes, nil
}

func parseBackendNodesEnv(raw string) ([]types.Node, error) {
	entries := strings.Split(raw, ",")
	nodes := make([]types.Node, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		host, portStr, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("config: BACKEND_NODES entry %q missing port", entry)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("config: BACKEND_NODES entry %q has invalid port: %w", entry, err)
		}
		nodes = append(nodes, types.Node{
			ID:       types.NodeId(fmt.Sprintf("node-%d", len(nodes)+1)),
			Endpoint: types.Endpoint{Scheme: types.SchemeHTTP, Host: host, Port: port},
			Status:   types.HealthHealthy,
		})
	}
	return nodes, nil
}
