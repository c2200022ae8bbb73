// Package config holds the per-CLI configuration for ccnx-server,
// ccnx-client, and ccnx-relay: ServerConfig, ClientConfig and RelayConfig,
// each with its Default*Config and Validate*Config functions, modeled
// directly on the teacher's node.Config/DefaultConfig/ValidateConfig shape.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// ServerConfig configures the ccnx-server publisher CLI.
type ServerConfig struct {
	Port      uint16 `json:"port"`
	Prefix    string `json:"prefix"`
	Dir       string `json:"dir"`
	KeyPath   string `json:"key"`
	CachePath string `json:"cache"`
	ChunkSize int    `json:"chunk_size"`
	LogLevel  string `json:"log_level"`
	MetricsOn bool   `json:"metrics"`
}

// DefaultChunkSize bounds every content object (manifest or data chunk) to
// fit a single sub-1500-byte UDP datagram, per the retrieval scenario's
// "every received datagram is <= 1500 bytes" requirement.
const DefaultChunkSize = 1400

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:      9695,
		ChunkSize: DefaultChunkSize,
		LogLevel:  "info",
		MetricsOn: true,
	}
}

func ValidateServerConfig(cfg ServerConfig) error {
	if cfg.Port == 0 {
		return errors.New("port is required")
	}
	if strings.TrimSpace(cfg.Prefix) == "" {
		return errors.New("prefix is required")
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		return errors.New("dir is required")
	}
	if strings.TrimSpace(cfg.KeyPath) == "" {
		return errors.New("key is required")
	}
	if cfg.ChunkSize <= 0 {
		return errors.New("chunk_size must be > 0")
	}
	return validateLogLevel(cfg.LogLevel)
}

// ClientConfig configures the ccnx-client consumer CLI.
type ClientConfig struct {
	Port       uint16 `json:"port"`
	Name       string `json:"name"`
	Peer       string `json:"peer"`
	PubKeyPath string `json:"pubkey"`
	LogLevel   string `json:"log_level"`
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Port:     0,
		LogLevel: "info",
	}
}

func ValidateClientConfig(cfg ClientConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return errors.New("name is required")
	}
	if err := validateAddr(cfg.Peer); err != nil {
		return fmt.Errorf("invalid peer: %w", err)
	}
	if strings.TrimSpace(cfg.PubKeyPath) == "" {
		return errors.New("pubkey is required")
	}
	return validateLogLevel(cfg.LogLevel)
}

// RelayConfig configures the ccnx-relay CLI.
type RelayConfig struct {
	Port     uint16   `json:"port"`
	Peers    []string `json:"peers"`
	LogLevel string   `json:"log_level"`
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		LogLevel: "info",
	}
}

func ValidateRelayConfig(cfg RelayConfig) error {
	if cfg.Port == 0 {
		return errors.New("port is required")
	}
	if len(cfg.Peers) != 2 {
		return fmt.Errorf("relay requires exactly 2 --peers, got %d", len(cfg.Peers))
	}
	for _, peer := range cfg.Peers {
		if err := validateAddr(peer); err != nil {
			return fmt.Errorf("invalid peer %q: %w", peer, err)
		}
	}
	return validateLogLevel(cfg.LogLevel)
}

func validateLogLevel(level string) error {
	logLevel := strings.ToLower(strings.TrimSpace(level))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", level)
	}
	return nil
}

func validateAddr(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("empty address")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if strings.TrimSpace(port) == "" {
		return errors.New("missing port")
	}
	if strings.Contains(host, " ") {
		return errors.New("invalid host")
	}
	return nil
}
