package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	TransportStdio = "stdio"
	TransportTCP   = "tcp"
)

type ServerConfig struct {
	Name            string   `toml:"name"`
	Transport       string   `toml:"transport"`
	Addr            string   `toml:"addr"`
	AdminAddr       string   `toml:"admin_addr"`
	CorsOrigins     []string `toml:"cors_origins"`
	MaxMessageBytes int      `toml:"max_message_bytes"`
}

// DefaultServerConfig serves the demo registry over stdio without an admin
// listener.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Name:            "wirecall",
		Transport:       TransportStdio,
		Addr:            "127.0.0.1:9300",
		MaxMessageBytes: 1 << 20,
	}
}

func LoadServerConfig(path string) (ServerConfig, error) {
	var cfg ServerConfig
	if err := loadToml(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	cfg = withServerDefaults(cfg)
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func withServerDefaults(cfg ServerConfig) ServerConfig {
	def := DefaultServerConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.Transport == "" {
		cfg.Transport = def.Transport
	}
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.MaxMessageBytes == 0 {
		cfg.MaxMessageBytes = def.MaxMessageBytes
	}
	return cfg
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("server config missing name")
	}
	switch cfg.Transport {
	case TransportStdio:
	case TransportTCP:
		if strings.TrimSpace(cfg.Addr) == "" {
			return fmt.Errorf("server config missing addr for tcp transport")
		}
	default:
		return fmt.Errorf("server config transport %q must be %q or %q", cfg.Transport, TransportStdio, TransportTCP)
	}
	if cfg.MaxMessageBytes < 0 {
		return fmt.Errorf("server config max_message_bytes must not be negative")
	}
	if cfg.AdminAddr != "" && cfg.AdminAddr == cfg.Addr && cfg.Transport == TransportTCP {
		return fmt.Errorf("server config admin_addr collides with addr")
	}
	return nil
}
