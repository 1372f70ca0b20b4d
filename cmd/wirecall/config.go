package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/wirecall/internal/transport"
	homedir "github.com/mitchellh/go-homedir"
)

const (
	clientTransportProcess  = "process"
	clientTransportTCP      = "tcp"
	clientTransportSSH      = "ssh"
	clientTransportHTTP     = "http"
	clientTransportLoopback = "loopback"
	clientTransportWS       = "ws"
)

// ClientConfig says how the demo command reaches its peer.
type ClientConfig struct {
	Transport string
	Addr      string
	URL       string
	WSURL     string
	Origin    string
	// Command and Args start the peer for the process transport. An empty
	// Command re-executes this binary.
	Command  string
	Args     []string
	Timeout  time.Duration
	ExitCode int
	SSH      SSHPeerConfig
}

type SSHPeerConfig struct {
	transport.SSHConfig
	Command string
	Args    []string
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Transport: clientTransportProcess,
		Addr:      "127.0.0.1:9300",
		URL:       "http://127.0.0.1:9301/rpc",
		WSURL:     "ws://127.0.0.1:9301/ws",
		Origin:    "http://localhost:3000",
		Args:      []string{"serve"},
		Timeout:   30 * time.Second,
		SSH: SSHPeerConfig{
			SSHConfig: transport.SSHConfig{Timeout: 10 * time.Second},
			Command:   "wirecall",
			Args:      []string{"serve"},
		},
	}
}

type fileClientConfig struct {
	Transport string        `toml:"transport"`
	Addr      string        `toml:"addr"`
	URL       string        `toml:"url"`
	WSURL     string        `toml:"ws_url"`
	Origin    string        `toml:"origin"`
	Command   string        `toml:"command"`
	Args      []string      `toml:"args"`
	Timeout   string        `toml:"timeout"`
	ExitCode  int           `toml:"exit_code"`
	SSH       fileSSHConfig `toml:"ssh"`
}

type fileSSHConfig struct {
	Host                        string   `toml:"host"`
	Port                        string   `toml:"port"`
	User                        string   `toml:"user"`
	KeyPath                     string   `toml:"key_path"`
	Passphrase                  string   `toml:"passphrase"`
	KnownHostsPath              string   `toml:"known_hosts_path"`
	InsecureSkipHostKeyChecking bool     `toml:"insecure_skip_host_key_checking"`
	Timeout                     string   `toml:"timeout"`
	Command                     string   `toml:"command"`
	Args                        []string `toml:"args"`
}

func loadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()

	var raw fileClientConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("load client config: %w", err)
	}

	if meta.IsDefined("transport") {
		cfg.Transport = strings.ToLower(strings.TrimSpace(raw.Transport))
	}
	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("url") {
		cfg.URL = strings.TrimSpace(raw.URL)
	}
	if meta.IsDefined("ws_url") {
		cfg.WSURL = strings.TrimSpace(raw.WSURL)
	}
	if meta.IsDefined("origin") {
		cfg.Origin = strings.TrimSpace(raw.Origin)
	}
	if meta.IsDefined("command") {
		cfg.Command = strings.TrimSpace(raw.Command)
	}
	if meta.IsDefined("args") {
		cfg.Args = raw.Args
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return ClientConfig{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if meta.IsDefined("exit_code") {
		cfg.ExitCode = raw.ExitCode
	}

	if meta.IsDefined("ssh", "host") {
		cfg.SSH.Host = strings.TrimSpace(raw.SSH.Host)
	}
	if meta.IsDefined("ssh", "port") {
		cfg.SSH.Port = strings.TrimSpace(raw.SSH.Port)
	}
	if meta.IsDefined("ssh", "user") {
		cfg.SSH.User = strings.TrimSpace(raw.SSH.User)
	}
	if meta.IsDefined("ssh", "key_path") {
		path, err := homedir.Expand(strings.TrimSpace(raw.SSH.KeyPath))
		if err != nil {
			return ClientConfig{}, fmt.Errorf("expand ssh.key_path: %w", err)
		}
		cfg.SSH.KeyPath = path
	}
	if meta.IsDefined("ssh", "passphrase") {
		cfg.SSH.Passphrase = []byte(raw.SSH.Passphrase)
	}
	if meta.IsDefined("ssh", "known_hosts_path") {
		path, err := homedir.Expand(strings.TrimSpace(raw.SSH.KnownHostsPath))
		if err != nil {
			return ClientConfig{}, fmt.Errorf("expand ssh.known_hosts_path: %w", err)
		}
		cfg.SSH.KnownHostsPath = path
	}
	if meta.IsDefined("ssh", "insecure_skip_host_key_checking") {
		cfg.SSH.InsecureSkipHostKeyChecking = raw.SSH.InsecureSkipHostKeyChecking
	}
	if meta.IsDefined("ssh", "timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.SSH.Timeout))
		if err != nil {
			return ClientConfig{}, fmt.Errorf("parse ssh.timeout: %w", err)
		}
		cfg.SSH.Timeout = d
	}
	if meta.IsDefined("ssh", "command") {
		cfg.SSH.Command = strings.TrimSpace(raw.SSH.Command)
	}
	if meta.IsDefined("ssh", "args") {
		cfg.SSH.Args = raw.SSH.Args
	}

	if err := validateClientConfig(cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func validateClientConfig(cfg ClientConfig) error {
	switch cfg.Transport {
	case clientTransportProcess, clientTransportLoopback:
	case clientTransportTCP:
		if cfg.Addr == "" {
			return fmt.Errorf("client config missing addr for tcp transport")
		}
	case clientTransportHTTP:
		if cfg.URL == "" {
			return fmt.Errorf("client config missing url for http transport")
		}
	case clientTransportWS:
		if cfg.WSURL == "" {
			return fmt.Errorf("client config missing ws_url for ws transport")
		}
	case clientTransportSSH:
		if cfg.SSH.Host == "" || cfg.SSH.User == "" {
			return fmt.Errorf("client config ssh transport needs ssh.host and ssh.user")
		}
		if cfg.SSH.Command == "" {
			return fmt.Errorf("client config missing ssh.command")
		}
	default:
		return fmt.Errorf("client config unknown transport %q", cfg.Transport)
	}
	return nil
}
