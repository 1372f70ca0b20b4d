package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/wirecall/internal/config"
	"github.com/danmuck/wirecall/internal/testutil/testlog"
)

func writeClientConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadClientConfigDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadClientConfig(writeClientConfig(t, "exit_code = 3\n"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	def := DefaultClientConfig()
	if cfg.Transport != clientTransportProcess {
		t.Fatalf("unexpected transport: %q", cfg.Transport)
	}
	if cfg.Timeout != def.Timeout {
		t.Fatalf("unexpected timeout: %v", cfg.Timeout)
	}
	if len(cfg.Args) != 1 || cfg.Args[0] != "serve" {
		t.Fatalf("unexpected args: %+v", cfg.Args)
	}
	if cfg.ExitCode != 3 {
		t.Fatalf("unexpected exit code: %d", cfg.ExitCode)
	}
}

func TestLoadClientConfigTemplate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "client.toml")
	if err := config.WriteTemplate(path, "client", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := loadClientConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Transport != clientTransportTCP || cfg.Addr != "127.0.0.1:9300" {
		t.Fatalf("unexpected endpoint: %q %q", cfg.Transport, cfg.Addr)
	}
	if cfg.Timeout != 10*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Timeout)
	}
	if cfg.SSH.Host != "localhost" || cfg.SSH.User != "wirecall" || cfg.SSH.Command != "wirecall" {
		t.Fatalf("unexpected ssh block: %+v", cfg.SSH)
	}
	if filepath.Base(cfg.SSH.KeyPath) != "id_ed25519" || cfg.SSH.KeyPath[0] == '~' {
		t.Fatalf("key path not expanded: %q", cfg.SSH.KeyPath)
	}
	if cfg.SSH.Timeout != 10*time.Second {
		t.Fatalf("ssh timeout default lost: %v", cfg.SSH.Timeout)
	}
}

func TestLoadClientConfigErrors(t *testing.T) {
	testlog.Start(t)
	cases := []string{
		"timeout = \"soon\"\n",
		"transport = \"smoke-signals\"\n",
		"transport = \"ssh\"\n",
		"transport = \"http\"\nurl = \"\"\n",
		"transport = \"ws\"\nws_url = \"\"\n",
		"[ssh]\ntimeout = \"x\"\n",
	}
	for _, content := range cases {
		if _, err := loadClientConfig(writeClientConfig(t, content)); err == nil {
			t.Fatalf("expected error for %q", content)
		}
	}
}

func TestLoadClientConfigWebSocket(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadClientConfig(writeClientConfig(t, "transport = \"WS\"\nws_url = \"ws://10.0.0.4:9301/ws\"\norigin = \"http://localhost:3000\"\n"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Transport != clientTransportWS {
		t.Fatalf("unexpected transport: %q", cfg.Transport)
	}
	if cfg.WSURL != "ws://10.0.0.4:9301/ws" || cfg.Origin != "http://localhost:3000" {
		t.Fatalf("unexpected ws endpoint: %q origin %q", cfg.WSURL, cfg.Origin)
	}
}
