package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/wirecall/internal/testutil/testlog"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wirecall.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServerConfigDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := LoadServerConfig(writeFile(t, `admin_addr = ":9301"`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := DefaultServerConfig()
	if cfg.Name != def.Name || cfg.Transport != TransportStdio || cfg.MaxMessageBytes != def.MaxMessageBytes {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.AdminAddr != ":9301" {
		t.Fatalf("admin addr lost: %+v", cfg)
	}
}

func TestLoadServerConfigRejectsBadTransport(t *testing.T) {
	testlog.Start(t)
	_, err := LoadServerConfig(writeFile(t, `transport = "carrier-pigeon"`))
	if err == nil || !strings.Contains(err.Error(), "transport") {
		t.Fatalf("expected transport validation error, got %v", err)
	}
}

func TestLoadServerConfigParseError(t *testing.T) {
	testlog.Start(t)
	if _, err := LoadServerConfig(writeFile(t, `name = `)); err == nil || !strings.Contains(err.Error(), "config parse failed") {
		t.Fatalf("expected parse error, got %v", err)
	}
	if _, err := LoadServerConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil || !strings.Contains(err.Error(), "config load failed") {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestValidateServerConfig(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultServerConfig()
	if err := ValidateServerConfig(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg.Transport = TransportTCP
	cfg.AdminAddr = cfg.Addr
	if err := ValidateServerConfig(cfg); err == nil {
		t.Fatalf("expected admin/addr collision error")
	}
	cfg.AdminAddr = ""
	cfg.Addr = " "
	if err := ValidateServerConfig(cfg); err == nil {
		t.Fatalf("expected missing addr error")
	}
}

func TestServerTemplateLoads(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "server.toml")
	if err := WriteTemplate(path, "server", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.Transport != TransportTCP || cfg.AdminAddr == "" {
		t.Fatalf("unexpected template config: %+v", cfg)
	}
	if err := WriteTemplate(path, "server", false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := WriteTemplate(path, "server", true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if _, err := Template("ghost"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
