package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
chain:
  rpc_url: https://sepolia-rollup.arbitrum.io/rpc
  chain_id: 421614
gateway:
  listen_addr: ":7001"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gateway.ListenAddr != ":7001" {
		t.Errorf("listen addr not applied: %s", cfg.Gateway.ListenAddr)
	}
	if cfg.Chain.ReadTimeout != 10*time.Second || cfg.Chain.SubmitTimeout != 30*time.Second {
		t.Errorf("timeout defaults not preserved: %v %v", cfg.Chain.ReadTimeout, cfg.Chain.SubmitTimeout)
	}
}

func TestLoadRequiresRPCURL(t *testing.T) {
	path := writeConfig(t, `
gateway:
  listen_addr: ":7001"
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing RPC URL")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
chain:
  rpc_url: https://file.example/rpc
`)
	t.Setenv("FYLARO_RPC_URL", "https://env.example/rpc")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Chain.RPCURL != "https://env.example/rpc" {
		t.Errorf("env override not applied: %s", cfg.Chain.RPCURL)
	}
}

func TestRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
chain:
  rpc_url: https://sepolia-rollup.arbitrum.io/rpc
  provider: alchemy
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestHTTPSRequiresDomain(t *testing.T) {
	path := writeConfig(t, `
chain:
  rpc_url: https://sepolia-rollup.arbitrum.io/rpc
gateway:
  https:
    enabled: true
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for HTTPS without domain")
	}
}

func TestAPIKeyEntriesValidated(t *testing.T) {
	path := writeConfig(t, `
chain:
  rpc_url: https://sepolia-rollup.arbitrum.io/rpc
api_keys:
  - key: ak_one
    wallet: ""
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for api key entry without wallet")
	}
}
