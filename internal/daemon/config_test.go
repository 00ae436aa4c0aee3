package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 4402 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 4402)
	}
	if !cfg.API.MetricsEnabled {
		t.Error("metrics should be enabled by default")
	}
	if cfg.Operator.FeePercent != 10 {
		t.Errorf("Operator.FeePercent = %d, want 10", cfg.Operator.FeePercent)
	}
	if cfg.Chain.TimeoutSeconds != 10 {
		t.Errorf("Chain.TimeoutSeconds = %d, want 10", cfg.Chain.TimeoutSeconds)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-such-config.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Port != 4402 {
		t.Errorf("API.Port = %d, want default 4402", cfg.API.Port)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
host = "0.0.0.0"
port = 8402
metrics_enabled = true

[operator]
address = "op-addr-1"
fee_percent = 40

[chain]
node_url = "http://node.example:9070"
sender_key = "op-key"

[yield]
initial_balance = 1420

[[resource]]
name = "audit"
description = "contract audit"

  [[resource.option]]
  asset_id = "usdc"
  amount = 5000

  [[resource.recipient]]
  name = "A"
  address = "addr-a"
  share_percent = 50

  [[resource.recipient]]
  name = "B"
  address = "addr-b"
  share_percent = 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Port != 8402 {
		t.Errorf("API.Port = %d, want 8402", cfg.API.Port)
	}
	if cfg.Operator.FeePercent != 40 {
		t.Errorf("FeePercent = %d, want 40", cfg.Operator.FeePercent)
	}
	if cfg.Yield.InitialBalance != 1420 {
		t.Errorf("InitialBalance = %d, want 1420", cfg.Yield.InitialBalance)
	}
	if len(cfg.Resources) != 1 {
		t.Fatalf("resources = %d, want 1", len(cfg.Resources))
	}
	res := cfg.Resources[0]
	if res.Name != "audit" || len(res.Options) != 1 || res.Options[0].Amount != 5000 {
		t.Errorf("resource = %+v", res)
	}
	if len(res.Recipients) != 2 || res.Recipients[1].SharePercent != 50 {
		t.Errorf("recipients = %+v", res.Recipients)
	}
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"fee over 100", "[operator]\nfee_percent = 120\n"},
		{"resource without options", "[[resource]]\nname = \"audit\"\n"},
		{"zero amount option", "[[resource]]\nname = \"audit\"\n[[resource.option]]\nasset_id = \"usdc\"\namount = 0\n"},
		{"bad share", "[[resource]]\nname = \"a\"\n[[resource.option]]\nasset_id = \"u\"\namount = 1\n[[resource.recipient]]\nname = \"r\"\naddress = \"x\"\nshare_percent = 150\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load should reject invalid config")
			}
		})
	}
}

func TestListenAddr(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.ListenAddr(); got != "127.0.0.1:4402" {
		t.Errorf("ListenAddr() = %q, want 127.0.0.1:4402", got)
	}
}
