// Package daemon holds the gateway daemon's configuration, loaded from
// ~/.tollgate/config.toml.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/tollgate-network/tollgate/internal/domain"
)

// Config is the full daemon configuration.
type Config struct {
	API       APIConfig        `toml:"api"`
	Ledger    LedgerConfig     `toml:"ledger"`
	Chain     ChainConfig      `toml:"chain"`
	Operator  OperatorConfig   `toml:"operator"`
	Yield     YieldConfig      `toml:"yield"`
	Resources []ResourceConfig `toml:"resource"`
}

// APIConfig controls the HTTP listener.
type APIConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	MetricsEnabled bool   `toml:"metrics_enabled"`
}

// LedgerConfig controls the settlement ledger store.
type LedgerConfig struct {
	Dir string `toml:"dir"`
}

// ChainConfig points at the external settlement node.
type ChainConfig struct {
	NodeURL        string `toml:"node_url"`
	SenderKey      string `toml:"sender_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// OperatorConfig identifies the gateway operator.
type OperatorConfig struct {
	Address    string `toml:"address"`
	FeePercent int64  `toml:"fee_percent"`
}

// YieldConfig seeds the internal yield account.
type YieldConfig struct {
	InitialBalance int64 `toml:"initial_balance"`
}

// ResourceConfig declares one priced operation. An empty Upstream serves
// the built-in echo backend, which is enough for demos.
type ResourceConfig struct {
	Name        string                  `toml:"name"`
	Description string                  `toml:"description"`
	Upstream    string                  `toml:"upstream"`
	Options     []OptionConfig          `toml:"option"`
	Recipients  []domain.RecipientShare `toml:"recipient"`
}

// OptionConfig is one accepted asset/amount pair.
type OptionConfig struct {
	AssetID string `toml:"asset_id"`
	Amount  int64  `toml:"amount"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:           "127.0.0.1",
			Port:           4402,
			MetricsEnabled: true,
		},
		Ledger: LedgerConfig{
			Dir: filepath.Join(homeDir(), ".tollgate"),
		},
		Chain: ChainConfig{
			NodeURL:        "http://127.0.0.1:9070",
			TimeoutSeconds: 10,
		},
		Operator: OperatorConfig{
			FeePercent: 10,
		},
	}
}

// ConfigPath returns the default config file location.
func ConfigPath() string {
	return filepath.Join(homeDir(), ".tollgate", "config.toml")
}

// Load reads a TOML config file over the defaults. A missing file is not
// an error — the defaults stand.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the gateway cannot serve.
func (c Config) Validate() error {
	if c.Operator.FeePercent < 0 || c.Operator.FeePercent > 100 {
		return fmt.Errorf("operator fee %d%%: %w", c.Operator.FeePercent, domain.ErrInvalidShare)
	}
	for _, res := range c.Resources {
		if res.Name == "" {
			return fmt.Errorf("resource without a name")
		}
		if len(res.Options) == 0 {
			return fmt.Errorf("resource %s: %w", res.Name, domain.ErrNoPriceOptions)
		}
		for _, opt := range res.Options {
			if opt.Amount <= 0 {
				return fmt.Errorf("resource %s asset %s: %w", res.Name, opt.AssetID, domain.ErrInvalidAmount)
			}
		}
		for _, r := range res.Recipients {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("resource %s: %w", res.Name, err)
			}
		}
	}
	return nil
}

// ListenAddr formats the API host:port.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
