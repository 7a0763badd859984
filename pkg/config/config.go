// Package config loads the backend configuration from YAML with environment
// overrides. Priority: env > file > defaults. Missing required values fail
// loudly at startup rather than surfacing later as runtime errors.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fylaro/fylaro-backend/pkg/errors"
	"github.com/fylaro/fylaro-backend/pkg/gateway/auth"
)

// Config represents the main configuration for the backend.
type Config struct {
	Chain     ChainConfig     `yaml:"chain"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Keystore  KeystoreConfig  `yaml:"keystore"`
	ReadModel ReadModelConfig `yaml:"read_model"`

	// APIKeys seeds the api_keys table at startup. Existing keys are left
	// untouched.
	APIKeys []auth.KeyEntry `yaml:"api_keys"`
}

// ChainConfig contains JSON-RPC provider and contract configuration.
type ChainConfig struct {
	RPCURL          string        `yaml:"rpc_url"`           // JSON-RPC provider endpoint
	ChainID         int64         `yaml:"chain_id"`          // EVM chain ID (421614 = Arbitrum Sepolia)
	AddressBookPath string        `yaml:"address_book_path"` // Deployment address record
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	SubmitTimeout   time.Duration `yaml:"submit_timeout"`
}

// GatewayConfig contains HTTP server configuration.
type GatewayConfig struct {
	ListenAddr         string      `yaml:"listen_addr"`
	RateLimitPerMinute int         `yaml:"rate_limit_per_minute"`
	RateLimitBurst     int         `yaml:"rate_limit_burst"`
	HTTPS              HTTPSConfig `yaml:"https"`
}

// HTTPSConfig contains ACME/autocert configuration.
type HTTPSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Domain   string `yaml:"domain"`
	CacheDir string `yaml:"cache_dir"`
	Email    string `yaml:"email"`
}

// KeystoreConfig locates the custodial signing keys.
type KeystoreConfig struct {
	Dir        string `yaml:"dir"`
	Passphrase string `yaml:"passphrase"` // prefer FYLARO_KEYSTORE_PASSPHRASE
}

// ReadModelConfig locates the sqlite read model.
type ReadModelConfig struct {
	Path string `yaml:"path"`
}

// Default returns a config with development defaults. The RPC URL has no
// default on purpose: pointing at the wrong chain silently is worse than
// failing to start.
func Default() *Config {
	return &Config{
		Chain: ChainConfig{
			ChainID:         421614,
			AddressBookPath: "deployments/arbitrum-sepolia.json",
			ReadTimeout:     10 * time.Second,
			SubmitTimeout:   30 * time.Second,
		},
		Gateway: GatewayConfig{
			ListenAddr:         ":6001",
			RateLimitPerMinute: 120,
			RateLimitBurst:     30,
		},
		Keystore: KeystoreConfig{
			Dir: "keystore",
		},
		ReadModel: ReadModelConfig{
			Path: "fylaro.db",
		},
	}
}

// Load reads the config file (when path is non-empty), applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.NewConfigError("config", "failed to open config file: "+err.Error())
		}
		defer f.Close()
		if err := DecodeStrict(f, cfg); err != nil {
			return nil, errors.NewConfigError("config", err.Error())
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := envString("FYLARO_RPC_URL"); v != "" {
		c.Chain.RPCURL = v
	}
	if v := envString("FYLARO_CHAIN_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Chain.ChainID = id
		}
	}
	if v := envString("FYLARO_ADDRESS_BOOK"); v != "" {
		c.Chain.AddressBookPath = v
	}
	if v := envString("FYLARO_LISTEN_ADDR"); v != "" {
		c.Gateway.ListenAddr = v
	}
	if v := envString("FYLARO_KEYSTORE_DIR"); v != "" {
		c.Keystore.Dir = v
	}
	if v := envString("FYLARO_KEYSTORE_PASSPHRASE"); v != "" {
		c.Keystore.Passphrase = v
	}
	if v := envString("FYLARO_DB_PATH"); v != "" {
		c.ReadModel.Path = v
	}
}

func envString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// Validate checks that the config can actually run a backend.
func (c *Config) Validate() error {
	if c.Chain.RPCURL == "" {
		return errors.NewConfigError("chain.rpc_url", "RPC URL is required (set chain.rpc_url or FYLARO_RPC_URL)")
	}
	if c.Chain.ChainID <= 0 {
		return errors.NewConfigError("chain.chain_id", "chain ID must be positive")
	}
	if c.Chain.AddressBookPath == "" {
		return errors.NewConfigError("chain.address_book_path", "address book path is required")
	}
	if c.Gateway.ListenAddr == "" {
		return errors.NewConfigError("gateway.listen_addr", "listen address is required")
	}
	if c.Gateway.HTTPS.Enabled && c.Gateway.HTTPS.Domain == "" {
		return errors.NewConfigError("gateway.https.domain", "domain is required when HTTPS is enabled")
	}
	for i, k := range c.APIKeys {
		if strings.TrimSpace(k.Key) == "" || strings.TrimSpace(k.Wallet) == "" {
			return errors.NewConfigError("api_keys", "entry "+strconv.Itoa(i)+" must set key and wallet")
		}
	}
	return nil
}
