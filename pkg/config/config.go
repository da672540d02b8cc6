package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration. It is constructed once at
// startup and passed explicitly into every component that needs it.
type Config struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// DataDir holds the JSON settings files (column layouts, connect forms).
	DataDir string `yaml:"data_dir"`
	// SecretsDir holds the encrypted credential store.
	SecretsDir string `yaml:"secrets_dir"`

	Web WebConfig `yaml:"web"`

	Paper   PaperConfig   `yaml:"paper"`
	Binance BinanceConfig `yaml:"binance"`
}

// WebConfig controls the optional HTTP status server.
type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// PaperConfig controls the simulated trading gateway.
type PaperConfig struct {
	Enabled bool     `yaml:"enabled"`
	Symbols []string `yaml:"symbols"`
	Balance float64  `yaml:"balance"`
}

// BinanceConfig controls the market-data gateway.
type BinanceConfig struct {
	Enabled bool     `yaml:"enabled"`
	Symbols []string `yaml:"symbols"`
	Proxy   string   `yaml:"proxy"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LogLevel:   "info",
		LogFile:    "logs/tradedesk.log",
		DataDir:    ".tradedesk",
		SecretsDir: ".tradedesk/secrets",
		Web:        WebConfig{Addr: "127.0.0.1:8280"},
		Paper: PaperConfig{
			Enabled: true,
			Symbols: []string{"BTCUSDT", "ETHUSDT"},
			Balance: 1_000_000,
		},
		Binance: BinanceConfig{
			Symbols: []string{"btcusdt", "ethusdt"},
		},
	}
}

// Load reads the YAML config at path, layered over defaults. A missing
// file is not an error. Environment variables from .env are loaded first
// so ${VAR} values in the shell are available to the process.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}

	if proxy := os.Getenv("HTTPS_PROXY"); proxy != "" && cfg.Binance.Proxy == "" {
		cfg.Binance.Proxy = proxy
	}
	return cfg, nil
}
