package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server         ServerConfig    `yaml:"server"`
	Logging        LoggingConfig   `yaml:"logging"`
	CoinGecko      CoinGeckoConfig `yaml:"coinGecko"`
	Prices         PricesConfig    `yaml:"prices"`
	Executor       ExecutorConfig  `yaml:"executor"`
	RpcClient      RpcClientConfig `yaml:"rpcClient"`
	Wallet         WalletConfig    `yaml:"wallet"`
	DefaultChainID uint64          `yaml:"defaultChainId"`
}

// ServerConfig holds the server-specific configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
	File  string `yaml:"file"`
}

// CoinGeckoConfig holds the configuration for the CoinGecko client.
type CoinGeckoConfig struct {
	BaseURL              string `yaml:"baseURL"`
	ApiKey               string `yaml:"apiKey"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// PricesConfig holds configuration for the price refresh loop and cache.
type PricesConfig struct {
	RefreshIntervalSeconds int `yaml:"refreshIntervalSeconds"`
	CacheTTLSeconds        int `yaml:"cacheTTLSeconds"`
	CleanupIntervalMinutes int `yaml:"cleanupIntervalMinutes"`
}

// ExecutorConfig holds the swap execution constants.
type ExecutorConfig struct {
	SwapGasEstimate        uint64  `yaml:"swapGasEstimate"`
	ApprovalGasEstimate    uint64  `yaml:"approvalGasEstimate"`
	DeadlineSeconds        int64   `yaml:"deadlineSeconds"`
	ReceiptPollMillis      int64   `yaml:"receiptPollMillis"`
	ConfirmTimeoutSeconds  int64   `yaml:"confirmTimeoutSeconds"`
	QuoteMaxAgeSeconds     int64   `yaml:"quoteMaxAgeSeconds"`
	DefaultSlippagePercent float64 `yaml:"defaultSlippagePercent"`
}

// RpcClientConfig holds configuration for RPC clients.
type RpcClientConfig struct {
	DefaultTimeoutMs int64 `yaml:"defaultTimeoutMs"`
	RateLimit        int   `yaml:"rateLimit"`
	BurstLimit       int   `yaml:"burstLimit"`
	MaxRetries       int   `yaml:"maxRetries"`
	RetryDelayMs     int64 `yaml:"retryDelayMs"`
}

// WalletConfig holds configuration for the local signing wallet.
type WalletConfig struct {
	// PrivateKeyEnv names the environment variable holding the hex key.
	// The key itself never lives in the config file.
	PrivateKeyEnv string `yaml:"privateKeyEnv"`
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

// applyDefaults fills in values left unset in the YAML file.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.DefaultChainID == 0 {
		cfg.DefaultChainID = 8453
		logrus.Infof("defaultChainId not set, defaulting to %d", cfg.DefaultChainID)
	}

	if cfg.CoinGecko.BaseURL == "" {
		cfg.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
		logrus.Infof("CoinGecko.BaseURL not set, defaulting to %s", cfg.CoinGecko.BaseURL)
	}
	if cfg.CoinGecko.RequestTimeoutMillis == 0 {
		cfg.CoinGecko.RequestTimeoutMillis = 10000
		logrus.Infof("CoinGecko.RequestTimeoutMillis not set, defaulting to %d ms", cfg.CoinGecko.RequestTimeoutMillis)
	}
	if cfg.CoinGecko.ApiKey == "" {
		if envKey := os.Getenv("COINGECKO_API_KEY"); envKey != "" {
			cfg.CoinGecko.ApiKey = envKey
			logrus.Info("CoinGecko.ApiKey taken from COINGECKO_API_KEY environment variable")
		}
	}

	if cfg.Prices.RefreshIntervalSeconds == 0 {
		cfg.Prices.RefreshIntervalSeconds = 30
		logrus.Infof("Prices.RefreshIntervalSeconds not set, defaulting to %d", cfg.Prices.RefreshIntervalSeconds)
	}
	if cfg.Prices.CacheTTLSeconds == 0 {
		cfg.Prices.CacheTTLSeconds = 120
		logrus.Infof("Prices.CacheTTLSeconds not set, defaulting to %d", cfg.Prices.CacheTTLSeconds)
	}
	if cfg.Prices.CleanupIntervalMinutes == 0 {
		cfg.Prices.CleanupIntervalMinutes = 5
	}

	if cfg.Executor.SwapGasEstimate == 0 {
		cfg.Executor.SwapGasEstimate = 150000
	}
	if cfg.Executor.ApprovalGasEstimate == 0 {
		cfg.Executor.ApprovalGasEstimate = 50000
	}
	if cfg.Executor.DeadlineSeconds == 0 {
		cfg.Executor.DeadlineSeconds = 1200
	}
	if cfg.Executor.ReceiptPollMillis == 0 {
		cfg.Executor.ReceiptPollMillis = 1000
	}
	if cfg.Executor.ConfirmTimeoutSeconds == 0 {
		cfg.Executor.ConfirmTimeoutSeconds = 180
		logrus.Infof("Executor.ConfirmTimeoutSeconds not set, defaulting to %d", cfg.Executor.ConfirmTimeoutSeconds)
	}
	if cfg.Executor.QuoteMaxAgeSeconds == 0 {
		cfg.Executor.QuoteMaxAgeSeconds = 60
	}
	if cfg.Executor.DefaultSlippagePercent == 0 {
		cfg.Executor.DefaultSlippagePercent = 0.5
	}

	if cfg.RpcClient.DefaultTimeoutMs == 0 {
		cfg.RpcClient.DefaultTimeoutMs = 15000
	}
	if cfg.RpcClient.RateLimit == 0 {
		cfg.RpcClient.RateLimit = 10
	}
	if cfg.RpcClient.BurstLimit == 0 {
		cfg.RpcClient.BurstLimit = 20
	}
	if cfg.RpcClient.MaxRetries == 0 {
		cfg.RpcClient.MaxRetries = 3
	}
	if cfg.RpcClient.RetryDelayMs == 0 {
		cfg.RpcClient.RetryDelayMs = 500
	}

	if cfg.Wallet.PrivateKeyEnv == "" {
		cfg.Wallet.PrivateKeyEnv = "SWAP_GATEWAY_PRIVATE_KEY"
	}
}
