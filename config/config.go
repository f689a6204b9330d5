package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

const (
	defaultRPCTimeout          = 30 * time.Second
	defaultMaxBlockRangeSize   = 10000
	defaultLookbackBlocks      = 200000
	defaultConfirmations       = 1
	defaultConfirmationTimeout = 10 * time.Minute
	defaultReceiptPollInterval = 5 * time.Second
	defaultGasLimitMultiplier  = 1.2
)

var (
	ErrMissingL1Config     = errors.New("l1 chain config is missing")
	ErrMissingRPCHost      = errors.New("rpc host is missing")
	ErrMissingChainID      = errors.New("chain_id is missing")
	ErrDuplicateL2ChainID  = errors.New("duplicate l2 chain_id")
	ErrInvalidRelaySetting = errors.New("invalid relay setting")
)

type RPCConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

type ChainConfig struct {
	Name              string                    `yaml:"-"`
	ChainID           uint64                    `yaml:"chain_id"`
	RPC               *RPCConfig                `yaml:"rpc"`
	StartBlock        uint64                    `yaml:"start_block"`
	MaxBlockRangeSize uint64                    `yaml:"max_block_range_size"`
	LookbackBlocks    uint64                    `yaml:"lookback_blocks"`
	Contracts         map[string]common.Address `yaml:"contracts"`
}

type RelayConfig struct {
	PrivateKey          string        `yaml:"private_key"`
	Confirmations       uint64        `yaml:"confirmations"`
	ConfirmationTimeout time.Duration `yaml:"confirmation_timeout"`
	ReceiptPollInterval time.Duration `yaml:"receipt_poll_interval"`
	GasLimitMultiplier  float64       `yaml:"gas_limit_multiplier"`
}

type DBConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       string `yaml:"database"`
}

type PresenterConfig struct {
	Host string `yaml:"host"`
}

type Config struct {
	L1          *ChainConfig            `yaml:"l1"`
	L2Chains    map[string]*ChainConfig `yaml:"l2_chains"`
	Relay       *RelayConfig            `yaml:"relay"`
	DBConfig    *DBConfig               `yaml:"postgres"`
	LogLevel    logrus.Level            `yaml:"log_level"`
	Presenter   *PresenterConfig        `yaml:"presenter"`
	MetricsHost string                  `yaml:"metrics_host"`
}

func readYamlConfig(blob []byte) (*Config, error) {
	cfg := new(Config)
	if err := parseYaml(cfg, blob); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) init() error {
	if cfg.L1 == nil {
		return ErrMissingL1Config
	}
	cfg.L1.Name = "l1"
	if cfg.L2Chains == nil {
		cfg.L2Chains = make(map[string]*ChainConfig)
	}
	seen := make(map[uint64]string, len(cfg.L2Chains))
	for name, chain := range cfg.L2Chains {
		if chain == nil {
			return fmt.Errorf("l2 chain %s has empty config", name)
		}
		chain.Name = name
		if other, ok := seen[chain.ChainID]; ok {
			return fmt.Errorf("chains %s and %s share chain_id %d: %w", other, name, chain.ChainID, ErrDuplicateL2ChainID)
		}
		seen[chain.ChainID] = name
	}
	if cfg.Relay == nil {
		cfg.Relay = new(RelayConfig)
	}
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logrus.InfoLevel
	}
	cfg.applyDefaults()
	return cfg.validate()
}

func (cfg *Config) applyDefaults() {
	for _, chain := range cfg.allChains() {
		if chain.RPC != nil && chain.RPC.Timeout == 0 {
			chain.RPC.Timeout = defaultRPCTimeout
		}
		if chain.MaxBlockRangeSize == 0 {
			chain.MaxBlockRangeSize = defaultMaxBlockRangeSize
		}
		if chain.LookbackBlocks == 0 {
			chain.LookbackBlocks = defaultLookbackBlocks
		}
	}
	if cfg.Relay.Confirmations == 0 {
		cfg.Relay.Confirmations = defaultConfirmations
	}
	if cfg.Relay.ConfirmationTimeout == 0 {
		cfg.Relay.ConfirmationTimeout = defaultConfirmationTimeout
	}
	if cfg.Relay.ReceiptPollInterval == 0 {
		cfg.Relay.ReceiptPollInterval = defaultReceiptPollInterval
	}
	if cfg.Relay.GasLimitMultiplier == 0 {
		cfg.Relay.GasLimitMultiplier = defaultGasLimitMultiplier
	}
}

func (cfg *Config) validate() error {
	for _, chain := range cfg.allChains() {
		if chain.ChainID == 0 {
			return fmt.Errorf("chain %s: %w", chain.Name, ErrMissingChainID)
		}
		if chain.RPC == nil || chain.RPC.Host == "" {
			return fmt.Errorf("chain %s: %w", chain.Name, ErrMissingRPCHost)
		}
	}
	if cfg.Relay.GasLimitMultiplier < 1 {
		return fmt.Errorf("gas_limit_multiplier %v is less than 1: %w", cfg.Relay.GasLimitMultiplier, ErrInvalidRelaySetting)
	}
	return nil
}

// allChains returns L1 followed by L2 chains sorted by name.
func (cfg *Config) allChains() []*ChainConfig {
	names := make([]string, 0, len(cfg.L2Chains))
	for name := range cfg.L2Chains {
		names = append(names, name)
	}
	sort.Strings(names)
	chains := make([]*ChainConfig, 0, len(names)+1)
	chains = append(chains, cfg.L1)
	for _, name := range names {
		chains = append(chains, cfg.L2Chains[name])
	}
	return chains
}

// L2ChainByID returns nil when no L2 chain with the given id is configured.
func (cfg *Config) L2ChainByID(chainID uint64) *ChainConfig {
	for _, chain := range cfg.L2Chains {
		if chain.ChainID == chainID {
			return chain
		}
	}
	return nil
}

// SetL2Chain registers or replaces the L2 chain config under its name.
func (cfg *Config) SetL2Chain(chain *ChainConfig) {
	if cfg.L2Chains == nil {
		cfg.L2Chains = make(map[string]*ChainConfig)
	}
	if chain.RPC != nil && chain.RPC.Timeout == 0 {
		chain.RPC.Timeout = defaultRPCTimeout
	}
	if chain.MaxBlockRangeSize == 0 {
		chain.MaxBlockRangeSize = defaultMaxBlockRangeSize
	}
	if chain.LookbackBlocks == 0 {
		chain.LookbackBlocks = defaultLookbackBlocks
	}
	cfg.L2Chains[chain.Name] = chain
}

func ReadConfig(blob []byte) (*Config, error) {
	cfg, err := readYamlConfig(blob)
	if err != nil {
		return nil, err
	}
	if err = cfg.init(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func ReadConfigWithEnv(blob []byte) (*Config, error) {
	return ReadConfig([]byte(os.ExpandEnv(string(blob))))
}

func ReadConfigFromFile(path string) (*Config, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read config file: %w", err)
	}
	return ReadConfigWithEnv(blob)
}

// NewDefaultConfig builds a config from bare RPC endpoints, as used by the CLI without a config file.
func NewDefaultConfig(l1RPC string, l1ChainID uint64) *Config {
	cfg := &Config{
		L1: &ChainConfig{
			ChainID: l1ChainID,
			RPC:     &RPCConfig{Host: l1RPC},
		},
		Relay:    new(RelayConfig),
		LogLevel: logrus.InfoLevel,
	}
	cfg.L1.Name = "l1"
	cfg.L2Chains = make(map[string]*ChainConfig)
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) Validate() error {
	return cfg.validate()
}
