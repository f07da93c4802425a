package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

const (
	EnvRPCEndpoint     = "RPC_ENDPOINT"
	EnvContractAddress = "CONTRACT_ADDRESS"
	EnvContractABI     = "PI_CONTRACT_ABI"
	EnvCallTimeout     = "PI_CALL_TIMEOUT"
)

type Config struct {
	Seeds    []string       `json:"seeds"`
	Contract common.Address `json:"contract"`
	ABI      string         `json:"abi"`
	Timeout  string         `json:"timeout"`

	timeout time.Duration
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := new(Config)
	err = json.Unmarshal(b, cfg)
	if err != nil {
		return nil, err
	}
	err = cfg.check()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds the config from the process environment. Values from a .env
// file in the working directory are loaded first if the file exists; already
// set variables win.
func FromEnv(envFiles ...string) (*Config, error) {
	err := godotenv.Load(envFiles...)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("can't load env file: %w", err)
	}
	cfg := &Config{
		ABI:     os.Getenv(EnvContractABI),
		Timeout: os.Getenv(EnvCallTimeout),
	}
	for _, seed := range strings.Split(os.Getenv(EnvRPCEndpoint), ",") {
		seed = strings.TrimSpace(seed)
		if seed != "" {
			cfg.Seeds = append(cfg.Seeds, seed)
		}
	}
	contract := strings.TrimSpace(os.Getenv(EnvContractAddress))
	if contract != "" {
		if !strings.HasPrefix(contract, "0x") || !common.IsHexAddress(contract) {
			return nil, errors.New("invalid contract address")
		}
		cfg.Contract = common.HexToAddress(contract)
	}
	err = cfg.check()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// CallTimeout is the per-call deadline, zero when unset.
func (cfg *Config) CallTimeout() time.Duration {
	return cfg.timeout
}

func (cfg *Config) check() error {
	if len(cfg.Seeds) == 0 {
		return errors.New("missing seeds")
	}
	if cfg.Contract == (common.Address{}) {
		return errors.New("missing contract address")
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		if d < 0 {
			return errors.New("negative timeout")
		}
		cfg.timeout = d
	}
	return nil
}
