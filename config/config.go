// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package config

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	uconfig "go.uber.org/config"

	"github.com/registree/registree-core/db"
	"github.com/registree/registree-core/pkg/log"
)

// IMPORTANT: to define a config, add a field to the existing config types. In addition,
// provide the default value in Default var.

// Error strings of config validation
var (
	// ErrInvalidCfg indicates the config is invalid
	ErrInvalidCfg = errors.New("invalid config")
)

var (
	// Default is the default config
	Default = Config{
		Chain: Chain{
			ID:          31337,
			ClaimFeeStr: "0",
		},
		License: License{
			Owner:  "",
			FeeBPS: 0,
		},
		DB: db.Config{
			DbPath:     "/var/data/registree.db",
			NumRetries: 3,
		},
		Log:     log.GlobalConfig{},
		SubLogs: make(map[string]log.GlobalConfig),
	}
)

type (
	// Chain is the chain-scoped config: the identity root and the account claim fee
	Chain struct {
		// ID is the chain identifier account IDs are derived under
		ID uint64 `yaml:"id"`
		// ClaimFeeStr is the native fee for claiming an account name, decimal string
		ClaimFeeStr string `yaml:"claimFee"`
	}

	// License is the license protocol config
	License struct {
		// Owner is the hex address collecting the protocol fee, empty means no owner
		Owner string `yaml:"owner"`
		// FeeBPS is the initial protocol fee in basis points
		FeeBPS uint64 `yaml:"feeBps"`
	}

	// Config is the root config struct of a registree node
	Config struct {
		Chain   Chain                       `yaml:"chain"`
		License License                     `yaml:"license"`
		DB      db.Config                   `yaml:"db"`
		Log     log.GlobalConfig            `yaml:"log"`
		SubLogs map[string]log.GlobalConfig `yaml:"subLogs"`
	}

	// Validate is the interface of validating the config
	Validate func(Config) error
)

// New creates a config, starting from Default, overwritten by the YAML file at path when
// path is non-empty, validated with the given functions (all default validations when none
// are given)
func New(path string, validates ...Validate) (Config, error) {
	opts := []uconfig.YAMLOption{uconfig.Static(Default)}
	if path != "" {
		opts = append(opts, uconfig.File(path))
	}
	yaml, err := uconfig.NewYAML(opts...)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to init config")
	}

	var cfg Config
	if err := yaml.Get(uconfig.Root).Populate(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal YAML config to struct")
	}

	if len(validates) == 0 {
		validates = []Validate{ValidateChain, ValidateLicense}
	}
	for _, validate := range validates {
		if err := validate(cfg); err != nil {
			return Config{}, errors.Wrap(err, "failed to validate config")
		}
	}
	return cfg, nil
}

// ClaimFee parses the configured account claim fee
func (cfg Config) ClaimFee() (*big.Int, error) {
	if cfg.Chain.ClaimFeeStr == "" {
		return new(big.Int), nil
	}
	fee, ok := new(big.Int).SetString(cfg.Chain.ClaimFeeStr, 10)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidCfg, "claim fee %q is not a decimal number", cfg.Chain.ClaimFeeStr)
	}
	return fee, nil
}

// LicenseOwner parses the configured license protocol owner address
func (cfg Config) LicenseOwner() common.Address {
	if cfg.License.Owner == "" {
		return common.Address{}
	}
	return common.HexToAddress(cfg.License.Owner)
}

// ValidateChain validates the chain config
func ValidateChain(cfg Config) error {
	if cfg.Chain.ID == 0 {
		return errors.Wrap(ErrInvalidCfg, "chain ID cannot be zero")
	}
	if _, err := cfg.ClaimFee(); err != nil {
		return err
	}
	return nil
}

// ValidateLicense validates the license config
func ValidateLicense(cfg Config) error {
	if cfg.License.FeeBPS > 10000 {
		return errors.Wrapf(ErrInvalidCfg, "protocol fee %d exceeds 10000 basis points", cfg.License.FeeBPS)
	}
	if cfg.License.Owner != "" && !common.IsHexAddress(cfg.License.Owner) {
		return errors.Wrapf(ErrInvalidCfg, "license owner %q is not a hex address", cfg.License.Owner)
	}
	return nil
}
