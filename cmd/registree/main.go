// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// registree is the command-line front end of a local registry ledger: it opens the
// configured database and runs registry and license operations against it directly.
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/registree/registree-core/config"
	"github.com/registree/registree-core/core"
	"github.com/registree/registree-core/db"
	"github.com/registree/registree-core/ledger"
	"github.com/registree/registree-core/license"
	"github.com/registree/registree-core/pkg/log"
	"github.com/registree/registree-core/protocol"
	"github.com/registree/registree-core/registry"
)

var (
	_configPath string
	_fromStr    string
	_valueStr   string
)

var rootCmd = &cobra.Command{
	Use:          "registree",
	Short:        "Operate a local software registry ledger",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&_configPath, "config", "", "path of the YAML config file")
	rootCmd.PersistentFlags().StringVar(&_fromStr, "from", "", "hex address acting as the caller")
	rootCmd.PersistentFlags().StringVar(&_valueStr, "value", "0", "native value attached to the call")

	rootCmd.AddCommand(fundCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(licenseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withCore loads the config, opens the ledger, and hands a running core to fn
func withCore(fn func(cfg config.Config, c *core.Core) error) error {
	cfg, err := config.New(_configPath)
	if err != nil {
		return err
	}
	if err := log.InitLoggers(cfg.Log, cfg.SubLogs); err != nil {
		return errors.Wrap(err, "failed to init loggers")
	}

	claimFee, err := cfg.ClaimFee()
	if err != nil {
		return err
	}
	hub := &protocol.Registry{}
	rp := registry.NewProtocol(registry.WithClaimFee(claimFee))
	if err := hub.Register(registry.ProtocolID, rp); err != nil {
		return err
	}
	lp := license.NewProtocol(rp, license.NewMemoryToken(), cfg.LicenseOwner(),
		license.WithProtocolFee(cfg.License.FeeBPS))
	if err := hub.Register(license.ProtocolID, lp); err != nil {
		return err
	}

	c := core.New(ledger.NewFactory(db.NewBoltDB(cfg.DB)), hub, cfg.Chain.ID)
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to open the ledger")
	}
	defer func() {
		if err := c.Stop(ctx); err != nil {
			log.L().Error("Failed to close the ledger.", zap.Error(err))
		}
	}()
	return fn(cfg, c)
}

func caller() (common.Address, error) {
	if _fromStr == "" {
		return common.Address{}, errors.New("--from is required")
	}
	if !common.IsHexAddress(_fromStr) {
		return common.Address{}, errors.Errorf("%q is not a hex address", _fromStr)
	}
	return common.HexToAddress(_fromStr), nil
}

func callValue() (*big.Int, error) {
	v, ok := new(big.Int).SetString(_valueStr, 10)
	if !ok || v.Sign() < 0 {
		return nil, errors.Errorf("%q is not a non-negative decimal number", _valueStr)
	}
	return v, nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("%q is not a decimal number", s)
	}
	return v, nil
}

// execute runs op as the --from caller with the --value attachment and prints the receipt
func execute(c *core.Core, op core.Operation) error {
	from, err := caller()
	if err != nil {
		return err
	}
	value, err := callValue()
	if err != nil {
		return err
	}
	receipt, err := c.Execute(context.Background(), from, value, op)
	if err != nil {
		return err
	}
	return printYAML(receipt.Events)
}

func printYAML(v interface{}) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

var fundCmd = &cobra.Command{
	Use:   "fund ADDRESS AMOUNT",
	Short: "Credit native funds to an address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			if !common.IsHexAddress(args[0]) {
				return errors.Errorf("%q is not a hex address", args[0])
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			receipt, err := c.Fund(context.Background(), common.HexToAddress(args[0]), amount)
			if err != nil {
				return err
			}
			return printYAML(receipt.Events)
		})
	},
}
