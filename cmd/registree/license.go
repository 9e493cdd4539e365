// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package main

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/registree/registree-core/config"
	"github.com/registree/registree-core/core"
	"github.com/registree/registree-core/license"
	"github.com/registree/registree-core/protocol"
)

var _tokenFlag string

var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "Manage project licensing",
}

func init() {
	licenseCmd.PersistentFlags().StringVar(&_tokenFlag, "token", "", "settle in the token at this hex address instead of the native asset")
	licenseCmd.AddCommand(licenseSetPriceCmd, licensePurchaseCmd, licenseWithdrawCmd,
		licenseSetLimitCmd, licenseSetRoyaltyCmd, licenseSetFeeCmd, licenseInfoCmd)
}

func settlementAsset() (license.Asset, error) {
	if _tokenFlag == "" {
		return license.NativeAsset(), nil
	}
	addr, err := parseAddress(_tokenFlag)
	if err != nil {
		return license.Asset{}, err
	}
	return license.TokenAsset(addr), nil
}

func parseBPS(s string) (uint64, error) {
	bps, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Errorf("%q is not a basis-point number", s)
	}
	return bps, nil
}

var licenseSetPriceCmd = &cobra.Command{
	Use:   "set-price ACCOUNT PROJECT PRICE",
	Short: "List a project at a price, zero delists",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			asset, err := settlementAsset()
			if err != nil {
				return err
			}
			price, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			lp := license.FindProtocol(c.Hub())
			return execute(c, func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
				return lp.SetPrice(ctx, sm, asset, projectID(c, args[0], args[1]), price)
			})
		})
	},
}

var licensePurchaseCmd = &cobra.Command{
	Use:   "purchase ACCOUNT PROJECT RECIPIENT",
	Short: "Buy one license for the recipient",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			asset, err := settlementAsset()
			if err != nil {
				return err
			}
			recipient, err := parseAddress(args[2])
			if err != nil {
				return err
			}
			lp := license.FindProtocol(c.Hub())
			return execute(c, func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
				return lp.Purchase(ctx, sm, asset, projectID(c, args[0], args[1]), recipient)
			})
		})
	},
}

var licenseWithdrawCmd = &cobra.Command{
	Use:   "withdraw ACCOUNT PROJECT TO",
	Short: "Drain a project's balance to an address",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			asset, err := settlementAsset()
			if err != nil {
				return err
			}
			to, err := parseAddress(args[2])
			if err != nil {
				return err
			}
			lp := license.FindProtocol(c.Hub())
			return execute(c, func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
				return lp.Withdraw(ctx, sm, asset, projectID(c, args[0], args[1]), to)
			})
		})
	},
}

var licenseSetLimitCmd = &cobra.Command{
	Use:   "set-limit ACCOUNT PROJECT LIMIT",
	Short: "Cap a project's license supply, zero means unlimited",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			limit, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return errors.Errorf("%q is not a supply limit", args[2])
			}
			lp := license.FindProtocol(c.Hub())
			return execute(c, func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
				return lp.SetLimit(ctx, sm, projectID(c, args[0], args[1]), limit)
			})
		})
	},
}

var licenseSetRoyaltyCmd = &cobra.Command{
	Use:   "set-royalty ACCOUNT PROJECT RECIPIENT BPS",
	Short: "Declare a project's resale royalty",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			recipient, err := parseAddress(args[2])
			if err != nil {
				return err
			}
			bps, err := parseBPS(args[3])
			if err != nil {
				return err
			}
			lp := license.FindProtocol(c.Hub())
			return execute(c, func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
				return lp.SetRoyalty(ctx, sm, projectID(c, args[0], args[1]), recipient, bps)
			})
		})
	},
}

var licenseSetFeeCmd = &cobra.Command{
	Use:   "set-fee BPS",
	Short: "Change the protocol fee (owner only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			bps, err := parseBPS(args[0])
			if err != nil {
				return err
			}
			lp := license.FindProtocol(c.Hub())
			return execute(c, func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
				return lp.SetProtocolFee(ctx, sm, bps)
			})
		})
	},
}

var licenseInfoCmd = &cobra.Command{
	Use:   "info ACCOUNT PROJECT",
	Short: "Print a project's licensing state",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			asset, err := settlementAsset()
			if err != nil {
				return err
			}
			lp := license.FindProtocol(c.Hub())
			id := projectID(c, args[0], args[1])
			return c.View(func(sr protocol.StateReader) error {
				price, err := lp.Price(sr, asset, id)
				if err != nil {
					return err
				}
				balance, err := lp.Balance(sr, asset, id)
				if err != nil {
					return err
				}
				supply, err := lp.Supply(sr, id)
				if err != nil {
					return err
				}
				limit, err := lp.Limit(sr, id)
				if err != nil {
					return err
				}
				return printYAML(map[string]interface{}{
					"id":      id.Hex(),
					"asset":   asset.String(),
					"price":   price.String(),
					"balance": balance.String(),
					"supply":  supply,
					"limit":   limit,
				})
			})
		})
	},
}
