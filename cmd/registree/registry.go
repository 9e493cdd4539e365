// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package main

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/registree/registree-core/config"
	"github.com/registree/registree-core/core"
	"github.com/registree/registree-core/identity"
	"github.com/registree/registree-core/protocol"
	"github.com/registree/registree-core/registry"
)

var (
	_membersFlag     []string
	_beneficiaryFlag string
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts",
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Manage releases",
}

func init() {
	accountCreateCmd.Flags().StringSliceVar(&_membersFlag, "members", nil, "member hex addresses")
	accountCreateCmd.Flags().StringVar(&_beneficiaryFlag, "beneficiary", "", "beneficiary hex address, defaults to --from")
	projectCreateCmd.Flags().StringSliceVar(&_membersFlag, "members", nil, "member hex addresses")

	accountCmd.AddCommand(accountCreateCmd, accountInfoCmd, accountAddMemberCmd, accountRemoveMemberCmd, accountSetMetaCmd)
	projectCmd.AddCommand(projectCreateCmd, projectInfoCmd, projectAddMemberCmd, projectRemoveMemberCmd, projectSetMetaCmd)
	releaseCmd.AddCommand(releaseCreateCmd, releaseInfoCmd, releaseApproveCmd, releaseRevokeCmd)
}

func parseAddresses(ss []string) ([]common.Address, error) {
	addrs := make([]common.Address, len(ss))
	for i, s := range ss {
		if !common.IsHexAddress(s) {
			return nil, errors.Errorf("%q is not a hex address", s)
		}
		addrs[i] = common.HexToAddress(s)
	}
	return addrs, nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Errorf("%q is not a hex address", s)
	}
	return common.HexToAddress(s), nil
}

func accountID(c *core.Core, name string) common.Hash {
	return identity.GenerateID(c.ChainID(), name)
}

func projectID(c *core.Core, accountName, projectName string) common.Hash {
	return identity.GenerateID(accountID(c, accountName), projectName)
}

func releaseID(c *core.Core, accountName, projectName, releaseName string) common.Hash {
	return identity.GenerateID(projectID(c, accountName, projectName), releaseName)
}

var accountCreateCmd = &cobra.Command{
	Use:   "create NAME METAURI",
	Short: "Claim an account name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			members, err := parseAddresses(_membersFlag)
			if err != nil {
				return err
			}
			beneficiary, err := caller()
			if err != nil {
				return err
			}
			if _beneficiaryFlag != "" {
				if beneficiary, err = parseAddress(_beneficiaryFlag); err != nil {
					return err
				}
			}
			rp := registry.FindProtocol(c.Hub())
			return execute(c, func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
				return rp.CreateAccount(ctx, sm, args[0], args[1], beneficiary, members)
			})
		})
	},
}

var accountInfoCmd = &cobra.Command{
	Use:   "info NAME",
	Short: "Print an account record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			rp := registry.FindProtocol(c.Hub())
			return c.View(func(sr protocol.StateReader) error {
				acct, err := rp.Account(sr, accountID(c, args[0]))
				if err != nil {
					return err
				}
				return printYAML(map[string]interface{}{
					"id":          accountID(c, args[0]).Hex(),
					"name":        acct.Name,
					"metaURI":     acct.MetaURI,
					"beneficiary": acct.Beneficiary.Hex(),
					"members":     hexAddresses(acct.Members.Slice()),
				})
			})
		})
	},
}

var accountAddMemberCmd = &cobra.Command{
	Use:   "add-member NAME ADDRESS",
	Short: "Add a member to an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			addr, err := parseAddress(args[1])
			if err != nil {
				return err
			}
			rp := registry.FindProtocol(c.Hub())
			return execute(c, func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
				return rp.AddAccountMember(ctx, sm, accountID(c, args[0]), addr)
			})
		})
	},
}

var accountRemoveMemberCmd = &cobra.Command{
	Use:   "remove-member NAME ADDRESS",
	Short: "Remove a member from an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			addr, err := parseAddress(args[1])
			if err != nil {
				return err
			}
			rp := registry.FindProtocol(c.Hub())
			return execute(c, func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
				return rp.RemoveAccountMember(ctx, sm, accountID(c, args[0]), addr)
			})
		})
	},
}

var accountSetMetaCmd = &cobra.Command{
	Use:   "set-meta NAME METAURI",
	Short: "Replace an account's metadata URI",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			rp := registry.FindProtocol(c.Hub())
			return execute(c, func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
				return rp.SetAccountMetaURI(ctx, sm, accountID(c, args[0]), args[1])
			})
		})
	},
}

var projectCreateCmd = &cobra.Command{
	Use:   "create ACCOUNT NAME METAURI",
	Short: "Create a project under an account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			members, err := parseAddresses(_membersFlag)
			if err != nil {
				return err
			}
			rp := registry.FindProtocol(c.Hub())
			return execute(c, func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
				return rp.CreateProject(ctx, sm, accountID(c, args[0]), args[1], args[2], members)
			})
		})
	},
}

var projectInfoCmd = &cobra.Command{
	Use:   "info ACCOUNT NAME",
	Short: "Print a project record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			rp := registry.FindProtocol(c.Hub())
			return c.View(func(sr protocol.StateReader) error {
				proj, err := rp.Project(sr, projectID(c, args[0], args[1]))
				if err != nil {
					return err
				}
				return printYAML(map[string]interface{}{
					"id":        projectID(c, args[0], args[1]).Hex(),
					"accountID": proj.AccountID.Hex(),
					"name":      proj.Name,
					"metaURI":   proj.MetaURI,
					"members":   hexAddresses(proj.Members.Slice()),
				})
			})
		})
	},
}

var projectAddMemberCmd = &cobra.Command{
	Use:   "add-member ACCOUNT NAME ADDRESS",
	Short: "Add a member to a project",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			addr, err := parseAddress(args[2])
			if err != nil {
				return err
			}
			rp := registry.FindProtocol(c.Hub())
			return execute(c, func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
				return rp.AddProjectMember(ctx, sm, projectID(c, args[0], args[1]), addr)
			})
		})
	},
}

var projectRemoveMemberCmd = &cobra.Command{
	Use:   "remove-member ACCOUNT NAME ADDRESS",
	Short: "Remove a member from a project",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			addr, err := parseAddress(args[2])
			if err != nil {
				return err
			}
			rp := registry.FindProtocol(c.Hub())
			return execute(c, func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
				return rp.RemoveProjectMember(ctx, sm, projectID(c, args[0], args[1]), addr)
			})
		})
	},
}

var projectSetMetaCmd = &cobra.Command{
	Use:   "set-meta ACCOUNT NAME METAURI",
	Short: "Replace a project's metadata URI",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			rp := registry.FindProtocol(c.Hub())
			return execute(c, func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
				return rp.SetProjectMetaURI(ctx, sm, projectID(c, args[0], args[1]), args[2])
			})
		})
	},
}

var releaseCreateCmd = &cobra.Command{
	Use:   "create ACCOUNT PROJECT NAME METAURI",
	Short: "Publish a release under a project",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			rp := registry.FindProtocol(c.Hub())
			return execute(c, func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
				return rp.CreateRelease(ctx, sm, projectID(c, args[0], args[1]), args[2], args[3])
			})
		})
	},
}

var releaseInfoCmd = &cobra.Command{
	Use:   "info ACCOUNT PROJECT NAME",
	Short: "Print a release record",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			rp := registry.FindProtocol(c.Hub())
			return c.View(func(sr protocol.StateReader) error {
				rel, err := rp.Release(sr, releaseID(c, args[0], args[1], args[2]))
				if err != nil {
					return err
				}
				return printYAML(map[string]interface{}{
					"id":        releaseID(c, args[0], args[1], args[2]).Hex(),
					"projectID": rel.ProjectID.Hex(),
					"name":      rel.Name,
					"metaURI":   rel.MetaURI,
					"approved":  rel.Approved,
					"revoked":   rel.Revoked,
				})
			})
		})
	},
}

var releaseApproveCmd = &cobra.Command{
	Use:   "approve ACCOUNT PROJECT NAME",
	Short: "Approve a release",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			rp := registry.FindProtocol(c.Hub())
			return execute(c, func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
				return rp.ApproveRelease(ctx, sm, releaseID(c, args[0], args[1], args[2]))
			})
		})
	},
}

var releaseRevokeCmd = &cobra.Command{
	Use:   "revoke ACCOUNT PROJECT NAME",
	Short: "Revoke a release",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(cfg config.Config, c *core.Core) error {
			rp := registry.FindProtocol(c.Hub())
			return execute(c, func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
				return rp.RevokeRelease(ctx, sm, releaseID(c, args[0], args[1], args[2]))
			})
		})
	},
}

func hexAddresses(addrs []common.Address) []string {
	ss := make([]string, len(addrs))
	for i, addr := range addrs {
		ss[i] = addr.Hex()
	}
	return ss
}
