// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package core

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/registree/registree-core/db"
	"github.com/registree/registree-core/identity"
	"github.com/registree/registree-core/ledger"
	"github.com/registree/registree-core/license"
	"github.com/registree/registree-core/protocol"
	"github.com/registree/registree-core/registry"
	"github.com/registree/registree-core/testutil"
)

func newTestCore(t *testing.T) (*Core, *registry.Protocol, *license.Protocol) {
	require := require.New(t)
	hub := &protocol.Registry{}
	rp := registry.NewProtocol()
	require.NoError(hub.Register(registry.ProtocolID, rp))
	lp := license.NewProtocol(rp, license.NewMemoryToken(), testutil.Address(100), license.WithProtocolFee(1000))
	require.NoError(hub.Register(license.ProtocolID, lp))

	c := New(ledger.NewFactory(db.NewMemKVStore()), hub, 31337)
	require.NoError(c.Start(context.Background()))
	t.Cleanup(func() {
		require.NoError(c.Stop(context.Background()))
	})
	return c, rp, lp
}

func TestExecuteCommitsOnSuccess(t *testing.T) {
	require := require.New(t)
	c, rp, _ := newTestCore(t)
	admin := testutil.Address(1)

	receipt, err := c.Execute(context.Background(), admin, nil,
		func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
			return rp.CreateAccount(ctx, sm, "acme", "Qm", admin, []common.Address{admin})
		})
	require.NoError(err)
	require.Len(receipt.Events, 1)
	require.Equal(registry.EventAccountCreated, receipt.Events[0].Name)

	accountID := identity.GenerateID(c.ChainID(), "acme")
	require.NoError(c.View(func(sr protocol.StateReader) error {
		acct, err := rp.Account(sr, accountID)
		if err != nil {
			return err
		}
		require.Equal("acme", acct.Name)
		return nil
	}))
}

func TestExecuteDiscardsOnError(t *testing.T) {
	require := require.New(t)
	c, rp, _ := newTestCore(t)
	admin := testutil.Address(1)
	accountID := identity.GenerateID(c.ChainID(), "acme")

	_, err := c.Execute(context.Background(), admin, nil,
		func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
			// the account write below must not survive the failing second step
			if _, err := rp.CreateAccount(ctx, sm, "acme", "Qm", admin, []common.Address{admin}); err != nil {
				return nil, err
			}
			return rp.CreateProject(ctx, sm, accountID, "", "Qm", nil)
		})
	require.Equal(protocol.ErrEmptyName, errors.Cause(err))

	err = c.View(func(sr protocol.StateReader) error {
		_, err := rp.Account(sr, accountID)
		return err
	})
	require.Equal(protocol.ErrNotExist, errors.Cause(err))
}

func TestFund(t *testing.T) {
	require := require.New(t)
	c, _, _ := newTestCore(t)
	addr := testutil.Address(2)

	receipt, err := c.Fund(context.Background(), addr, big.NewInt(5000))
	require.NoError(err)
	require.Equal(EventFunded, receipt.Events[0].Name)

	balance, err := c.NativeBalance(addr)
	require.NoError(err)
	require.Equal(big.NewInt(5000), balance)
}

func TestPurchaseFlow(t *testing.T) {
	require := require.New(t)
	c, rp, lp := newTestCore(t)
	admin, buyer := testutil.Address(1), testutil.Address(2)
	ctx := context.Background()
	accountID := identity.GenerateID(c.ChainID(), "acme")
	projectID := identity.GenerateID(accountID, "bin")

	_, err := c.Fund(ctx, buyer, big.NewInt(10000))
	require.NoError(err)
	_, err = c.Execute(ctx, admin, nil,
		func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
			return rp.CreateAccount(ctx, sm, "acme", "Qm", admin, []common.Address{admin})
		})
	require.NoError(err)
	_, err = c.Execute(ctx, admin, nil,
		func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
			return rp.CreateProject(ctx, sm, accountID, "bin", "Qm", nil)
		})
	require.NoError(err)
	_, err = c.Execute(ctx, admin, nil,
		func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
			return lp.SetPrice(ctx, sm, license.NativeAsset(), projectID, big.NewInt(1000))
		})
	require.NoError(err)

	receipt, err := c.Execute(ctx, buyer, big.NewInt(1000),
		func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
			return lp.Purchase(ctx, sm, license.NativeAsset(), projectID, buyer)
		})
	require.NoError(err)
	require.Equal(license.EventProductPurchased, receipt.Events[0].Name)

	balance, err := c.NativeBalance(buyer)
	require.NoError(err)
	require.Equal(big.NewInt(9000), balance)
	balance, err = c.NativeBalance(testutil.Address(100))
	require.NoError(err)
	require.Equal(big.NewInt(100), balance)

	require.NoError(c.View(func(sr protocol.StateReader) error {
		held, err := lp.BalanceOf(sr, buyer, projectID)
		if err != nil {
			return err
		}
		require.Equal(uint64(1), held)
		return nil
	}))

	_, err = c.Execute(ctx, admin, nil,
		func(ctx context.Context, sm protocol.StateManager) (*protocol.Event, error) {
			return lp.Withdraw(ctx, sm, license.NativeAsset(), projectID, admin)
		})
	require.NoError(err)
	balance, err = c.NativeBalance(admin)
	require.NoError(err)
	require.Equal(big.NewInt(900), balance)
}
