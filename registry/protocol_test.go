// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package registry

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/registree/registree-core/account"
	"github.com/registree/registree-core/db"
	"github.com/registree/registree-core/identity"
	"github.com/registree/registree-core/ledger"
	"github.com/registree/registree-core/protocol"
	"github.com/registree/registree-core/testutil"
)

var _chainID = identity.ChainID(31337)

func callCtx(caller common.Address) context.Context {
	return protocol.WithCallCtx(context.Background(), protocol.CallCtx{
		Caller:  caller,
		ChainID: _chainID,
	})
}

func newTestSetup(t *testing.T) (*Protocol, ledger.WorkingSet) {
	sf := ledger.NewFactory(db.NewMemKVStore())
	ws, err := sf.NewWorkingSet()
	require.NoError(t, err)
	return NewProtocol(), ws
}

func TestCreateAccount(t *testing.T) {
	require := require.New(t)
	members := testutil.Addresses(3)
	caller := members[0]

	t.Run("emits AccountCreated", func(t *testing.T) {
		p, ws := newTestSetup(t)
		ev, err := p.CreateAccount(callCtx(caller), ws, "acme", "Qm", members[0], members)
		require.NoError(err)
		require.Equal(EventAccountCreated, ev.Name)

		acct, err := p.Account(ws, identity.GenerateID(_chainID, "acme"))
		require.NoError(err)
		require.Equal("acme", acct.Name)
		require.Equal("Qm", acct.MetaURI)
		require.Equal(3, acct.Members.Len())
	})

	t.Run("fails with claimed name", func(t *testing.T) {
		p, ws := newTestSetup(t)
		_, err := p.CreateAccount(callCtx(caller), ws, "acme", "Qm", members[0], members)
		require.NoError(err)
		_, err = p.CreateAccount(callCtx(caller), ws, "acme", "Qm", members[0], members)
		require.Equal(protocol.ErrNameClaimed, errors.Cause(err))
	})

	t.Run("fails with empty members", func(t *testing.T) {
		p, ws := newTestSetup(t)
		_, err := p.CreateAccount(callCtx(caller), ws, "acme", "Qm", members[0], nil)
		require.Equal(protocol.ErrEmptyMembers, errors.Cause(err))
	})

	t.Run("fails with empty name", func(t *testing.T) {
		p, ws := newTestSetup(t)
		_, err := p.CreateAccount(callCtx(caller), ws, "", "Qm", members[0], members)
		require.Equal(protocol.ErrEmptyName, errors.Cause(err))
	})

	t.Run("fails with empty meta", func(t *testing.T) {
		p, ws := newTestSetup(t)
		_, err := p.CreateAccount(callCtx(caller), ws, "acme", "", members[0], members)
		require.Equal(protocol.ErrEmptyMeta, errors.Cause(err))
	})
}

func TestCreateAccountClaimFee(t *testing.T) {
	require := require.New(t)
	members := testutil.Addresses(3)
	caller, beneficiary := members[0], testutil.Address(9)

	sf := ledger.NewFactory(db.NewMemKVStore())
	ws, err := sf.NewWorkingSet()
	require.NoError(err)
	p := NewProtocol(WithClaimFee(big.NewInt(100)))
	require.NoError(account.Deposit(ws, caller, big.NewInt(1000)))

	// missing or wrong attached value is a payment failure
	_, err = p.CreateAccount(callCtx(caller), ws, "acme", "Qm", beneficiary, members)
	require.Equal(protocol.ErrPrice, errors.Cause(err))

	ctx := protocol.WithCallCtx(context.Background(), protocol.CallCtx{
		Caller:  caller,
		Value:   big.NewInt(100),
		ChainID: _chainID,
	})
	_, err = p.CreateAccount(ctx, ws, "acme", "Qm", beneficiary, members)
	require.NoError(err)

	b, err := account.LoadAccount(ws, beneficiary)
	require.NoError(err)
	require.Equal(big.NewInt(100), b.Balance)
	c, err := account.LoadAccount(ws, caller)
	require.NoError(err)
	require.Equal(big.NewInt(900), c.Balance)
}

func TestCreateProject(t *testing.T) {
	require := require.New(t)
	members := testutil.Addresses(3)
	caller := members[0]
	accountID := identity.GenerateID(_chainID, "acme")

	setup := func(t *testing.T, accountMembers []common.Address) (*Protocol, ledger.WorkingSet) {
		p, ws := newTestSetup(t)
		_, err := p.CreateAccount(callCtx(accountMembers[0]), ws, "acme", "Qm", accountMembers[0], accountMembers)
		require.NoError(err)
		return p, ws
	}

	t.Run("emits ProjectCreated", func(t *testing.T) {
		p, ws := setup(t, members)
		ev, err := p.CreateProject(callCtx(caller), ws, accountID, "bin", "Qm", members)
		require.NoError(err)
		require.Equal(EventProjectCreated, ev.Name)
	})

	t.Run("succeeds with no members", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.CreateProject(callCtx(caller), ws, accountID, "bin", "Qm", nil)
		require.NoError(err)
		proj, err := p.Project(ws, identity.GenerateID(accountID, "bin"))
		require.NoError(err)
		require.Equal(0, proj.Members.Len())
	})

	t.Run("fails with claimed name", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.CreateProject(callCtx(caller), ws, accountID, "bin", "Qm", nil)
		require.NoError(err)
		_, err = p.CreateProject(callCtx(caller), ws, accountID, "bin", "Qm", nil)
		require.Equal(protocol.ErrNameClaimed, errors.Cause(err))
	})

	t.Run("fails with no account member", func(t *testing.T) {
		p, ws := setup(t, members[1:])
		_, err := p.CreateProject(callCtx(caller), ws, accountID, "bin", "Qm", nil)
		require.Equal(protocol.ErrNotMember, errors.Cause(err))
	})

	t.Run("fails with empty account id", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.CreateProject(callCtx(caller), ws, common.Hash{}, "bin", "Qm", nil)
		require.Equal(protocol.ErrNotMember, errors.Cause(err))
	})

	t.Run("fails with empty project name", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.CreateProject(callCtx(caller), ws, accountID, "", "Qm", nil)
		require.Equal(protocol.ErrEmptyName, errors.Cause(err))
	})

	t.Run("fails with empty meta", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.CreateProject(callCtx(caller), ws, accountID, "bin", "", nil)
		require.Equal(protocol.ErrEmptyMeta, errors.Cause(err))
	})
}

func TestCreateRelease(t *testing.T) {
	require := require.New(t)
	members := testutil.Addresses(3)
	caller := members[0]
	accountID := identity.GenerateID(_chainID, "acme")
	projectID := identity.GenerateID(accountID, "bin")

	setup := func(t *testing.T, projectMembers []common.Address) (*Protocol, ledger.WorkingSet) {
		p, ws := newTestSetup(t)
		_, err := p.CreateAccount(callCtx(caller), ws, "acme", "Qm", caller, members)
		require.NoError(err)
		_, err = p.CreateProject(callCtx(caller), ws, accountID, "bin", "Qm", projectMembers)
		require.NoError(err)
		return p, ws
	}

	t.Run("emits ReleaseCreated", func(t *testing.T) {
		p, ws := setup(t, members)
		ev, err := p.CreateRelease(callCtx(caller), ws, projectID, "0.0.1", "Qm")
		require.NoError(err)
		require.Equal(EventReleaseCreated, ev.Name)

		rel, err := p.Release(ws, identity.GenerateID(projectID, "0.0.1"))
		require.NoError(err)
		require.False(rel.Approved)
		require.False(rel.Revoked)
	})

	t.Run("publishes with no project member", func(t *testing.T) {
		p, ws := setup(t, nil)
		outsider := testutil.Address(10)
		_, err := p.CreateRelease(callCtx(outsider), ws, projectID, "0.0.1", "Qm")
		require.NoError(err)
	})

	t.Run("fails with claimed name", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.CreateRelease(callCtx(caller), ws, projectID, "0.0.1", "Qm")
		require.NoError(err)
		_, err = p.CreateRelease(callCtx(caller), ws, projectID, "0.0.1", "Qm")
		require.Equal(protocol.ErrNameClaimed, errors.Cause(err))
	})

	t.Run("fails with empty name", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.CreateRelease(callCtx(caller), ws, projectID, "", "Qm")
		require.Equal(protocol.ErrEmptyName, errors.Cause(err))
	})

	t.Run("fails with invalid project id", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.CreateRelease(callCtx(caller), ws, common.Hash{}, "0.0.1", "Qm")
		require.Equal(protocol.ErrNotExist, errors.Cause(err))
	})

	t.Run("fails with empty meta", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.CreateRelease(callCtx(caller), ws, projectID, "0.0.1", "")
		require.Equal(protocol.ErrEmptyMeta, errors.Cause(err))
	})
}

func TestApproveRevokeRelease(t *testing.T) {
	require := require.New(t)
	members := testutil.Addresses(3)
	caller := members[0]
	accountID := identity.GenerateID(_chainID, "acme")
	projectID := identity.GenerateID(accountID, "bin")
	releaseID := identity.GenerateID(projectID, "0.0.1")

	setup := func(t *testing.T) (*Protocol, ledger.WorkingSet) {
		p, ws := newTestSetup(t)
		_, err := p.CreateAccount(callCtx(caller), ws, "acme", "Qm", caller, members)
		require.NoError(err)
		_, err = p.CreateProject(callCtx(caller), ws, accountID, "bin", "Qm", members)
		require.NoError(err)
		_, err = p.CreateRelease(callCtx(caller), ws, projectID, "0.0.1", "Qm")
		require.NoError(err)
		return p, ws
	}

	t.Run("emits ReleaseApproved and ReleaseRevoked", func(t *testing.T) {
		p, ws := setup(t)
		ev, err := p.ApproveRelease(callCtx(caller), ws, releaseID)
		require.NoError(err)
		require.Equal(EventReleaseApproved, ev.Name)
		rel, err := p.Release(ws, releaseID)
		require.NoError(err)
		require.True(rel.Approved)
		require.False(rel.Revoked)

		ev, err = p.RevokeRelease(callCtx(caller), ws, releaseID)
		require.NoError(err)
		require.Equal(EventReleaseRevoked, ev.Name)
		rel, err = p.Release(ws, releaseID)
		require.NoError(err)
		// approval and revocation are independent flags
		require.True(rel.Approved)
		require.True(rel.Revoked)
	})

	t.Run("fails with invalid release id", func(t *testing.T) {
		p, ws := setup(t)
		_, err := p.ApproveRelease(callCtx(caller), ws, common.Hash{})
		require.Equal(protocol.ErrNotExist, errors.Cause(err))
		_, err = p.RevokeRelease(callCtx(caller), ws, common.Hash{})
		require.Equal(protocol.ErrNotExist, errors.Cause(err))
	})

	t.Run("fails with unauthorized caller", func(t *testing.T) {
		p, ws := setup(t)
		outsider := testutil.Address(10)
		_, err := p.ApproveRelease(callCtx(outsider), ws, releaseID)
		require.Equal(protocol.ErrNotMember, errors.Cause(err))
		_, err = p.RevokeRelease(callCtx(outsider), ws, releaseID)
		require.Equal(protocol.ErrNotMember, errors.Cause(err))
	})
}

func TestAccountMembers(t *testing.T) {
	require := require.New(t)
	members := testutil.Addresses(6)
	caller := members[0]
	accountID := identity.GenerateID(_chainID, "acme")

	setup := func(t *testing.T, accountMembers []common.Address) (*Protocol, ledger.WorkingSet) {
		p, ws := newTestSetup(t)
		_, err := p.CreateAccount(callCtx(accountMembers[0]), ws, "acme", "Qm", accountMembers[0], accountMembers)
		require.NoError(err)
		return p, ws
	}

	t.Run("add emits AccountMemberAdded", func(t *testing.T) {
		p, ws := setup(t, members[:1])
		ev, err := p.AddAccountMember(callCtx(caller), ws, accountID, members[1])
		require.NoError(err)
		require.Equal(EventAccountMemberAdded, ev.Name)
	})

	t.Run("add fails with duplicate member", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.AddAccountMember(callCtx(caller), ws, accountID, members[1])
		require.Equal(protocol.ErrMemberExist, errors.Cause(err))
	})

	t.Run("add fails with no account member", func(t *testing.T) {
		p, ws := setup(t, members[1:])
		_, err := p.AddAccountMember(callCtx(caller), ws, accountID, members[0])
		require.Equal(protocol.ErrNotMember, errors.Cause(err))
	})

	t.Run("add fails with invalid account id", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.AddAccountMember(callCtx(caller), ws, common.Hash{}, members[1])
		require.Equal(protocol.ErrNotMember, errors.Cause(err))
	})

	t.Run("remove emits AccountMemberRemoved", func(t *testing.T) {
		p, ws := setup(t, members)
		ev, err := p.RemoveAccountMember(callCtx(caller), ws, accountID, members[1])
		require.NoError(err)
		require.Equal(EventAccountMemberRemoved, ev.Name)
	})

	t.Run("remove fails with non existent member", func(t *testing.T) {
		p, ws := setup(t, members[:3])
		_, err := p.RemoveAccountMember(callCtx(caller), ws, accountID, members[5])
		require.Equal(protocol.ErrMemberNotExist, errors.Cause(err))
	})

	t.Run("remove fails with no account member", func(t *testing.T) {
		p, ws := setup(t, members[1:])
		_, err := p.RemoveAccountMember(callCtx(caller), ws, accountID, members[1])
		require.Equal(protocol.ErrNotMember, errors.Cause(err))
	})

	t.Run("remove fails with invalid account id", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.RemoveAccountMember(callCtx(caller), ws, common.Hash{}, members[1])
		require.Equal(protocol.ErrNotMember, errors.Cause(err))
	})

	t.Run("remove keeps the member set non-empty", func(t *testing.T) {
		p, ws := setup(t, members[:1])
		_, err := p.RemoveAccountMember(callCtx(caller), ws, accountID, caller)
		require.Equal(protocol.ErrNotAllowed, errors.Cause(err))
	})

	t.Run("add then remove restores the prior state", func(t *testing.T) {
		p, ws := setup(t, members[:2])
		_, err := p.AddAccountMember(callCtx(caller), ws, accountID, members[2])
		require.NoError(err)
		_, err = p.RemoveAccountMember(callCtx(caller), ws, accountID, members[2])
		require.NoError(err)
		acct, err := p.Account(ws, accountID)
		require.NoError(err)
		require.Equal(2, acct.Members.Len())
		require.True(acct.Members.Has(members[0]))
		require.True(acct.Members.Has(members[1]))
		require.False(acct.Members.Has(members[2]))
	})
}

func TestProjectMembers(t *testing.T) {
	require := require.New(t)
	members := testutil.Addresses(6)
	caller := members[0]
	accountID := identity.GenerateID(_chainID, "acme")
	projectID := identity.GenerateID(accountID, "bin")

	setup := func(t *testing.T, projectMembers []common.Address) (*Protocol, ledger.WorkingSet) {
		p, ws := newTestSetup(t)
		_, err := p.CreateAccount(callCtx(caller), ws, "acme", "Qm", caller, members[:1])
		require.NoError(err)
		_, err = p.CreateProject(callCtx(caller), ws, accountID, "bin", "Qm", projectMembers)
		require.NoError(err)
		return p, ws
	}

	t.Run("add emits ProjectMemberAdded", func(t *testing.T) {
		p, ws := setup(t, nil)
		ev, err := p.AddProjectMember(callCtx(caller), ws, projectID, members[1])
		require.NoError(err)
		require.Equal(EventProjectMemberAdded, ev.Name)
	})

	t.Run("add fails with duplicate member", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.AddProjectMember(callCtx(caller), ws, projectID, members[0])
		require.Equal(protocol.ErrMemberExist, errors.Cause(err))
	})

	t.Run("add fails with no account member", func(t *testing.T) {
		p, ws := setup(t, nil)
		_, err := p.AddProjectMember(callCtx(members[1]), ws, projectID, members[2])
		require.Equal(protocol.ErrNotMember, errors.Cause(err))
	})

	t.Run("add fails with invalid project id", func(t *testing.T) {
		p, ws := setup(t, nil)
		_, err := p.AddProjectMember(callCtx(caller), ws, common.Hash{}, members[1])
		require.Equal(protocol.ErrNotExist, errors.Cause(err))
	})

	t.Run("remove emits ProjectMemberRemoved", func(t *testing.T) {
		p, ws := setup(t, members)
		ev, err := p.RemoveProjectMember(callCtx(caller), ws, projectID, members[0])
		require.NoError(err)
		require.Equal(EventProjectMemberRemoved, ev.Name)
	})

	t.Run("remove fails with non existent member", func(t *testing.T) {
		p, ws := setup(t, members[:3])
		_, err := p.RemoveProjectMember(callCtx(caller), ws, projectID, members[5])
		require.Equal(protocol.ErrMemberNotExist, errors.Cause(err))
	})

	t.Run("remove fails with no account member", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.RemoveProjectMember(callCtx(members[1]), ws, projectID, members[0])
		require.Equal(protocol.ErrNotMember, errors.Cause(err))
	})

	t.Run("remove fails with invalid project id", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.RemoveProjectMember(callCtx(caller), ws, common.Hash{}, members[0])
		require.Equal(protocol.ErrNotExist, errors.Cause(err))
	})
}

func TestSetMetaURI(t *testing.T) {
	require := require.New(t)
	members := testutil.Addresses(3)
	caller := members[0]
	accountID := identity.GenerateID(_chainID, "acme")
	projectID := identity.GenerateID(accountID, "bin")

	setup := func(t *testing.T, accountMembers []common.Address) (*Protocol, ledger.WorkingSet) {
		p, ws := newTestSetup(t)
		_, err := p.CreateAccount(callCtx(accountMembers[0]), ws, "acme", "Qm", accountMembers[0], accountMembers)
		require.NoError(err)
		_, err = p.CreateProject(callCtx(accountMembers[0]), ws, accountID, "bin", "Qm", nil)
		require.NoError(err)
		return p, ws
	}

	t.Run("account update emits AccountUpdated", func(t *testing.T) {
		p, ws := setup(t, members)
		ev, err := p.SetAccountMetaURI(callCtx(caller), ws, accountID, "baf")
		require.NoError(err)
		require.Equal(EventAccountUpdated, ev.Name)
		acct, err := p.Account(ws, accountID)
		require.NoError(err)
		require.Equal("baf", acct.MetaURI)
	})

	t.Run("account update fails with no member", func(t *testing.T) {
		p, ws := setup(t, members[1:])
		_, err := p.SetAccountMetaURI(callCtx(caller), ws, accountID, "baf")
		require.Equal(protocol.ErrNotMember, errors.Cause(err))
	})

	t.Run("account update fails with invalid id", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.SetAccountMetaURI(callCtx(caller), ws, common.Hash{}, "baf")
		require.Equal(protocol.ErrNotMember, errors.Cause(err))
	})

	t.Run("account update fails with empty meta", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.SetAccountMetaURI(callCtx(caller), ws, accountID, "")
		require.Equal(protocol.ErrEmptyMeta, errors.Cause(err))
	})

	t.Run("project update emits ProjectUpdated", func(t *testing.T) {
		p, ws := setup(t, members)
		ev, err := p.SetProjectMetaURI(callCtx(caller), ws, projectID, "baf")
		require.NoError(err)
		require.Equal(EventProjectUpdated, ev.Name)
		proj, err := p.Project(ws, projectID)
		require.NoError(err)
		require.Equal("baf", proj.MetaURI)
	})

	t.Run("project update fails with no account member", func(t *testing.T) {
		p, ws := setup(t, members[:1])
		_, err := p.SetProjectMetaURI(callCtx(members[1]), ws, projectID, "baf")
		require.Equal(protocol.ErrNotMember, errors.Cause(err))
	})

	t.Run("project update fails with invalid id", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.SetProjectMetaURI(callCtx(caller), ws, common.Hash{}, "baf")
		require.Equal(protocol.ErrNotExist, errors.Cause(err))
	})

	t.Run("project update fails with empty meta", func(t *testing.T) {
		p, ws := setup(t, members)
		_, err := p.SetProjectMetaURI(callCtx(caller), ws, projectID, "")
		require.Equal(protocol.ErrEmptyMeta, errors.Cause(err))
	})
}

func TestMemberSet(t *testing.T) {
	require := require.New(t)
	addrs := testutil.Addresses(4)

	s := NewMemberSet(addrs[0], addrs[1], addrs[0])
	require.Equal(2, s.Len())
	require.True(s.Has(addrs[0]))
	require.False(s.Has(addrs[2]))

	require.True(s.Add(addrs[2]))
	require.False(s.Add(addrs[2]))
	require.Equal(3, s.Len())

	require.True(s.Remove(addrs[0]))
	require.False(s.Remove(addrs[0]))
	require.False(s.Remove(addrs[3]))
	require.Equal(2, s.Len())
	require.True(s.Has(addrs[1]))
	require.True(s.Has(addrs[2]))

	// round trip through the account record codec
	acct := &Account{Name: "acme", MetaURI: "Qm", Members: s}
	data, err := acct.Serialize()
	require.NoError(err)
	decoded := &Account{}
	require.NoError(decoded.Deserialize(data))
	require.Equal(2, decoded.Members.Len())
	require.True(decoded.Members.Has(addrs[1]))
	require.True(decoded.Members.Has(addrs[2]))
}
