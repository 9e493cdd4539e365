// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package registry implements the namespace protocol: hierarchical Account → Project →
// Release records, their metadata, and their membership sets. Account members gate every
// mutation below their account; release publishing is permissionless once a project exists.
package registry

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/registree/registree-core/account"
	"github.com/registree/registree-core/identity"
	"github.com/registree/registree-core/ledger"
	"github.com/registree/registree-core/protocol"
)

const (
	// ProtocolID is the unique ID of the registry protocol
	ProtocolID = "registry"
	// StateNamespace is the state namespace of registry records
	StateNamespace = "Registry"
)

// Events emitted by the registry protocol
const (
	EventAccountCreated       = "AccountCreated"
	EventAccountUpdated       = "AccountUpdated"
	EventAccountMemberAdded   = "AccountMemberAdded"
	EventAccountMemberRemoved = "AccountMemberRemoved"
	EventProjectCreated       = "ProjectCreated"
	EventProjectUpdated       = "ProjectUpdated"
	EventProjectMemberAdded   = "ProjectMemberAdded"
	EventProjectMemberRemoved = "ProjectMemberRemoved"
	EventReleaseCreated       = "ReleaseCreated"
	EventReleaseApproved      = "ReleaseApproved"
	EventReleaseRevoked       = "ReleaseRevoked"
)

var (
	_accountPrefix = []byte("a")
	_projectPrefix = []byte("p")
	_releasePrefix = []byte("r")
)

// Protocol defines the registry protocol
type Protocol struct {
	claimFee *big.Int
}

// Option sets a protocol construction parameter
type Option func(*Protocol)

// WithClaimFee makes CreateAccount require the given native fee, credited to the account's
// beneficiary address
func WithClaimFee(fee *big.Int) Option {
	return func(p *Protocol) {
		p.claimFee = fee
	}
}

// NewProtocol instantiates the registry protocol
func NewProtocol(opts ...Option) *Protocol {
	p := &Protocol{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FindProtocol finds the registry protocol in the hub
func FindProtocol(hub *protocol.Registry) *Protocol {
	p, ok := hub.Find(ProtocolID)
	if !ok {
		return nil
	}
	rp, ok := p.(*Protocol)
	if !ok {
		return nil
	}
	return rp
}

func accountKey(id common.Hash) []byte { return append(_accountPrefix, id[:]...) }
func projectKey(id common.Hash) []byte { return append(_projectPrefix, id[:]...) }
func releaseKey(id common.Hash) []byte { return append(_releasePrefix, id[:]...) }

// CreateAccount claims a globally unique account name and creates its record
func (p *Protocol) CreateAccount(
	ctx context.Context,
	sm protocol.StateManager,
	name string,
	metaURI string,
	beneficiary common.Address,
	members []common.Address,
) (*protocol.Event, error) {
	cc := protocol.MustGetCallCtx(ctx)
	if name == "" {
		return nil, errors.Wrap(protocol.ErrEmptyName, "account name")
	}
	if metaURI == "" {
		return nil, errors.Wrap(protocol.ErrEmptyMeta, "account meta URI")
	}
	if len(members) == 0 {
		return nil, errors.Wrap(protocol.ErrEmptyMembers, "account members")
	}
	id := identity.GenerateID(cc.ChainID, name)
	if _, err := p.Account(sm, id); err == nil {
		return nil, errors.Wrapf(protocol.ErrNameClaimed, "account name %q", name)
	} else if errors.Cause(err) != protocol.ErrNotExist {
		return nil, err
	}
	if p.claimFee != nil && p.claimFee.Sign() > 0 {
		if cc.CallValue().Cmp(p.claimFee) != 0 {
			return nil, errors.Wrapf(protocol.ErrPrice, "claim fee %s", p.claimFee)
		}
		if err := account.Transfer(sm, cc.Caller, beneficiary, p.claimFee); err != nil {
			return nil, err
		}
	}
	acct := &Account{
		Name:        name,
		MetaURI:     metaURI,
		Beneficiary: beneficiary,
		Members:     NewMemberSet(members...),
	}
	if err := sm.PutState(StateNamespace, accountKey(id), acct); err != nil {
		return nil, err
	}
	return protocol.NewEvent(EventAccountCreated, id), nil
}

// CreateProject creates a project under an account the caller is a member of
func (p *Protocol) CreateProject(
	ctx context.Context,
	sm protocol.StateManager,
	accountID common.Hash,
	name string,
	metaURI string,
	members []common.Address,
) (*protocol.Event, error) {
	cc := protocol.MustGetCallCtx(ctx)
	acct, err := p.Account(sm, accountID)
	if err != nil {
		// an unknown or zero account id resolves to the membership failure
		if errors.Cause(err) == protocol.ErrNotExist {
			return nil, errors.Wrapf(protocol.ErrNotMember, "account %x", accountID)
		}
		return nil, err
	}
	if !acct.Members.Has(cc.Caller) {
		return nil, errors.Wrapf(protocol.ErrNotMember, "caller %x", cc.Caller)
	}
	if name == "" {
		return nil, errors.Wrap(protocol.ErrEmptyName, "project name")
	}
	if metaURI == "" {
		return nil, errors.Wrap(protocol.ErrEmptyMeta, "project meta URI")
	}
	id := identity.GenerateID(accountID, name)
	if _, err := p.Project(sm, id); err == nil {
		return nil, errors.Wrapf(protocol.ErrNameClaimed, "project name %q", name)
	} else if errors.Cause(err) != protocol.ErrNotExist {
		return nil, err
	}
	proj := &Project{
		AccountID: accountID,
		Name:      name,
		MetaURI:   metaURI,
		Members:   NewMemberSet(members...),
	}
	if err := sm.PutState(StateNamespace, projectKey(id), proj); err != nil {
		return nil, err
	}
	return protocol.NewEvent(EventProjectCreated, id, accountID), nil
}

// CreateRelease publishes a release under an existing project. Publishing requires no
// membership; approval is the privileged follow-on action.
func (p *Protocol) CreateRelease(
	ctx context.Context,
	sm protocol.StateManager,
	projectID common.Hash,
	name string,
	metaURI string,
) (*protocol.Event, error) {
	if _, err := p.Project(sm, projectID); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.Wrap(protocol.ErrEmptyName, "release name")
	}
	if metaURI == "" {
		return nil, errors.Wrap(protocol.ErrEmptyMeta, "release meta URI")
	}
	id := identity.GenerateID(projectID, name)
	if _, err := p.Release(sm, id); err == nil {
		return nil, errors.Wrapf(protocol.ErrNameClaimed, "release name %q", name)
	} else if errors.Cause(err) != protocol.ErrNotExist {
		return nil, err
	}
	rel := &Release{
		ProjectID: projectID,
		Name:      name,
		MetaURI:   metaURI,
	}
	if err := sm.PutState(StateNamespace, releaseKey(id), rel); err != nil {
		return nil, err
	}
	return protocol.NewEvent(EventReleaseCreated, id, projectID), nil
}

// ApproveRelease marks a release as approved
func (p *Protocol) ApproveRelease(
	ctx context.Context,
	sm protocol.StateManager,
	releaseID common.Hash,
) (*protocol.Event, error) {
	rel, err := p.authorizeRelease(ctx, sm, releaseID)
	if err != nil {
		return nil, err
	}
	rel.Approved = true
	if err := sm.PutState(StateNamespace, releaseKey(releaseID), rel); err != nil {
		return nil, err
	}
	return protocol.NewEvent(EventReleaseApproved, releaseID), nil
}

// RevokeRelease marks a release as revoked
func (p *Protocol) RevokeRelease(
	ctx context.Context,
	sm protocol.StateManager,
	releaseID common.Hash,
) (*protocol.Event, error) {
	rel, err := p.authorizeRelease(ctx, sm, releaseID)
	if err != nil {
		return nil, err
	}
	rel.Revoked = true
	if err := sm.PutState(StateNamespace, releaseKey(releaseID), rel); err != nil {
		return nil, err
	}
	return protocol.NewEvent(EventReleaseRevoked, releaseID), nil
}

// authorizeRelease loads a release and checks the caller may administer it. Existence is
// checked before authorization so unknown releases always fail err-not-exist.
func (p *Protocol) authorizeRelease(
	ctx context.Context,
	sm protocol.StateManager,
	releaseID common.Hash,
) (*Release, error) {
	cc := protocol.MustGetCallCtx(ctx)
	rel, err := p.Release(sm, releaseID)
	if err != nil {
		return nil, err
	}
	proj, err := p.Project(sm, rel.ProjectID)
	if err != nil {
		return nil, err
	}
	if proj.Members.Has(cc.Caller) {
		return rel, nil
	}
	acct, err := p.Account(sm, proj.AccountID)
	if err != nil {
		return nil, err
	}
	if !acct.Members.Has(cc.Caller) {
		return nil, errors.Wrapf(protocol.ErrNotMember, "caller %x", cc.Caller)
	}
	return rel, nil
}

// AddAccountMember adds a member to an account
func (p *Protocol) AddAccountMember(
	ctx context.Context,
	sm protocol.StateManager,
	accountID common.Hash,
	addr common.Address,
) (*protocol.Event, error) {
	acct, err := p.authorizeAccount(ctx, sm, accountID)
	if err != nil {
		return nil, err
	}
	if !acct.Members.Add(addr) {
		return nil, errors.Wrapf(protocol.ErrMemberExist, "member %x", addr)
	}
	if err := sm.PutState(StateNamespace, accountKey(accountID), acct); err != nil {
		return nil, err
	}
	return protocol.NewEvent(EventAccountMemberAdded, accountID, common.BytesToHash(addr[:])), nil
}

// RemoveAccountMember removes a member from an account. The member set is kept non-empty.
func (p *Protocol) RemoveAccountMember(
	ctx context.Context,
	sm protocol.StateManager,
	accountID common.Hash,
	addr common.Address,
) (*protocol.Event, error) {
	acct, err := p.authorizeAccount(ctx, sm, accountID)
	if err != nil {
		return nil, err
	}
	if !acct.Members.Has(addr) {
		return nil, errors.Wrapf(protocol.ErrMemberNotExist, "member %x", addr)
	}
	if acct.Members.Len() == 1 {
		return nil, errors.Wrap(protocol.ErrNotAllowed, "cannot remove the last account member")
	}
	acct.Members.Remove(addr)
	if err := sm.PutState(StateNamespace, accountKey(accountID), acct); err != nil {
		return nil, err
	}
	return protocol.NewEvent(EventAccountMemberRemoved, accountID, common.BytesToHash(addr[:])), nil
}

// AddProjectMember adds a member to a project; only account members may administer the
// project member set
func (p *Protocol) AddProjectMember(
	ctx context.Context,
	sm protocol.StateManager,
	projectID common.Hash,
	addr common.Address,
) (*protocol.Event, error) {
	proj, err := p.authorizeProject(ctx, sm, projectID)
	if err != nil {
		return nil, err
	}
	if !proj.Members.Add(addr) {
		return nil, errors.Wrapf(protocol.ErrMemberExist, "member %x", addr)
	}
	if err := sm.PutState(StateNamespace, projectKey(projectID), proj); err != nil {
		return nil, err
	}
	return protocol.NewEvent(EventProjectMemberAdded, projectID, common.BytesToHash(addr[:])), nil
}

// RemoveProjectMember removes a member from a project
func (p *Protocol) RemoveProjectMember(
	ctx context.Context,
	sm protocol.StateManager,
	projectID common.Hash,
	addr common.Address,
) (*protocol.Event, error) {
	proj, err := p.authorizeProject(ctx, sm, projectID)
	if err != nil {
		return nil, err
	}
	if !proj.Members.Remove(addr) {
		return nil, errors.Wrapf(protocol.ErrMemberNotExist, "member %x", addr)
	}
	if err := sm.PutState(StateNamespace, projectKey(projectID), proj); err != nil {
		return nil, err
	}
	return protocol.NewEvent(EventProjectMemberRemoved, projectID, common.BytesToHash(addr[:])), nil
}

// SetAccountMetaURI replaces the metadata URI of an account
func (p *Protocol) SetAccountMetaURI(
	ctx context.Context,
	sm protocol.StateManager,
	accountID common.Hash,
	metaURI string,
) (*protocol.Event, error) {
	acct, err := p.authorizeAccount(ctx, sm, accountID)
	if err != nil {
		return nil, err
	}
	if metaURI == "" {
		return nil, errors.Wrap(protocol.ErrEmptyMeta, "account meta URI")
	}
	acct.MetaURI = metaURI
	if err := sm.PutState(StateNamespace, accountKey(accountID), acct); err != nil {
		return nil, err
	}
	return protocol.NewEvent(EventAccountUpdated, accountID), nil
}

// SetProjectMetaURI replaces the metadata URI of a project; gated by account membership,
// not project membership
func (p *Protocol) SetProjectMetaURI(
	ctx context.Context,
	sm protocol.StateManager,
	projectID common.Hash,
	metaURI string,
) (*protocol.Event, error) {
	proj, err := p.authorizeProject(ctx, sm, projectID)
	if err != nil {
		return nil, err
	}
	if metaURI == "" {
		return nil, errors.Wrap(protocol.ErrEmptyMeta, "project meta URI")
	}
	proj.MetaURI = metaURI
	if err := sm.PutState(StateNamespace, projectKey(projectID), proj); err != nil {
		return nil, err
	}
	return protocol.NewEvent(EventProjectUpdated, projectID), nil
}

// authorizeAccount loads an account and checks the caller is a member. Unknown accounts
// resolve to err-not-member.
func (p *Protocol) authorizeAccount(
	ctx context.Context,
	sm protocol.StateManager,
	accountID common.Hash,
) (*Account, error) {
	cc := protocol.MustGetCallCtx(ctx)
	acct, err := p.Account(sm, accountID)
	if err != nil {
		if errors.Cause(err) == protocol.ErrNotExist {
			return nil, errors.Wrapf(protocol.ErrNotMember, "account %x", accountID)
		}
		return nil, err
	}
	if !acct.Members.Has(cc.Caller) {
		return nil, errors.Wrapf(protocol.ErrNotMember, "caller %x", cc.Caller)
	}
	return acct, nil
}

// authorizeProject loads a project and checks the caller is a member of the owning account.
// Unknown projects resolve to err-not-exist.
func (p *Protocol) authorizeProject(
	ctx context.Context,
	sm protocol.StateManager,
	projectID common.Hash,
) (*Project, error) {
	cc := protocol.MustGetCallCtx(ctx)
	proj, err := p.Project(sm, projectID)
	if err != nil {
		return nil, err
	}
	acct, err := p.Account(sm, proj.AccountID)
	if err != nil {
		return nil, err
	}
	if !acct.Members.Has(cc.Caller) {
		return nil, errors.Wrapf(protocol.ErrNotMember, "caller %x", cc.Caller)
	}
	return proj, nil
}

// AuthorizeProjectAdmin checks that caller is a member of the account owning projectID.
// It is the membership predicate consumed by the license protocol.
func (p *Protocol) AuthorizeProjectAdmin(
	sr protocol.StateReader,
	projectID common.Hash,
	caller common.Address,
) error {
	proj, err := p.Project(sr, projectID)
	if err != nil {
		return err
	}
	acct, err := p.Account(sr, proj.AccountID)
	if err != nil {
		return err
	}
	if !acct.Members.Has(caller) {
		return errors.Wrapf(protocol.ErrNotMember, "caller %x", caller)
	}
	return nil
}

// Account reads the account record of id
func (p *Protocol) Account(sr protocol.StateReader, id common.Hash) (*Account, error) {
	acct := &Account{}
	if err := sr.State(StateNamespace, accountKey(id), acct); err != nil {
		if errors.Cause(err) == ledger.ErrStateNotExist {
			return nil, errors.Wrapf(protocol.ErrNotExist, "account %x", id)
		}
		return nil, err
	}
	return acct, nil
}

// Project reads the project record of id
func (p *Protocol) Project(sr protocol.StateReader, id common.Hash) (*Project, error) {
	proj := &Project{}
	if err := sr.State(StateNamespace, projectKey(id), proj); err != nil {
		if errors.Cause(err) == ledger.ErrStateNotExist {
			return nil, errors.Wrapf(protocol.ErrNotExist, "project %x", id)
		}
		return nil, err
	}
	return proj, nil
}

// Release reads the release record of id
func (p *Protocol) Release(sr protocol.StateReader, id common.Hash) (*Release, error) {
	rel := &Release{}
	if err := sr.State(StateNamespace, releaseKey(id), rel); err != nil {
		if errors.Cause(err) == ledger.ErrStateNotExist {
			return nil, errors.Wrapf(protocol.ErrNotExist, "release %x", id)
		}
		return nil, err
	}
	return rel, nil
}
