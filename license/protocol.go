// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package license implements the paid-access protocol layered on the registry: per-project
// prices in the native asset or tokens, purchase settlement with a protocol fee, soulbound
// license counts per holder, supply limits, and royalty info for off-ledger marketplaces.
package license

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/registree/registree-core/account"
	"github.com/registree/registree-core/ledger"
	"github.com/registree/registree-core/protocol"
	"github.com/registree/registree-core/registry"
)

const (
	// ProtocolID is the unique ID of the license protocol
	ProtocolID = "license"
	// StateNamespace is the state namespace of license records
	StateNamespace = "License"
	// MaxBPS is the basis-point denominator: 10000 = 100%
	MaxBPS = 10000
)

// Events emitted by the license protocol
const (
	EventPriceChanged       = "PriceChanged"
	EventLimitChanged       = "LimitChanged"
	EventRoyaltyChanged     = "RoyaltyChanged"
	EventProtocolFeeChanged = "ProtocolFeeChanged"
	EventProductPurchased   = "ProductPurchased"
	EventBalanceWithdrawn   = "BalanceWithdrawn"
)

var (
	_pricePrefix   = []byte("p")
	_balancePrefix = []byte("b")
	_limitPrefix   = []byte("l")
	_supplyPrefix  = []byte("s")
	_royaltyPrefix = []byte("y")
	_holderPrefix  = []byte("h")
	_feeKey        = []byte("f")
)

// Royalty is a project's resale royalty declaration. It only backs RoyaltyInfo; purchases
// settle the protocol fee, not the royalty.
type Royalty struct {
	Recipient common.Address
	BPS       uint64
}

// Protocol defines the license protocol
type Protocol struct {
	registry *registry.Protocol
	tokens   TokenLedger
	owner    common.Address
	feeBPS   uint64
}

// Option sets a protocol construction parameter
type Option func(*Protocol)

// WithProtocolFee sets the initial protocol fee in basis points; the owner can change it
// later via SetProtocolFee
func WithProtocolFee(bps uint64) Option {
	return func(p *Protocol) {
		p.feeBPS = bps
	}
}

// NewProtocol instantiates the license protocol. Proceeds net of the protocol fee accrue to
// the project; the fee itself is forwarded to owner at purchase time.
func NewProtocol(reg *registry.Protocol, tokens TokenLedger, owner common.Address, opts ...Option) *Protocol {
	p := &Protocol{
		registry: reg,
		tokens:   tokens,
		owner:    owner,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FindProtocol finds the license protocol in the hub
func FindProtocol(hub *protocol.Registry) *Protocol {
	p, ok := hub.Find(ProtocolID)
	if !ok {
		return nil
	}
	lp, ok := p.(*Protocol)
	if !ok {
		return nil
	}
	return lp
}

func priceKey(asset Asset, projectID common.Hash) []byte {
	k := append([]byte{}, _pricePrefix...)
	k = append(k, asset.key()...)
	return append(k, projectID[:]...)
}

func balanceKey(asset Asset, projectID common.Hash) []byte {
	k := append([]byte{}, _balancePrefix...)
	k = append(k, asset.key()...)
	return append(k, projectID[:]...)
}

func limitKey(projectID common.Hash) []byte  { return append(_limitPrefix, projectID[:]...) }
func supplyKey(projectID common.Hash) []byte { return append(_supplyPrefix, projectID[:]...) }

func royaltyKey(projectID common.Hash) []byte { return append(_royaltyPrefix, projectID[:]...) }

func holderKey(addr common.Address, projectID common.Hash) []byte {
	k := append([]byte{}, _holderPrefix...)
	k = append(k, addr[:]...)
	return append(k, projectID[:]...)
}

// SetPrice lists a project at price in the given asset; zero delists it. Only members of the
// account owning the project may call.
func (p *Protocol) SetPrice(
	ctx context.Context,
	sm protocol.StateManager,
	asset Asset,
	projectID common.Hash,
	price *big.Int,
) (*protocol.Event, error) {
	cc := protocol.MustGetCallCtx(ctx)
	if err := p.registry.AuthorizeProjectAdmin(sm, projectID, cc.Caller); err != nil {
		return nil, err
	}
	if price == nil {
		price = new(big.Int)
	}
	if price.Sign() < 0 {
		return nil, errors.Wrapf(protocol.ErrPrice, "negative price %s", price)
	}
	if err := sm.PutState(StateNamespace, priceKey(asset, projectID), price); err != nil {
		return nil, err
	}
	return protocol.NewEvent(EventPriceChanged, projectID), nil
}

// SetLimit caps a project's total license supply; zero means unlimited. The cap cannot fall
// below what has already been sold.
func (p *Protocol) SetLimit(
	ctx context.Context,
	sm protocol.StateManager,
	projectID common.Hash,
	limit uint64,
) (*protocol.Event, error) {
	cc := protocol.MustGetCallCtx(ctx)
	if err := p.registry.AuthorizeProjectAdmin(sm, projectID, cc.Caller); err != nil {
		return nil, err
	}
	supply, err := p.Supply(sm, projectID)
	if err != nil {
		return nil, err
	}
	if limit != 0 && limit < supply {
		return nil, errors.Wrapf(protocol.ErrLimit, "limit %d below supply %d", limit, supply)
	}
	if err := sm.PutState(StateNamespace, limitKey(projectID), limit); err != nil {
		return nil, err
	}
	return protocol.NewEvent(EventLimitChanged, projectID), nil
}

// SetRoyalty declares a project's resale royalty as recipient and basis points
func (p *Protocol) SetRoyalty(
	ctx context.Context,
	sm protocol.StateManager,
	projectID common.Hash,
	recipient common.Address,
	bps uint64,
) (*protocol.Event, error) {
	cc := protocol.MustGetCallCtx(ctx)
	if err := p.registry.AuthorizeProjectAdmin(sm, projectID, cc.Caller); err != nil {
		return nil, err
	}
	if bps > MaxBPS {
		return nil, errors.Wrapf(protocol.ErrBps, "royalty %d basis points", bps)
	}
	royalty := &Royalty{Recipient: recipient, BPS: bps}
	if err := sm.PutState(StateNamespace, royaltyKey(projectID), royalty); err != nil {
		return nil, err
	}
	return protocol.NewEvent(EventRoyaltyChanged, projectID, common.BytesToHash(recipient[:])), nil
}

// SetProtocolFee changes the fee taken from every purchase. Only the protocol owner may
// call.
func (p *Protocol) SetProtocolFee(
	ctx context.Context,
	sm protocol.StateManager,
	bps uint64,
) (*protocol.Event, error) {
	cc := protocol.MustGetCallCtx(ctx)
	if cc.Caller != p.owner {
		return nil, errors.Wrapf(protocol.ErrNotAllowed, "caller %x is not the protocol owner", cc.Caller)
	}
	if bps > MaxBPS {
		return nil, errors.Wrapf(protocol.ErrBps, "protocol fee %d basis points", bps)
	}
	if err := sm.PutState(StateNamespace, _feeKey, bps); err != nil {
		return nil, err
	}
	return protocol.NewEvent(EventProtocolFeeChanged), nil
}

// Purchase buys one license for recipient, settling in the given asset. Native purchases
// attach exactly the price as call value; token purchases pull the price from the caller's
// prior approval to ModuleAddress. The protocol fee is forwarded to the owner immediately
// and the remainder accrues to the project's withdrawable balance.
func (p *Protocol) Purchase(
	ctx context.Context,
	sm protocol.StateManager,
	asset Asset,
	projectID common.Hash,
	recipient common.Address,
) (*protocol.Event, error) {
	cc := protocol.MustGetCallCtx(ctx)
	price, err := p.Price(sm, asset, projectID)
	if err != nil {
		return nil, err
	}
	if price.Sign() == 0 {
		return nil, errors.Wrapf(protocol.ErrPrice, "project %x is not listed in %s", projectID, asset)
	}
	if asset.IsNative() {
		if cc.CallValue().Cmp(price) != 0 {
			return nil, errors.Wrapf(protocol.ErrPrice, "attached %s, price %s", cc.CallValue(), price)
		}
	} else if cc.CallValue().Sign() != 0 {
		return nil, errors.Wrap(protocol.ErrPrice, "native value attached to a token purchase")
	}
	limit, err := p.Limit(sm, projectID)
	if err != nil {
		return nil, err
	}
	supply, err := p.Supply(sm, projectID)
	if err != nil {
		return nil, err
	}
	if limit != 0 && supply >= limit {
		return nil, errors.Wrapf(protocol.ErrLimit, "supply %d reached limit %d", supply, limit)
	}
	fee, err := p.protocolFee(sm, price)
	if err != nil {
		return nil, err
	}
	if asset.IsNative() {
		if err := account.Transfer(sm, cc.Caller, ModuleAddress, price); err != nil {
			return nil, err
		}
		if fee.Sign() > 0 {
			if err := account.Transfer(sm, ModuleAddress, p.owner, fee); err != nil {
				return nil, err
			}
		}
	} else {
		token := asset.Token()
		if err := p.tokens.TransferFrom(sm, token, ModuleAddress, cc.Caller, ModuleAddress, price); err != nil {
			return nil, err
		}
		if fee.Sign() > 0 {
			if err := p.tokens.Transfer(sm, token, ModuleAddress, p.owner, fee); err != nil {
				return nil, err
			}
		}
	}
	balance, err := p.Balance(sm, asset, projectID)
	if err != nil {
		return nil, err
	}
	balance.Add(balance, new(big.Int).Sub(price, fee))
	if err := sm.PutState(StateNamespace, balanceKey(asset, projectID), balance); err != nil {
		return nil, err
	}
	if err := sm.PutState(StateNamespace, supplyKey(projectID), supply+1); err != nil {
		return nil, err
	}
	held, err := p.BalanceOf(sm, recipient, projectID)
	if err != nil {
		return nil, err
	}
	if err := sm.PutState(StateNamespace, holderKey(recipient, projectID), held+1); err != nil {
		return nil, err
	}
	return protocol.NewEvent(EventProductPurchased, projectID, common.BytesToHash(recipient[:])), nil
}

// Withdraw drains a project's withdrawable balance in the given asset to to. A zero balance
// is a no-op, not an error.
func (p *Protocol) Withdraw(
	ctx context.Context,
	sm protocol.StateManager,
	asset Asset,
	projectID common.Hash,
	to common.Address,
) (*protocol.Event, error) {
	cc := protocol.MustGetCallCtx(ctx)
	if err := p.registry.AuthorizeProjectAdmin(sm, projectID, cc.Caller); err != nil {
		return nil, err
	}
	balance, err := p.Balance(sm, asset, projectID)
	if err != nil {
		return nil, err
	}
	if balance.Sign() > 0 {
		if asset.IsNative() {
			if err := account.Transfer(sm, ModuleAddress, to, balance); err != nil {
				return nil, err
			}
		} else if err := p.tokens.Transfer(sm, asset.Token(), ModuleAddress, to, balance); err != nil {
			return nil, err
		}
		if err := sm.PutState(StateNamespace, balanceKey(asset, projectID), new(big.Int)); err != nil {
			return nil, err
		}
	}
	return protocol.NewEvent(EventBalanceWithdrawn, projectID, common.BytesToHash(to[:])), nil
}

// protocolFee computes the fee on price from the current fee rate
func (p *Protocol) protocolFee(sr protocol.StateReader, price *big.Int) (*big.Int, error) {
	bps, err := p.ProtocolFee(sr)
	if err != nil {
		return nil, err
	}
	fee := new(big.Int).SetUint64(bps)
	fee.Mul(fee, price)
	return fee.Div(fee, big.NewInt(MaxBPS)), nil
}

// ProtocolFee returns the current protocol fee in basis points
func (p *Protocol) ProtocolFee(sr protocol.StateReader) (uint64, error) {
	bps, ok, err := p.loadUint64(sr, _feeKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return p.feeBPS, nil
	}
	return bps, nil
}

// Price returns a project's price in the given asset, zero when unlisted
func (p *Protocol) Price(sr protocol.StateReader, asset Asset, projectID common.Hash) (*big.Int, error) {
	return p.loadBigInt(sr, priceKey(asset, projectID))
}

// Balance returns a project's withdrawable balance in the given asset
func (p *Protocol) Balance(sr protocol.StateReader, asset Asset, projectID common.Hash) (*big.Int, error) {
	return p.loadBigInt(sr, balanceKey(asset, projectID))
}

// Supply returns the number of licenses sold for a project
func (p *Protocol) Supply(sr protocol.StateReader, projectID common.Hash) (uint64, error) {
	supply, _, err := p.loadUint64(sr, supplyKey(projectID))
	return supply, err
}

// Limit returns a project's supply cap, zero meaning unlimited
func (p *Protocol) Limit(sr protocol.StateReader, projectID common.Hash) (uint64, error) {
	limit, _, err := p.loadUint64(sr, limitKey(projectID))
	return limit, err
}

// BalanceOf returns the number of licenses addr holds for a project. Licenses are soulbound:
// the count only grows through purchases for addr.
func (p *Protocol) BalanceOf(sr protocol.StateReader, addr common.Address, projectID common.Hash) (uint64, error) {
	held, _, err := p.loadUint64(sr, holderKey(addr, projectID))
	return held, err
}

// RoyaltyInfo returns who receives the resale royalty on a sale at salePrice and how much
func (p *Protocol) RoyaltyInfo(sr protocol.StateReader, projectID common.Hash, salePrice *big.Int) (common.Address, *big.Int, error) {
	royalty := &Royalty{}
	switch err := sr.State(StateNamespace, royaltyKey(projectID), royalty); errors.Cause(err) {
	case nil:
	case ledger.ErrStateNotExist:
		return common.Address{}, new(big.Int), nil
	default:
		return common.Address{}, nil, err
	}
	amount := new(big.Int).SetUint64(royalty.BPS)
	amount.Mul(amount, salePrice)
	return royalty.Recipient, amount.Div(amount, big.NewInt(MaxBPS)), nil
}

func (p *Protocol) loadBigInt(sr protocol.StateReader, key []byte) (*big.Int, error) {
	amount := new(big.Int)
	switch err := sr.State(StateNamespace, key, amount); errors.Cause(err) {
	case nil:
		return amount, nil
	case ledger.ErrStateNotExist:
		return new(big.Int), nil
	default:
		return nil, err
	}
}

func (p *Protocol) loadUint64(sr protocol.StateReader, key []byte) (uint64, bool, error) {
	var v uint64
	switch err := sr.State(StateNamespace, key, &v); errors.Cause(err) {
	case nil:
		return v, true, nil
	case ledger.ErrStateNotExist:
		return 0, false, nil
	default:
		return 0, false, err
	}
}
