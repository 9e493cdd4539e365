// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package license

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/registree/registree-core/ledger"
	"github.com/registree/registree-core/protocol"
)

// ModuleAddress is the escrow address holding purchase proceeds until withdrawal. It is
// derived from a fixed tag, so no key pair controls it.
var ModuleAddress = func() common.Address {
	h := crypto.Keccak256([]byte("registree/license/escrow"))
	return common.BytesToAddress(h[12:])
}()

var (
	// ErrNotEnoughToken indicates a token transfer exceeding the sender's balance
	ErrNotEnoughToken = errors.New("not enough token balance")
	// ErrNotEnoughAllowance indicates a delegated transfer exceeding the spender's allowance
	ErrNotEnoughAllowance = errors.New("not enough token allowance")
)

// TokenLedger moves token balances on behalf of the license protocol. Purchases pull the
// full price from the buyer via TransferFrom with ModuleAddress as the spender, so buyers
// approve ModuleAddress before purchasing.
type TokenLedger interface {
	// BalanceOf returns addr's balance of token
	BalanceOf(sr protocol.StateReader, token common.Address, addr common.Address) (*big.Int, error)
	// Transfer moves amount of token from from to to
	Transfer(sm protocol.StateManager, token common.Address, from, to common.Address, amount *big.Int) error
	// TransferFrom moves amount of token from from to to, drawing down spender's allowance
	TransferFrom(sm protocol.StateManager, token common.Address, spender, from, to common.Address, amount *big.Int) error
}

// TokenNamespace is the state namespace of the in-ledger token bank
const TokenNamespace = "Token"

var (
	_tokenBalancePrefix   = []byte("b")
	_tokenAllowancePrefix = []byte("a")
)

func tokenBalanceKey(token, addr common.Address) []byte {
	k := append([]byte{}, _tokenBalancePrefix...)
	k = append(k, token[:]...)
	return append(k, addr[:]...)
}

func tokenAllowanceKey(token, owner, spender common.Address) []byte {
	k := append([]byte{}, _tokenAllowancePrefix...)
	k = append(k, token[:]...)
	k = append(k, owner[:]...)
	return append(k, spender[:]...)
}

// MemoryToken is a TokenLedger over ledger state: balances and allowances per token address,
// with mint and approve entry points for funding flows and tests.
type MemoryToken struct{}

// NewMemoryToken creates an in-ledger token bank
func NewMemoryToken() *MemoryToken {
	return &MemoryToken{}
}

func (mt *MemoryToken) loadAmount(sr protocol.StateReader, key []byte) (*big.Int, error) {
	amount := new(big.Int)
	switch err := sr.State(TokenNamespace, key, amount); errors.Cause(err) {
	case nil:
		return amount, nil
	case ledger.ErrStateNotExist:
		return new(big.Int), nil
	default:
		return nil, err
	}
}

// BalanceOf returns addr's balance of token
func (mt *MemoryToken) BalanceOf(sr protocol.StateReader, token common.Address, addr common.Address) (*big.Int, error) {
	return mt.loadAmount(sr, tokenBalanceKey(token, addr))
}

// Allowance returns what spender may still draw from owner's balance of token
func (mt *MemoryToken) Allowance(sr protocol.StateReader, token common.Address, owner, spender common.Address) (*big.Int, error) {
	return mt.loadAmount(sr, tokenAllowanceKey(token, owner, spender))
}

// Mint credits amount of token to to
func (mt *MemoryToken) Mint(sm protocol.StateManager, token common.Address, to common.Address, amount *big.Int) error {
	balance, err := mt.BalanceOf(sm, token, to)
	if err != nil {
		return err
	}
	return sm.PutState(TokenNamespace, tokenBalanceKey(token, to), balance.Add(balance, amount))
}

// Approve lets spender draw up to amount from owner's balance of token
func (mt *MemoryToken) Approve(sm protocol.StateManager, token common.Address, owner, spender common.Address, amount *big.Int) error {
	return sm.PutState(TokenNamespace, tokenAllowanceKey(token, owner, spender), amount)
}

// Transfer moves amount of token from from to to
func (mt *MemoryToken) Transfer(sm protocol.StateManager, token common.Address, from, to common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	fromBalance, err := mt.BalanceOf(sm, token, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return errors.Wrapf(ErrNotEnoughToken, "%x has %s, needs %s", from, fromBalance, amount)
	}
	toBalance, err := mt.BalanceOf(sm, token, to)
	if err != nil {
		return err
	}
	if err := sm.PutState(TokenNamespace, tokenBalanceKey(token, from), fromBalance.Sub(fromBalance, amount)); err != nil {
		return err
	}
	return sm.PutState(TokenNamespace, tokenBalanceKey(token, to), toBalance.Add(toBalance, amount))
}

// TransferFrom moves amount of token from from to to, drawing down spender's allowance
func (mt *MemoryToken) TransferFrom(sm protocol.StateManager, token common.Address, spender, from, to common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	allowance, err := mt.Allowance(sm, token, from, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return errors.Wrapf(ErrNotEnoughAllowance, "%x allows %x %s, needs %s", from, spender, allowance, amount)
	}
	if err := mt.Transfer(sm, token, from, to, amount); err != nil {
		return err
	}
	return sm.PutState(TokenNamespace, tokenAllowanceKey(token, from, spender), allowance.Sub(allowance, amount))
}
