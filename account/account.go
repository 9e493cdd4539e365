// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package account keeps the native asset balances of external addresses. It is the ledger
// the license protocol settles native purchases and withdrawals against.
package account

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/registree/registree-core/ledger"
	"github.com/registree/registree-core/protocol"
)

// StateNamespace is the state namespace of native accounts
const StateNamespace = "Account"

var (
	// ErrNotEnoughBalance indicates the account balance is lower than the amount to spend
	ErrNotEnoughBalance = errors.New("not enough balance")
	// ErrInvalidAmount indicates a nil or negative amount
	ErrInvalidAmount = errors.New("invalid amount")
)

// Account is the canonical representation of a native asset account
type Account struct {
	Nonce   uint64
	Balance *big.Int
}

// AddBalance adds balance to the account
func (a *Account) AddBalance(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.Wrapf(ErrInvalidAmount, "amount = %v", amount)
	}
	a.Balance.Add(a.Balance, amount)
	return nil
}

// SubBalance subtracts balance from the account
func (a *Account) SubBalance(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.Wrapf(ErrInvalidAmount, "amount = %v", amount)
	}
	if amount.Cmp(a.Balance) > 0 {
		return ErrNotEnoughBalance
	}
	a.Balance.Sub(a.Balance, amount)
	return nil
}

// LoadAccount loads the account of addr, returning an empty account if it does not exist yet
func LoadAccount(sr protocol.StateReader, addr common.Address) (*Account, error) {
	acct := &Account{}
	if err := sr.State(StateNamespace, addr[:], acct); err != nil {
		if errors.Cause(err) == ledger.ErrStateNotExist {
			return &Account{Balance: new(big.Int)}, nil
		}
		return nil, err
	}
	if acct.Balance == nil {
		acct.Balance = new(big.Int)
	}
	return acct, nil
}

// StoreAccount stores the account of addr
func StoreAccount(sm protocol.StateManager, addr common.Address, acct *Account) error {
	return sm.PutState(StateNamespace, addr[:], acct)
}

// Deposit credits amount to addr out of thin air. It is the genesis/faucet primitive the host
// environment uses to fund accounts.
func Deposit(sm protocol.StateManager, addr common.Address, amount *big.Int) error {
	acct, err := LoadAccount(sm, addr)
	if err != nil {
		return err
	}
	if err := acct.AddBalance(amount); err != nil {
		return err
	}
	return StoreAccount(sm, addr, acct)
}

// Transfer moves amount from one address to another
func Transfer(sm protocol.StateManager, from, to common.Address, amount *big.Int) error {
	sender, err := LoadAccount(sm, from)
	if err != nil {
		return err
	}
	if err := sender.SubBalance(amount); err != nil {
		return err
	}
	if err := StoreAccount(sm, from, sender); err != nil {
		return err
	}
	recipient, err := LoadAccount(sm, to)
	if err != nil {
		return err
	}
	if err := recipient.AddBalance(amount); err != nil {
		return err
	}
	return StoreAccount(sm, to, recipient)
}
