// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package license

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Asset identifies a settlement asset: either the ledger's native value or a token contract
// address. Prices, balances, and purchases are all keyed per asset, so a project can list in
// several assets at once.
type Asset struct {
	token  common.Address
	native bool
}

// NativeAsset returns the native settlement asset
func NativeAsset() Asset {
	return Asset{native: true}
}

// TokenAsset returns the settlement asset backed by the token at addr
func TokenAsset(addr common.Address) Asset {
	return Asset{token: addr}
}

// IsNative returns whether the asset is the native one
func (a Asset) IsNative() bool { return a.native }

// Token returns the token address of a non-native asset
func (a Asset) Token() common.Address { return a.token }

// key returns the asset's state-key segment. The native asset and a token asset can never
// collide: the leading tag byte differs.
func (a Asset) key() []byte {
	if a.native {
		return []byte{0x00}
	}
	return append([]byte{0x01}, a.token[:]...)
}

func (a Asset) String() string {
	if a.native {
		return "native"
	}
	return fmt.Sprintf("token:%x", a.token)
}
