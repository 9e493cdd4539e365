// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package testutil provides shared helpers for tests.
package testutil

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/registree/registree-core/pkg/util/byteutil"
)

// Address derives a deterministic test address from an index
func Address(i uint64) common.Address {
	h := crypto.Keccak256(byteutil.Uint64ToBytes(i))
	return common.BytesToAddress(h[12:])
}

// Addresses derives n deterministic test addresses, starting at index 1
func Addresses(n int) []common.Address {
	addrs := make([]common.Address, n)
	for i := range addrs {
		addrs[i] = Address(uint64(i + 1))
	}
	return addrs
}
