// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package identity derives the content-addressable identifiers of the registry hierarchy.
// An identifier is the Keccak-256 digest of the parent identifier (32 bytes, big-endian)
// concatenated with the Keccak-256 digest of the UTF-8 name, no separator. Account
// identifiers use the chain identifier as the synthetic parent, so the same name yields
// different identifiers on different networks.
package identity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// GenerateID deterministically combines a parent identifier and a name into an identifier.
// The name is hashed before packing, so names of any length pack into a fixed 64-byte
// preimage.
func GenerateID(parent common.Hash, name string) common.Hash {
	return crypto.Keccak256Hash(parent[:], crypto.Keccak256([]byte(name)))
}

// ChainID converts a numeric chain identifier into the 32-byte parent of account identifiers
func ChainID(id uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(id))
}
