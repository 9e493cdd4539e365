// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/registree/registree-core/pkg/log"
)

type callCtxKey struct{}

// CallCtx provides a protocol operation with auxiliary information about the call.
type CallCtx struct {
	// Caller is the authenticated address invoking the operation
	Caller common.Address
	// Value is the native value attached to the call, nil means zero
	Value *big.Int
	// ChainID is the 32-byte identifier of the hosting chain/network
	ChainID common.Hash
}

// WithCallCtx adds CallCtx into context.
func WithCallCtx(ctx context.Context, cc CallCtx) context.Context {
	return context.WithValue(ctx, callCtxKey{}, cc)
}

// GetCallCtx gets the call context.
func GetCallCtx(ctx context.Context) (CallCtx, bool) {
	cc, ok := ctx.Value(callCtxKey{}).(CallCtx)
	return cc, ok
}

// MustGetCallCtx must get the call context. If the call context doesn't exist, a panic will
// be thrown.
func MustGetCallCtx(ctx context.Context) CallCtx {
	cc, ok := GetCallCtx(ctx)
	if !ok {
		log.S().Panic("Miss call context")
	}
	return cc
}

// CallValue returns the attached native value, zero if none was attached.
func (cc CallCtx) CallValue() *big.Int {
	if cc.Value == nil {
		return new(big.Int)
	}
	return cc.Value
}
