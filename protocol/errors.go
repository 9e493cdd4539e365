// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package protocol

import "github.com/pkg/errors"

// Revert reasons of the public operation surface. External tooling and indexers key off these
// strings verbatim, so they must never change. Operations wrap them with context; callers
// compare with errors.Cause.
var (
	// ErrEmptyName indicates an empty name field
	ErrEmptyName = errors.New("err-empty-name")
	// ErrEmptyMeta indicates an empty metadata URI
	ErrEmptyMeta = errors.New("err-empty-meta")
	// ErrEmptyMembers indicates an empty member list where one is required
	ErrEmptyMembers = errors.New("err-empty-members")
	// ErrNameClaimed indicates the name is already claimed under the same parent
	ErrNameClaimed = errors.New("err-name-claimed")
	// ErrNotMember indicates the caller is not a member of the authorizing set
	ErrNotMember = errors.New("err-not-member")
	// ErrNotExist indicates the referenced entity does not exist
	ErrNotExist = errors.New("err-not-exist")
	// ErrMemberExist indicates the address is already a member
	ErrMemberExist = errors.New("err-member-exist")
	// ErrMemberNotExist indicates the address is not a member
	ErrMemberNotExist = errors.New("err-member-not-exist")
	// ErrPrice indicates a missing price or a payment not equal to the price
	ErrPrice = errors.New("err-price")
	// ErrLimit indicates the supply limit is reached or an invalid new limit
	ErrLimit = errors.New("err-limit")
	// ErrBps indicates a fee or royalty above 10000 basis points
	ErrBps = errors.New("err-bps")
	// ErrNotAllowed indicates the caller is not allowed to perform the operation
	ErrNotAllowed = errors.New("err-not-allowed")
)
