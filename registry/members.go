// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package registry

import "github.com/ethereum/go-ethereum/common"

// MemberSet is an order-irrelevant set of member addresses with O(1) membership test and
// O(1) removal (swap-remove over a dense array plus an index map). The dense array keeps
// serialization deterministic.
type MemberSet struct {
	addrs []common.Address
	index map[common.Address]int
}

// NewMemberSet creates a member set from the given addresses, skipping duplicates
func NewMemberSet(addrs ...common.Address) *MemberSet {
	s := &MemberSet{
		index: make(map[common.Address]int, len(addrs)),
	}
	for _, addr := range addrs {
		s.Add(addr)
	}
	return s
}

// Has returns whether addr is a member
func (s *MemberSet) Has(addr common.Address) bool {
	_, ok := s.index[addr]
	return ok
}

// Add adds addr into the set, returning false if it is already a member
func (s *MemberSet) Add(addr common.Address) bool {
	if s.Has(addr) {
		return false
	}
	s.index[addr] = len(s.addrs)
	s.addrs = append(s.addrs, addr)
	return true
}

// Remove removes addr from the set, returning false if it is not a member. The last element
// is swapped into the vacated slot.
func (s *MemberSet) Remove(addr common.Address) bool {
	i, ok := s.index[addr]
	if !ok {
		return false
	}
	last := len(s.addrs) - 1
	if i != last {
		s.addrs[i] = s.addrs[last]
		s.index[s.addrs[i]] = i
	}
	s.addrs = s.addrs[:last]
	delete(s.index, addr)
	return true
}

// Len returns the number of members
func (s *MemberSet) Len() int { return len(s.addrs) }

// Slice returns a copy of the member addresses
func (s *MemberSet) Slice() []common.Address {
	addrs := make([]common.Address, len(s.addrs))
	copy(addrs, s.addrs)
	return addrs
}
