// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package registry

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// Account is a top-level namespace record. Name is immutable once claimed; the member set
// stays non-empty for the whole lifetime of the record.
type Account struct {
	Name        string
	MetaURI     string
	Beneficiary common.Address
	Members     *MemberSet
}

type accountRLP struct {
	Name        string
	MetaURI     string
	Beneficiary common.Address
	Members     []common.Address
}

// Serialize serializes the account record into bytes
func (a *Account) Serialize() ([]byte, error) {
	return rlp.EncodeToBytes(&accountRLP{
		Name:        a.Name,
		MetaURI:     a.MetaURI,
		Beneficiary: a.Beneficiary,
		Members:     a.Members.Slice(),
	})
}

// Deserialize deserializes bytes into the account record
func (a *Account) Deserialize(data []byte) error {
	gen := accountRLP{}
	if err := rlp.DecodeBytes(data, &gen); err != nil {
		return err
	}
	a.Name = gen.Name
	a.MetaURI = gen.MetaURI
	a.Beneficiary = gen.Beneficiary
	a.Members = NewMemberSet(gen.Members...)
	return nil
}

// Project is a named package within an account. Unlike accounts, the member set may be
// empty (open projects).
type Project struct {
	AccountID common.Hash
	Name      string
	MetaURI   string
	Members   *MemberSet
}

type projectRLP struct {
	AccountID common.Hash
	Name      string
	MetaURI   string
	Members   []common.Address
}

// Serialize serializes the project record into bytes
func (p *Project) Serialize() ([]byte, error) {
	return rlp.EncodeToBytes(&projectRLP{
		AccountID: p.AccountID,
		Name:      p.Name,
		MetaURI:   p.MetaURI,
		Members:   p.Members.Slice(),
	})
}

// Deserialize deserializes bytes into the project record
func (p *Project) Deserialize(data []byte) error {
	gen := projectRLP{}
	if err := rlp.DecodeBytes(data, &gen); err != nil {
		return err
	}
	p.AccountID = gen.AccountID
	p.Name = gen.Name
	p.MetaURI = gen.MetaURI
	p.Members = NewMemberSet(gen.Members...)
	return nil
}

// Release is an immutable-once-created version record within a project. Approval and
// revocation are independent flags, not a linear state machine.
type Release struct {
	ProjectID common.Hash
	Name      string
	MetaURI   string
	Approved  bool
	Revoked   bool
}
