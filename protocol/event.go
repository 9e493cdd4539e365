// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package protocol

import "github.com/ethereum/go-ethereum/common"

// Event is emitted by a successful operation. Name identifies the event kind and Topics carry
// the identifiers of the touched entities, most significant first.
type Event struct {
	Name   string
	Topics []common.Hash
}

// NewEvent creates an event with the given name and topics
func NewEvent(name string, topics ...common.Hash) *Event {
	return &Event{Name: name, Topics: topics}
}
