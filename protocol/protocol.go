// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package protocol provides the shared plumbing for the ledger protocols: the call context
// carrying the authenticated caller, the revert-reason errors of the public surface, the state
// access interfaces, and the protocol hub.
package protocol

// StateReader defines read-only access to ledger state
type StateReader interface {
	// State reads a state identified by (namespace, key)
	State(ns string, key []byte, s interface{}) error
}

// StateManager defines read-write access to ledger state
type StateManager interface {
	StateReader

	// PutState writes a state identified by (namespace, key)
	PutState(ns string, key []byte, s interface{}) error
}
