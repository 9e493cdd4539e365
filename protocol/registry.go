// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/registree/registree-core/pkg/log"
)

// Registry is the hub of all protocols deployed on the ledger
type Registry struct {
	protocols sync.Map
}

// Register registers the protocol with a unique ID
func (r *Registry) Register(id string, p interface{}) error {
	_, loaded := r.protocols.LoadOrStore(id, p)
	if loaded {
		return errors.Errorf("protocol with ID %s is already registered", id)
	}
	return nil
}

// ForceRegister registers the protocol with a unique ID and force replacing the previous
// protocol if it exists
func (r *Registry) ForceRegister(id string, p interface{}) error {
	r.protocols.Store(id, p)
	return nil
}

// Find finds a protocol by ID
func (r *Registry) Find(id string) (interface{}, bool) {
	return r.protocols.Load(id)
}

// All returns all protocols
func (r *Registry) All() []interface{} {
	all := make([]interface{}, 0)
	r.protocols.Range(func(_, value interface{}) bool {
		all = append(all, value)
		return true
	})
	return all
}

// MustFind finds a protocol by ID and panics if it is not registered
func (r *Registry) MustFind(id string) interface{} {
	p, ok := r.Find(id)
	if !ok {
		log.S().Panicf("Protocol %s is not registered", id)
	}
	return p
}
