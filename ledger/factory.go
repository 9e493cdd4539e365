// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package ledger

import (
	"context"

	"github.com/pkg/errors"

	"github.com/registree/registree-core/db"
	"github.com/registree/registree-core/pkg/lifecycle"
)

// ErrInvalidWorkingSet indicates a working set created by a different factory
var ErrInvalidWorkingSet = errors.New("invalid working set")

// Factory defines an interface for the state factory backing the ledger
type Factory interface {
	lifecycle.StartStopper

	// NewWorkingSet creates a working set over the committed state
	NewWorkingSet() (WorkingSet, error)
	// Commit commits a working set atomically
	Commit(WorkingSet) error
	// State reads a committed state
	State(ns string, key []byte, s interface{}) error
}

type factory struct {
	lc lifecycle.Lifecycle
	kv db.KVStore
}

// NewFactory creates a state factory over the given KV store
func NewFactory(kv db.KVStore) Factory {
	f := &factory{kv: kv}
	f.lc.Add(kv)
	return f
}

func (f *factory) Start(ctx context.Context) error { return f.lc.OnStart(ctx) }

func (f *factory) Stop(ctx context.Context) error { return f.lc.OnStop(ctx) }

func (f *factory) NewWorkingSet() (WorkingSet, error) {
	return newWorkingSet(f.kv), nil
}

func (f *factory) Commit(ws WorkingSet) error {
	w, ok := ws.(*workingSet)
	if !ok || w.kv != f.kv {
		return ErrInvalidWorkingSet
	}
	return w.commit()
}

func (f *factory) State(ns string, key []byte, s interface{}) error {
	data, err := f.kv.Get(ns, key)
	if err != nil {
		cause := errors.Cause(err)
		if cause == db.ErrNotExist || cause == db.ErrBucketNotExist {
			return errors.Wrapf(ErrStateNotExist, "ns = %s key = %x", ns, key)
		}
		return err
	}
	return Deserialize(s, data)
}
