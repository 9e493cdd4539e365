// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package ledger

import (
	"github.com/pkg/errors"

	"github.com/registree/registree-core/db"
)

// WorkingSet defines an interface for working set of states. All writes are buffered until the
// working set commits, so a failed operation leaves the committed state untouched.
type WorkingSet interface {
	// State reads a state from the working set, falling back to committed state
	State(ns string, key []byte, s interface{}) error
	// PutState writes a state into the working set buffer
	PutState(ns string, key []byte, s interface{}) error
}

type workingSet struct {
	kv    db.KVStore
	cache map[string]map[string][]byte
	batch db.KVStoreBatch
}

func newWorkingSet(kv db.KVStore) *workingSet {
	return &workingSet{
		kv:    kv,
		cache: make(map[string]map[string][]byte),
		batch: db.NewBatch(),
	}
}

// State reads the state identified by (ns, key), preferring uncommitted writes
func (ws *workingSet) State(ns string, key []byte, s interface{}) error {
	if bucket, ok := ws.cache[ns]; ok {
		if data, ok := bucket[string(key)]; ok {
			return Deserialize(s, data)
		}
	}
	data, err := ws.kv.Get(ns, key)
	if err != nil {
		cause := errors.Cause(err)
		if cause == db.ErrNotExist || cause == db.ErrBucketNotExist {
			return errors.Wrapf(ErrStateNotExist, "ns = %s key = %x", ns, key)
		}
		return err
	}
	return Deserialize(s, data)
}

// PutState buffers the state identified by (ns, key)
func (ws *workingSet) PutState(ns string, key []byte, s interface{}) error {
	data, err := Serialize(s)
	if err != nil {
		return err
	}
	bucket, ok := ws.cache[ns]
	if !ok {
		bucket = make(map[string][]byte)
		ws.cache[ns] = bucket
	}
	bucket[string(key)] = data
	ws.batch.Put(ns, key, data)
	return nil
}

// commit flushes the buffered writes in one atomic batch
func (ws *workingSet) commit() error {
	return ws.kv.WriteBatch(ws.batch)
}
