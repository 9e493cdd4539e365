// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package db

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/registree/registree-core/pkg/lifecycle"
)

var (
	// ErrBucketNotExist indicates certain bucket does not exist in db
	ErrBucketNotExist = errors.New("bucket not exist in DB")
	// ErrNotExist indicates certain item does not exist in db
	ErrNotExist = errors.New("not exist in DB")
	// ErrIO indicates the generic error of DB I/O operation
	ErrIO = errors.New("DB I/O operation error")
)

// KVStore is the interface of KV store.
type KVStore interface {
	lifecycle.StartStopper

	// Put inserts or updates a record identified by (namespace, key)
	Put(string, []byte, []byte) error
	// Get gets a record by (namespace, key)
	Get(string, []byte) ([]byte, error)
	// Delete deletes a record by (namespace, key)
	Delete(string, []byte) error
	// WriteBatch commits a batch atomically
	WriteBatch(KVStoreBatch) error
}

// memKVStore is the in-memory implementation of KVStore for testing purpose
type memKVStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemKVStore instantiates an in-memory KV store
func NewMemKVStore() KVStore {
	return &memKVStore{
		data: make(map[string]map[string][]byte),
	}
}

func (m *memKVStore) Start(_ context.Context) error { return nil }

func (m *memKVStore) Stop(_ context.Context) error { return nil }

// Put inserts a <key, value> record
func (m *memKVStore) Put(namespace string, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put(namespace, key, value)
}

func (m *memKVStore) put(namespace string, key, value []byte) error {
	bucket, ok := m.data[namespace]
	if !ok {
		bucket = make(map[string][]byte)
		m.data[namespace] = bucket
	}
	v := make([]byte, len(value))
	copy(v, value)
	bucket[string(key)] = v
	return nil
}

// Get retrieves a record
func (m *memKVStore) Get(namespace string, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bucket, ok := m.data[namespace]
	if !ok {
		return nil, errors.Wrapf(ErrBucketNotExist, "namespace = %s", namespace)
	}
	value, ok := bucket[string(key)]
	if !ok {
		return nil, errors.Wrapf(ErrNotExist, "key = %x", key)
	}
	v := make([]byte, len(value))
	copy(v, value)
	return v, nil
}

// Delete deletes a record
func (m *memKVStore) Delete(namespace string, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.data[namespace]
	if !ok {
		return nil
	}
	delete(bucket, string(key))
	return nil
}

// WriteBatch commits a batch
func (m *memKVStore) WriteBatch(batch KVStoreBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, write := range batch.Entries() {
		switch write.Type {
		case Put:
			if err := m.put(write.Namespace, write.Key, write.Value); err != nil {
				return err
			}
		case Delete:
			bucket, ok := m.data[write.Namespace]
			if ok {
				delete(bucket, string(write.Key))
			}
		}
	}
	batch.Clear()
	return nil
}
