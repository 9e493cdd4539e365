// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package db

import "sync"

// WriteType is the type of a write in a batch
type WriteType uint8

const (
	// Put denotes a put write
	Put WriteType = iota
	// Delete denotes a delete write
	Delete
)

// WriteInfo is the struct to store a write
type WriteInfo struct {
	Type      WriteType
	Namespace string
	Key       []byte
	Value     []byte
}

// KVStoreBatch defines a batch of writes applied atomically
type KVStoreBatch interface {
	// Put accumulates a put write into the batch
	Put(namespace string, key, value []byte)
	// Delete accumulates a delete write into the batch
	Delete(namespace string, key []byte)
	// Entries returns the accumulated writes in order
	Entries() []*WriteInfo
	// Size returns the number of accumulated writes
	Size() int
	// Clear drops the accumulated writes
	Clear()
}

// baseKVStoreBatch is the base implementation of KVStoreBatch
type baseKVStoreBatch struct {
	mu     sync.Mutex
	writes []*WriteInfo
}

// NewBatch returns a batch
func NewBatch() KVStoreBatch {
	return &baseKVStoreBatch{}
}

func (b *baseKVStoreBatch) Put(namespace string, key, value []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := make([]byte, len(key))
	copy(k, key)
	v := make([]byte, len(value))
	copy(v, value)
	b.writes = append(b.writes, &WriteInfo{Type: Put, Namespace: namespace, Key: k, Value: v})
}

func (b *baseKVStoreBatch) Delete(namespace string, key []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := make([]byte, len(key))
	copy(k, key)
	b.writes = append(b.writes, &WriteInfo{Type: Delete, Namespace: namespace, Key: k})
}

func (b *baseKVStoreBatch) Entries() []*WriteInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

func (b *baseKVStoreBatch) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.writes)
}

func (b *baseKVStoreBatch) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = nil
}
