// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package db

import (
	"context"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/registree/registree-core/pkg/lifecycle"
	"github.com/registree/registree-core/pkg/log"
)

const _fileMode = 0600

// boltDB is KVStore implementation based bolt DB
type boltDB struct {
	db     *bolt.DB
	path   string
	config Config
	ready  lifecycle.Readiness
}

// NewBoltDB instantiates an BoltDB with implements KVStore
func NewBoltDB(cfg Config) KVStore {
	return &boltDB{
		path:   cfg.DbPath,
		config: cfg,
	}
}

// Start opens the BoltDB (creates new file if not existing yet)
func (b *boltDB) Start(_ context.Context) error {
	db, err := bolt.Open(b.path, _fileMode, nil)
	if err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	b.db = db
	return b.ready.TurnOn()
}

// Stop closes the BoltDB
func (b *boltDB) Stop(_ context.Context) error {
	if err := b.ready.TurnOff(); err != nil {
		return err
	}
	if err := b.db.Close(); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}

// Put inserts a <key, value> record
func (b *boltDB) Put(namespace string, key, value []byte) (err error) {
	if !b.ready.IsReady() {
		return ErrIO
	}
	for c := uint8(0); c < b.config.NumRetries; c++ {
		if err = b.db.Update(func(tx *bolt.Tx) error {
			bucket, err := tx.CreateBucketIfNotExists([]byte(namespace))
			if err != nil {
				return err
			}
			return bucket.Put(key, value)
		}); err == nil {
			break
		}
	}
	if err != nil {
		err = errors.Wrap(ErrIO, err.Error())
	}
	return err
}

// Get retrieves a record
func (b *boltDB) Get(namespace string, key []byte) ([]byte, error) {
	if !b.ready.IsReady() {
		return nil, ErrIO
	}
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			return errors.Wrapf(ErrBucketNotExist, "bucket = %x", []byte(namespace))
		}
		v := bucket.Get(key)
		if v == nil {
			return errors.Wrapf(ErrNotExist, "key = %x", key)
		}
		value = make([]byte, len(v))
		copy(value, v)
		return nil
	})
	if err == nil {
		return value, nil
	}
	cause := errors.Cause(err)
	if cause == ErrNotExist || cause == ErrBucketNotExist {
		return nil, err
	}
	return nil, errors.Wrap(ErrIO, err.Error())
}

// Delete deletes a record
func (b *boltDB) Delete(namespace string, key []byte) (err error) {
	if !b.ready.IsReady() {
		return ErrIO
	}
	for c := uint8(0); c < b.config.NumRetries; c++ {
		if err = b.db.Update(func(tx *bolt.Tx) error {
			bucket := tx.Bucket([]byte(namespace))
			if bucket == nil {
				return nil
			}
			return bucket.Delete(key)
		}); err == nil {
			break
		}
	}
	if err != nil {
		err = errors.Wrap(ErrIO, err.Error())
	}
	return err
}

// WriteBatch commits a batch in a single transaction
func (b *boltDB) WriteBatch(batch KVStoreBatch) (err error) {
	if !b.ready.IsReady() {
		return ErrIO
	}
	for c := uint8(0); c < b.config.NumRetries; c++ {
		if err = b.db.Update(func(tx *bolt.Tx) error {
			for _, write := range batch.Entries() {
				switch write.Type {
				case Put:
					bucket, err := tx.CreateBucketIfNotExists([]byte(write.Namespace))
					if err != nil {
						return err
					}
					if err := bucket.Put(write.Key, write.Value); err != nil {
						return err
					}
				case Delete:
					bucket := tx.Bucket([]byte(write.Namespace))
					if bucket == nil {
						continue
					}
					if err := bucket.Delete(write.Key); err != nil {
						return err
					}
				}
			}
			return nil
		}); err == nil {
			break
		}
		log.L().Warn("Failed to write batch, retrying.", zap.Error(err))
	}
	if err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	batch.Clear()
	return nil
}
