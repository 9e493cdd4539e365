// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package ledger implements the transactional state store underneath the registry and license
// protocols. State objects are serialized with RLP unless they provide their own codec.
package ledger

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

var (
	// ErrStateNotExist indicates the state does not exist
	ErrStateNotExist = errors.New("state does not exist")
	// ErrStateSerialization indicates the state failed to (de)serialize
	ErrStateSerialization = errors.New("failed to serialize or deserialize state")
)

// Serializer has Serialize method to serialize struct to binary data.
type Serializer interface {
	Serialize() ([]byte, error)
}

// Deserializer has Deserialize method to deserialize binary data to struct.
type Deserializer interface {
	Deserialize(data []byte) error
}

// Serialize check if input is Serializer, if it is, use the input's Serialize method, otherwise
// use RLP to serialize the input
func Serialize(d interface{}) ([]byte, error) {
	if s, ok := d.(Serializer); ok {
		return s.Serialize()
	}
	data, err := rlp.EncodeToBytes(d)
	if err != nil {
		return nil, errors.Wrapf(ErrStateSerialization, "error when serializing %T state: %v", d, err)
	}
	return data, nil
}

// Deserialize check if input is Deserializer, if it is, use the input's Deserialize method,
// otherwise use RLP to deserialize the input
func Deserialize(x interface{}, data []byte) error {
	if d, ok := x.(Deserializer); ok {
		return d.Deserialize(data)
	}
	if err := rlp.DecodeBytes(data, x); err != nil {
		return errors.Wrapf(ErrStateSerialization, "error when deserializing %T state: %v", x, err)
	}
	return nil
}
