// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package ledger

import (
	"context"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/registree/registree-core/db"
)

const _testNS = "test"

type testState struct {
	Name  string
	Count uint64
}

func TestFactoryCommit(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	sf := NewFactory(db.NewMemKVStore())
	require.NoError(sf.Start(ctx))
	defer func() {
		require.NoError(sf.Stop(ctx))
	}()

	ws, err := sf.NewWorkingSet()
	require.NoError(err)
	require.NoError(ws.PutState(_testNS, []byte("k1"), &testState{Name: "acme", Count: 7}))

	// read-your-writes inside the working set
	var s testState
	require.NoError(ws.State(_testNS, []byte("k1"), &s))
	require.Equal("acme", s.Name)
	require.Equal(uint64(7), s.Count)

	// not visible in committed state until commit
	var committed testState
	err = sf.State(_testNS, []byte("k1"), &committed)
	require.Equal(ErrStateNotExist, errors.Cause(err))

	require.NoError(sf.Commit(ws))
	require.NoError(sf.State(_testNS, []byte("k1"), &committed))
	require.Equal("acme", committed.Name)
}

func TestWorkingSetDiscard(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	sf := NewFactory(db.NewMemKVStore())
	require.NoError(sf.Start(ctx))
	defer func() {
		require.NoError(sf.Stop(ctx))
	}()

	ws, err := sf.NewWorkingSet()
	require.NoError(err)
	require.NoError(ws.PutState(_testNS, []byte("k1"), big.NewInt(42)))

	// dropping the working set leaves committed state untouched
	ws, err = sf.NewWorkingSet()
	require.NoError(err)
	value := new(big.Int)
	err = ws.State(_testNS, []byte("k1"), value)
	require.Equal(ErrStateNotExist, errors.Cause(err))
}

func TestSerializeRoundTrip(t *testing.T) {
	require := require.New(t)

	data, err := Serialize(big.NewInt(1000))
	require.NoError(err)
	value := new(big.Int)
	require.NoError(Deserialize(value, data))
	require.Equal(big.NewInt(1000), value)

	data, err = Serialize(uint64(10))
	require.NoError(err)
	var count uint64
	require.NoError(Deserialize(&count, data))
	require.Equal(uint64(10), count)
}
