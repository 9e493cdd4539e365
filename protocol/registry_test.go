// Copyright (c) 2022 Registree
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type dummyProtocol struct{ id int }

func TestRegistry(t *testing.T) {
	require := require.New(t)
	r := &Registry{}

	first := &dummyProtocol{id: 1}
	require.NoError(r.Register("first", first))
	require.Error(r.Register("first", &dummyProtocol{id: 2}))

	p, ok := r.Find("first")
	require.True(ok)
	require.Equal(first, p)
	_, ok = r.Find("missing")
	require.False(ok)

	replaced := &dummyProtocol{id: 3}
	require.NoError(r.ForceRegister("first", replaced))
	p, ok = r.Find("first")
	require.True(ok)
	require.Equal(replaced, p)

	require.NoError(r.Register("second", &dummyProtocol{id: 4}))
	require.Len(r.All(), 2)
	require.Equal(replaced, r.MustFind("first"))
}
