// Copyright 2019 The go-ultiledger Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package node

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/types"
)

func TestNewConfig(t *testing.T) {
	v := viper.New()
	_, err := NewConfig(v)
	assert.NotNil(t, err)

	v.Set("network_id", "sandbox")
	v.Set("addr", ":8000")
	v.Set("db_backend", "boltdb")
	_, err = NewConfig(v)
	assert.NotNil(t, err)

	v.Set("db_backend", "memdb")
	c, err := NewConfig(v)
	require.Nil(t, err)
	assert.Equal(t, crypto.NetworkID("sandbox"), c.NetworkID)
	assert.True(t, c.BaseFee > 0)
	assert.Equal(t, 10000*c.BaseReserve, c.FriendbotAmount)

	v.Set("genesis_accounts", []string{"bad"})
	_, err = NewConfig(v)
	assert.NotNil(t, err)
}

func TestNode(t *testing.T) {
	genesis, err := crypto.NewKeypair()
	require.Nil(t, err)

	conf := &Config{
		NetworkID:       crypto.NetworkID("sandbox"),
		DBBackend:       "boltdb",
		DBPath:          filepath.Join(t.TempDir(), "sandbox.db"),
		BaseFee:         100,
		BaseReserve:     1000,
		FriendbotAmount: 50000,
		GenesisAccounts: []string{genesis.AccountID()},
	}
	ctx := context.Background()

	n, err := NewNode(conf, zaptest.NewLogger(t).Sugar())
	require.Nil(t, err)
	require.Nil(t, n.Start(ctx))

	acc, err := n.LoadAccount(ctx, genesis.AccountID())
	require.Nil(t, err)
	assert.Equal(t, int64(50000), acc.NativeBalance())

	// funding twice fails
	_, err = n.Fund(ctx, genesis.AccountID())
	var se *types.SubmitError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{types.OpAlreadyExists}, se.Codes.Operations)

	_, err = n.Fund(ctx, "bad")
	assert.Equal(t, ErrInvalidAccount, err)

	seq := n.LatestLedger().SeqNum
	require.Nil(t, n.Stop())

	// the ledger survives a restart and genesis is not replayed
	n, err = NewNode(conf, zaptest.NewLogger(t).Sugar())
	require.Nil(t, err)
	require.Nil(t, n.Start(ctx))
	defer n.Stop()
	assert.Equal(t, seq, n.LatestLedger().SeqNum)

	acc, err = n.LoadAccount(ctx, genesis.AccountID())
	require.Nil(t, err)
	assert.Equal(t, int64(50000), acc.NativeBalance())
}
