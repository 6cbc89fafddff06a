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

package build

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/types"
)

const baseFee = int64(100)

func TestTx(t *testing.T) {
	networkID := crypto.NetworkID("test network")

	// Create random accounts.
	src, err := crypto.NewKeypair()
	assert.Nil(t, err)
	dst, err := crypto.NewKeypair()
	assert.Nil(t, err)

	tx := NewTx(networkID, baseFee)

	source := &Source{Account: &types.Account{AccountID: src.AccountID(), SeqNum: 7}}
	memo := &Memo{Memo: "SIMPLE MEMO"}
	ca := &CreateAccount{
		Destination:     dst.AccountID(),
		StartingBalance: int64(1000),
	}
	p := &Payment{
		Destination: dst.AccountID(),
		Amount:      int64(1000),
		Asset:       types.NativeAsset(),
	}
	trust := &Trust{
		Asset: types.NewAsset("XYZ", dst.AccountID()),
		Limit: 100,
	}

	err = tx.Add(source, memo, ca, p, trust)
	assert.Nil(t, err)
	assert.Equal(t, int64(3)*baseFee, tx.Tx.Fee)
	assert.Equal(t, uint64(8), tx.Tx.SeqNum)

	// Testing signing the tx.
	env, err := tx.Sign(src, src)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(env.Signatures))

	hash, err := env.Tx.Hash(networkID)
	assert.Nil(t, err)
	assert.True(t, crypto.Verify(src.AccountID(), env.Signatures[0].Signature, hash[:]))

	// The signature is bound to the network.
	other, err := env.Tx.Hash(crypto.NetworkID("other network"))
	assert.Nil(t, err)
	assert.False(t, crypto.Verify(src.AccountID(), env.Signatures[0].Signature, other[:]))

	key, err := tx.GetTxKey()
	assert.Nil(t, err)
	assert.Equal(t, crypto.TxKey(hash), key)
}

func TestTxEmptyOps(t *testing.T) {
	src, err := crypto.NewKeypair()
	assert.Nil(t, err)

	tx := NewTx(crypto.NetworkID("test network"), baseFee)
	err = tx.Add(&AccountID{AccountID: src.AccountID()}, &SeqNum{SeqNum: 1})
	assert.ErrorIs(t, err, ErrEmptyOps)

	_, err = tx.Build()
	assert.ErrorIs(t, err, ErrEmptyOps)

	_, err = tx.Sign(src)
	assert.ErrorIs(t, err, ErrEmptyOps)
}

func TestTxSigners(t *testing.T) {
	networkID := crypto.NetworkID("test network")

	issuer, err := crypto.NewKeypair()
	assert.Nil(t, err)
	holder, err := crypto.NewKeypair()
	assert.Nil(t, err)
	stranger, err := crypto.NewKeypair()
	assert.Nil(t, err)

	tx := NewTx(networkID, baseFee)
	err = tx.Add(
		&AccountID{AccountID: issuer.AccountID()},
		&SeqNum{SeqNum: 1},
		&Trust{Asset: types.NewAsset("NFT", issuer.AccountID()), Source: holder.AccountID()},
	)
	assert.Nil(t, err)

	signers := tx.RequiredSigners()
	assert.Equal(t, 2, signers.Cardinality())
	assert.True(t, signers.Contains(issuer.AccountID(), holder.AccountID()))

	env, err := tx.Sign(issuer, holder, stranger)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(env.Signatures))

	_, err = tx.Sign(stranger)
	assert.NotNil(t, err)
}
