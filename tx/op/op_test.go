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


package op

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultiledger/go-ultimint/account"
	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/db"
	"github.com/ultiledger/go-ultimint/db/memdb"
	"github.com/ultiledger/go-ultimint/types"
)

const baseReserve = int64(100)

type fixture struct {
	db     db.Database
	am     *account.Manager
	src    string
	dst    string
	issuer string
}

func newFixture(t *testing.T) *fixture {
	memorydb := memdb.New()
	am, err := account.NewManager(memorydb)
	require.Nil(t, err)

	f := &fixture{db: memorydb, am: am}
	for _, id := range []*string{&f.src, &f.dst, &f.issuer} {
		kp, err := crypto.NewKeypair()
		require.Nil(t, err)
		*id = kp.AccountID()
		require.Nil(t, am.CreateAccount(memorydb, *id, 1000000))
	}
	return f
}

func (f *fixture) begin(t *testing.T) db.Tx {
	dt, err := f.db.Begin()
	require.Nil(t, err)
	return dt
}

func TestAccountOp(t *testing.T) {
	f := newFixture(t)
	dt := f.begin(t)

	newAccount, err := crypto.NewKeypair()
	require.Nil(t, err)

	accountOp := CreateAccount{
		AM:           f.am,
		SrcAccountID: f.src,
		DstAccountID: newAccount.AccountID(),
		Balance:      100000,
		BaseReserve:  baseReserve,
		SeqNum:       3 << 32,
	}
	err = accountOp.Apply(dt)
	assert.Nil(t, err)

	// check dst account
	dstAcc, err := f.am.GetAccount(dt, newAccount.AccountID())
	assert.Nil(t, err)
	assert.Equal(t, int64(100000), dstAcc.Balance)
	assert.Equal(t, uint64(3<<32), dstAcc.SeqNum)

	// check src account
	srcAcc, err := f.am.GetAccount(dt, f.src)
	assert.Nil(t, err)
	assert.Equal(t, int64(900000), srcAcc.Balance)

	// creating it again fails
	err = accountOp.Apply(dt)
	assert.Equal(t, types.OpAlreadyExists, ResultCode(err))

	// starting balance below the reserve
	other, err := crypto.NewKeypair()
	require.Nil(t, err)
	accountOp.DstAccountID = other.AccountID()
	accountOp.Balance = baseReserve
	err = accountOp.Apply(dt)
	assert.Equal(t, types.OpLowReserve, ResultCode(err))

	// source can not afford it
	accountOp.Balance = 10000000
	err = accountOp.Apply(dt)
	assert.Equal(t, types.OpUnderfunded, ResultCode(err))
}

func TestTrustOp(t *testing.T) {
	f := newFixture(t)
	dt := f.begin(t)

	asset := types.NewAsset("COIN", f.issuer)
	trustOp := Trust{
		AM:           f.am,
		SrcAccountID: f.src,
		Asset:        asset,
		Limit:        10000,
		BaseReserve:  baseReserve,
	}

	// test create new trust
	err := trustOp.Apply(dt)
	assert.Nil(t, err)

	// check src account entry count
	srcAcc, err := f.am.GetAccount(dt, f.src)
	assert.Nil(t, err)
	assert.Equal(t, int32(1), srcAcc.EntryCount)

	// check created trust
	trust, err := f.am.GetTrust(dt, f.src, asset)
	assert.Nil(t, err)
	assert.Equal(t, int64(10000), trust.Limit)

	// lower the trust limit
	trustOp.Limit = 5000
	err = trustOp.Apply(dt)
	assert.Nil(t, err)
	trust, err = f.am.GetTrust(dt, f.src, asset)
	assert.Nil(t, err)
	assert.Equal(t, int64(5000), trust.Limit)

	// remove the trust
	trustOp.Limit = 0
	err = trustOp.Apply(dt)
	assert.Nil(t, err)
	srcAcc, err = f.am.GetAccount(dt, f.src)
	assert.Nil(t, err)
	assert.Equal(t, int32(0), srcAcc.EntryCount)

	// unknown issuer
	stranger, err := crypto.NewKeypair()
	require.Nil(t, err)
	trustOp.Asset = types.NewAsset("COIN", stranger.AccountID())
	trustOp.Limit = 10
	err = trustOp.Apply(dt)
	assert.Equal(t, types.OpNoIssuer, ResultCode(err))

	// issuer trusting itself
	trustOp.SrcAccountID = f.issuer
	trustOp.Asset = asset
	err = trustOp.Apply(dt)
	assert.Equal(t, types.OpMalformed, ResultCode(err))
}

func TestManageDataOp(t *testing.T) {
	f := newFixture(t)
	dt := f.begin(t)

	dataOp := ManageData{
		AM:           f.am,
		SrcAccountID: f.issuer,
		Name:         "NFT",
		Value:        []byte("bafkreie"),
		BaseReserve:  baseReserve,
	}
	assert.Nil(t, dataOp.Apply(dt))

	data, err := f.am.GetData(dt, f.issuer, "NFT")
	assert.Nil(t, err)
	assert.Equal(t, []byte("bafkreie"), data.Value)

	// overwrite keeps the entry count
	dataOp.Value = []byte("bafkreif")
	assert.Nil(t, dataOp.Apply(dt))
	acc, err := f.am.GetAccount(dt, f.issuer)
	assert.Nil(t, err)
	assert.Equal(t, int32(1), acc.EntryCount)

	dataOp.Value = nil
	assert.Nil(t, dataOp.Apply(dt))
	err = dataOp.Apply(dt)
	assert.Equal(t, types.OpDataNotFound, ResultCode(err))

	dataOp.Name = ""
	err = dataOp.Apply(dt)
	assert.Equal(t, types.OpMalformed, ResultCode(err))
}

func TestPaymentOp(t *testing.T) {
	f := newFixture(t)
	dt := f.begin(t)

	// Create the payment operator.
	paymentOp := Payment{
		AM:           f.am,
		SrcAccountID: f.src,
		DstAccountID: f.dst,
		Asset:        types.NativeAsset(),
		Amount:       int64(10000),
		BaseReserve:  baseReserve,
	}
	err := paymentOp.Apply(dt)
	assert.Nil(t, err)

	// Check the balance of destination account.
	dstAcc, err := f.am.GetAccount(dt, f.dst)
	assert.Nil(t, err)
	assert.Equal(t, int64(1010000), dstAcc.Balance)

	// Check the balance of source account.
	srcAcc, err := f.am.GetAccount(dt, f.src)
	assert.Nil(t, err)
	assert.Equal(t, int64(990000), srcAcc.Balance)

	paymentOp.Amount = srcAcc.Balance
	err = paymentOp.Apply(dt)
	assert.Equal(t, types.OpUnderfunded, ResultCode(err))
}

func TestCustomPaymentOp(t *testing.T) {
	f := newFixture(t)
	dt := f.begin(t)

	asset := types.NewAsset("NFT", f.issuer)
	issue := Payment{
		AM:           f.am,
		SrcAccountID: f.issuer,
		DstAccountID: f.dst,
		Asset:        asset,
		Amount:       1,
		BaseReserve:  baseReserve,
	}

	// the destination has no trust line yet
	err := issue.Apply(dt)
	assert.Equal(t, types.OpNoTrust, ResultCode(err))

	trustOp := Trust{AM: f.am, SrcAccountID: f.dst, Asset: asset, Limit: 1, BaseReserve: baseReserve}
	require.Nil(t, trustOp.Apply(dt))

	// the issuer issues without limit
	assert.Nil(t, issue.Apply(dt))
	trust, err := f.am.GetTrust(dt, f.dst, asset)
	assert.Nil(t, err)
	assert.Equal(t, int64(1), trust.Balance)

	// the trust line is full
	err = issue.Apply(dt)
	assert.Equal(t, types.OpLineFull, ResultCode(err))

	// transfer from holder to a third account
	trustOp.SrcAccountID = f.src
	require.Nil(t, trustOp.Apply(dt))
	transfer := Payment{AM: f.am, SrcAccountID: f.dst, DstAccountID: f.src, Asset: asset, Amount: 1, BaseReserve: baseReserve}
	assert.Nil(t, transfer.Apply(dt))
	err = transfer.Apply(dt)
	assert.Equal(t, types.OpUnderfunded, ResultCode(err))

	trust, err = f.am.GetTrust(dt, f.src, asset)
	assert.Nil(t, err)
	assert.Equal(t, int64(1), trust.Balance)
}

func TestDecode(t *testing.T) {
	f := newFixture(t)

	o, err := Decode(f.am, f.src, &types.Operation{
		Type:          types.OpPayment,
		SourceAccount: f.issuer,
		Payment:       &types.PaymentOp{Destination: f.dst, Asset: types.NativeAsset(), Amount: 5},
	}, baseReserve, 0)
	assert.Nil(t, err)
	assert.Equal(t, f.issuer, o.(*Payment).SrcAccountID)

	_, err = Decode(f.am, f.src, &types.Operation{Type: types.OpPayment}, baseReserve, 0)
	assert.Equal(t, types.OpMalformed, ResultCode(err))

	_, err = Decode(f.am, f.src, &types.Operation{Type: "inflation"}, baseReserve, 0)
	assert.Equal(t, types.OpNotSupported, ResultCode(err))
}
