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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/types"
)

func TestAccountMutator(t *testing.T) {
	// Create a random account.
	pk, _, err := crypto.GetAccountKeypair()
	assert.Nil(t, err)

	tx := &types.Transaction{}

	// Test AccountID mutator with a valid account key.
	accID := AccountID{AccountID: pk}
	err = accID.Mutate(tx)
	assert.Nil(t, err)
	assert.Equal(t, tx.SourceAccount, accID.AccountID)

	// Test AccountID mutator with a invalid account key.
	accID = AccountID{AccountID: "InvalidID"}
	err = accID.Mutate(tx)
	assert.NotNil(t, err)

	err = accID.Mutate(nil)
	assert.Equal(t, ErrNilTx, err)
}

func TestSourceMutator(t *testing.T) {
	pk, _, err := crypto.GetAccountKeypair()
	assert.Nil(t, err)

	tx := &types.Transaction{}
	src := Source{Account: &types.Account{AccountID: pk, SeqNum: 41}}
	err = src.Mutate(tx)
	assert.Nil(t, err)
	assert.Equal(t, pk, tx.SourceAccount)
	assert.Equal(t, uint64(42), tx.SeqNum)

	src = Source{}
	assert.NotNil(t, src.Mutate(tx))
}

func TestMemoMutator(t *testing.T) {
	tx := &types.Transaction{}

	// Test Memo mutator with a invalid memo.
	m := Memo{Memo: strings.Repeat("X", 1024)}
	err := m.Mutate(tx)
	assert.NotNil(t, err)

	m = Memo{Memo: "SIMPLE MEMO"}
	err = m.Mutate(tx)
	assert.Nil(t, err)
	assert.Equal(t, "SIMPLE MEMO", tx.Memo)
}

func TestTimeoutMutator(t *testing.T) {
	tx := &types.Transaction{}
	now := time.Unix(1000, 0)

	to := Timeout{Seconds: 30, Now: now}
	err := to.Mutate(tx)
	assert.Nil(t, err)
	assert.Equal(t, int64(1030), tx.TimeBounds.MaxTime)
	assert.Equal(t, int64(0), tx.TimeBounds.MinTime)

	to.Seconds = 0
	err = to.Mutate(tx)
	assert.NotNil(t, err)
}

func TestCreateAccountMutator(t *testing.T) {
	// Create a random account.
	pk, _, err := crypto.GetAccountKeypair()
	assert.Nil(t, err)

	tx := &types.Transaction{}

	ca := CreateAccount{
		Destination:     pk,
		StartingBalance: int64(1000),
	}
	err = ca.Mutate(tx)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(tx.Operations))
	assert.Equal(t, types.OpCreateAccount, tx.Operations[0].Type)

	ca.StartingBalance = 0
	err = ca.Mutate(tx)
	assert.NotNil(t, err)

	ca.StartingBalance = 1000
	ca.Destination = "InvalidID"
	err = ca.Mutate(tx)
	assert.NotNil(t, err)
}

func TestPaymentMutator(t *testing.T) {
	// Create random account.
	pk, _, err := crypto.GetAccountKeypair()
	assert.Nil(t, err)

	tx := &types.Transaction{}

	p := Payment{
		Destination: pk,
		Amount:      int64(1000),
		Asset:       types.NewAsset("ABC", pk),
	}
	err = p.Mutate(tx)
	assert.Nil(t, err)
	assert.Equal(t, int64(1000), tx.Operations[0].Payment.Amount)

	// Test an invalid payment amount.
	p.Amount = int64(-1)
	err = p.Mutate(tx)
	assert.NotNil(t, err)
	p.Amount = int64(1000)

	// Test an invalid asset code.
	p.Asset.Code = "ABC-DEF"
	err = p.Mutate(tx)
	assert.NotNil(t, err)

	// Test an invalid asset type.
	p.Asset.Code = "ABC"
	p.Asset.Type = types.AssetType("pool")
	err = p.Mutate(tx)
	assert.NotNil(t, err)

	// Test an invalid operation source.
	p.Asset.Type = types.AssetCustom
	p.Source = "InvalidID"
	err = p.Mutate(tx)
	assert.NotNil(t, err)
	assert.Equal(t, 1, len(tx.Operations))
}

func TestTrustMutator(t *testing.T) {
	// Create a random account.
	pk, _, err := crypto.GetAccountKeypair()
	assert.Nil(t, err)

	tx := &types.Transaction{}

	trust := Trust{
		Asset: types.NewAsset("ABC", pk),
		Limit: 100,
	}
	err = trust.Mutate(tx)
	assert.Nil(t, err)
	assert.Equal(t, int64(100), tx.Operations[0].ChangeTrust.Limit)

	// Zero limit means unlimited trust.
	trust.Limit = 0
	err = trust.Mutate(tx)
	assert.Nil(t, err)
	assert.Equal(t, types.MaxTrustLimit, tx.Operations[1].ChangeTrust.Limit)

	// Test an invalid trust limit.
	trust.Limit = int64(-1)
	err = trust.Mutate(tx)
	assert.NotNil(t, err)

	// Native asset can not be trusted.
	trust = Trust{Asset: types.NativeAsset()}
	err = trust.Mutate(tx)
	assert.NotNil(t, err)
}

func TestManageDataMutator(t *testing.T) {
	tx := &types.Transaction{}

	md := ManageData{Name: "cid", Value: []byte("bafkreiabc")}
	err := md.Mutate(tx)
	assert.Nil(t, err)
	assert.Equal(t, "cid", tx.Operations[0].ManageData.Name)

	md.Name = ""
	err = md.Mutate(tx)
	assert.NotNil(t, err)

	md.Name = strings.Repeat("n", 65)
	err = md.Mutate(tx)
	assert.NotNil(t, err)

	md.Name = "cid"
	md.Value = []byte(strings.Repeat("v", 65))
	err = md.Mutate(tx)
	assert.NotNil(t, err)
}
