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


package account

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/db"
	"github.com/ultiledger/go-ultimint/log"
	"github.com/ultiledger/go-ultimint/types"
)

var (
	ErrAccountNotExist  = errors.New("account not exist")
	ErrAccountExist     = errors.New("account already exist")
	ErrTrustNotExist    = errors.New("trust not exist")
	ErrDataNotExist     = errors.New("data not exist")
	ErrBalanceOverflow  = errors.New("account balance overflow")
	ErrBalanceUnderflow = errors.New("account balance underflow")
	ErrLineFull         = errors.New("trust line is full")
)

const (
	accountBucket = "ACCOUNT"
	trustBucket   = "TRUST"
	dataBucket    = "DATA"
)

// Account is the ledger entry of an account.
type Account struct {
	AccountID string `json:"account_id"`
	Balance   int64  `json:"balance"`
	SeqNum    uint64 `json:"seq_num"`
	// Number of trust lines and data entries owned by the account.
	EntryCount int32 `json:"entry_count"`
}

// Manager manages the account entries and the trust lines and
// data entries attached to them. Every read and write goes
// through a db.Getter or db.Putter so that the caller decides
// whether it happens inside a database transaction.
type Manager struct {
	database db.Database
}

func NewManager(d db.Database) (*Manager, error) {
	am := &Manager{database: d}
	for _, bucket := range []string{accountBucket, trustBucket, dataBucket} {
		if err := am.database.NewBucket(bucket); err != nil {
			return nil, fmt.Errorf("create db bucket %s failed: %v", bucket, err)
		}
	}
	return am, nil
}

// CreateMasterAccount creates the account holding all the initial
// native balance. Its keypair is derived from the network id.
func (am *Manager) CreateMasterAccount(networkID [32]byte, balance int64) (*crypto.Keypair, error) {
	kp, err := crypto.KeypairFromRawSeed(networkID[:])
	if err != nil {
		return nil, err
	}

	acc, err := am.GetAccount(am.database, kp.AccountID())
	if err == nil {
		log.Infow("master account loaded", "account", acc.AccountID, "balance", acc.Balance)
		return kp, nil
	}
	if err != ErrAccountNotExist {
		return nil, err
	}

	err = am.CreateAccount(am.database, kp.AccountID(), balance)
	if err != nil {
		return nil, fmt.Errorf("create master account failed: %v", err)
	}
	log.Infow("master account created", "account", kp.AccountID(), "balance", balance)

	return kp, nil
}

func (am *Manager) CreateAccount(putter db.Putter, accountID string, balance int64) error {
	acc := &Account{
		AccountID: accountID,
		Balance:   balance,
	}
	return am.SaveAccount(putter, acc)
}

func (am *Manager) GetAccount(getter db.Getter, accountID string) (*Account, error) {
	b, err := getter.Get(accountBucket, []byte(accountID))
	if err != nil {
		return nil, fmt.Errorf("get account %s failed: %v", accountID, err)
	}
	if b == nil {
		return nil, ErrAccountNotExist
	}
	acc := &Account{}
	if err := json.Unmarshal(b, acc); err != nil {
		return nil, fmt.Errorf("account %s decode failed: %v", accountID, err)
	}
	return acc, nil
}

func (am *Manager) SaveAccount(putter db.Putter, acc *Account) error {
	accb, err := json.Marshal(acc)
	if err != nil {
		return fmt.Errorf("encode account failed: %v", err)
	}

	// update account in db
	err = putter.Put(accountBucket, []byte(acc.AccountID), accb)
	if err != nil {
		return fmt.Errorf("save account in db failed: %v", err)
	}

	return nil
}

func (am *Manager) AddBalance(acc *Account, balance int64) error {
	if balance < 0 {
		return am.SubBalance(acc, -balance)
	}
	if acc.Balance > math.MaxInt64-balance {
		return ErrBalanceOverflow
	}

	acc.Balance += balance

	return nil
}

func (am *Manager) SubBalance(acc *Account, balance int64) error {
	if acc.Balance < balance {
		return ErrBalanceUnderflow
	}

	acc.Balance -= balance

	return nil
}

// View assembles the public snapshot of the account: native balance
// first, then one balance per trust line, plus the data entries.
func (am *Manager) View(getter db.Getter, accountID string) (*types.Account, error) {
	acc, err := am.GetAccount(getter, accountID)
	if err != nil {
		return nil, err
	}

	view := &types.Account{
		AccountID:  acc.AccountID,
		SeqNum:     acc.SeqNum,
		EntryCount: acc.EntryCount,
		Balances: []types.Balance{
			{Asset: types.NativeAsset(), Balance: acc.Balance},
		},
	}

	trusts, err := am.GetTrusts(getter, accountID)
	if err != nil {
		return nil, err
	}
	for _, t := range trusts {
		view.Balances = append(view.Balances, types.Balance{
			Asset:   t.Asset,
			Balance: t.Balance,
			Limit:   t.Limit,
		})
	}

	data, err := am.GetDataEntries(getter, accountID)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		view.Data = make(map[string]string, len(data))
		for _, d := range data {
			view.Data[d.Name] = base64.StdEncoding.EncodeToString(d.Value)
		}
	}

	return view, nil
}

func subKey(accountID string, name string) []byte {
	return []byte(accountID + "/" + name)
}

func subPrefix(accountID string) []byte {
	return []byte(accountID + "/")
}
