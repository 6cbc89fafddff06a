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
	"encoding/json"
	"fmt"
	"math"

	"github.com/ultiledger/go-ultimint/db"
	"github.com/ultiledger/go-ultimint/types"
)

// Trust is a trust line of an account to a custom asset.
type Trust struct {
	AccountID string      `json:"account_id"`
	Asset     types.Asset `json:"asset"`
	Balance   int64       `json:"balance"`
	Limit     int64       `json:"limit"`
}

// IsIssuer reports whether the trust is the virtual trust line
// of the asset issuer, which holds an unlimited balance.
func (t *Trust) IsIssuer() bool {
	return t.AccountID == t.Asset.Issuer
}

func (am *Manager) CreateTrust(putter db.Putter, accountID string, asset types.Asset, limit int64) error {
	// self-trust is not necessary
	if accountID == asset.Issuer {
		return nil
	}

	trust := &Trust{
		AccountID: accountID,
		Asset:     asset,
		Balance:   0,
		Limit:     limit,
	}
	return am.SaveTrust(putter, trust)
}

func (am *Manager) GetTrust(getter db.Getter, accountID string, asset types.Asset) (*Trust, error) {
	if accountID == asset.Issuer {
		tst := &Trust{
			AccountID: accountID,
			Asset:     asset,
			Balance:   math.MaxInt64,
			Limit:     math.MaxInt64,
		}
		return tst, nil
	}

	b, err := getter.Get(trustBucket, subKey(accountID, asset.Key()))
	if err != nil {
		return nil, fmt.Errorf("get trust from db failed: %v", err)
	}
	if b == nil {
		return nil, ErrTrustNotExist
	}

	trust := &Trust{}
	if err := json.Unmarshal(b, trust); err != nil {
		return nil, fmt.Errorf("decode trust failed: %v", err)
	}

	return trust, nil
}

// GetTrusts returns all the trust lines of the account ordered by asset.
func (am *Manager) GetTrusts(getter db.Getter, accountID string) ([]*Trust, error) {
	vals, err := getter.GetAll(trustBucket, subPrefix(accountID))
	if err != nil {
		return nil, fmt.Errorf("get trusts from db failed: %v", err)
	}

	trusts := make([]*Trust, 0, len(vals))
	for _, v := range vals {
		trust := &Trust{}
		if err := json.Unmarshal(v, trust); err != nil {
			return nil, fmt.Errorf("decode trust failed: %v", err)
		}
		trusts = append(trusts, trust)
	}
	return trusts, nil
}

func (am *Manager) SaveTrust(putter db.Putter, trust *Trust) error {
	if trust.IsIssuer() {
		return nil
	}

	trustb, err := json.Marshal(trust)
	if err != nil {
		return fmt.Errorf("encode trust failed: %v", err)
	}

	err = putter.Put(trustBucket, subKey(trust.AccountID, trust.Asset.Key()), trustb)
	if err != nil {
		return fmt.Errorf("save trust in db failed: %v", err)
	}

	return nil
}

func (am *Manager) DeleteTrust(putter db.Putter, trust *Trust) error {
	err := putter.Delete(trustBucket, subKey(trust.AccountID, trust.Asset.Key()))
	if err != nil {
		return fmt.Errorf("delete trust in db failed: %v", err)
	}
	return nil
}

// AddTrustBalance credits the trust line without exceeding its limit.
func (am *Manager) AddTrustBalance(trust *Trust, amount int64) error {
	if trust.IsIssuer() {
		return nil
	}
	if trust.Balance > math.MaxInt64-amount || trust.Balance+amount > trust.Limit {
		return ErrLineFull
	}
	trust.Balance += amount
	return nil
}

// SubTrustBalance debits the trust line.
func (am *Manager) SubTrustBalance(trust *Trust, amount int64) error {
	if trust.IsIssuer() {
		return nil
	}
	if trust.Balance < amount {
		return ErrBalanceUnderflow
	}
	trust.Balance -= amount
	return nil
}
