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

package types

import (
	"encoding/base64"
	"errors"
)

var (
	ErrAccountNotFound = errors.New("account not found")
)

// Account represents a ledger account as seen by clients.
type Account struct {
	// Public key of this account.
	AccountID string `json:"account_id"`
	// Latest transaction sequence number.
	SeqNum uint64 `json:"sequence,string"`
	// Number of sub-entries (trustlines and data entries).
	EntryCount int32 `json:"subentry_count"`
	// Native balance first, then one entry per trustline.
	Balances []Balance `json:"balances"`
	// Data entries with base64 encoded values.
	Data map[string]string `json:"data,omitempty"`
}

// Balance is the holding of an asset. For non-native assets
// the existence of the entry is the trustline itself.
type Balance struct {
	Asset
	Balance int64 `json:"balance,string"`
	Limit   int64 `json:"limit,string,omitempty"`
}

// Trusts reports whether the account holds a balance entry
// for the asset. Every account can hold the native asset.
func (a *Account) Trusts(asset Asset) bool {
	if asset.IsNative() {
		return true
	}
	for _, b := range a.Balances {
		if b.Asset.Equal(asset) {
			return true
		}
	}
	return false
}

// NativeBalance returns the balance of the native asset.
func (a *Account) NativeBalance() int64 {
	for _, b := range a.Balances {
		if b.IsNative() {
			return b.Balance
		}
	}
	return 0
}

// DataValue returns the decoded value of the named data entry.
func (a *Account) DataValue(name string) (string, bool) {
	v, ok := a.Data[name]
	if !ok {
		return "", false
	}
	b, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return "", false
	}
	return string(b), true
}
