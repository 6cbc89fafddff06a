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
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/ledger"
)

type Config struct {
	// network ID hash
	NetworkID [32]byte
	// network address of the http server
	Addr string
	// database backend
	DBBackend string
	// database file path
	DBPath string
	// fee charged per operation
	BaseFee int64
	// native balance reserved per account entry
	BaseReserve int64
	// starting balance of accounts created by the friendbot
	FriendbotAmount int64
	// accounts funded by the friendbot at genesis
	GenesisAccounts []string
}

func NewConfig(v *viper.Viper) (*Config, error) {
	if v.GetString("network_id") == "" {
		return nil, errors.New("network ID is missing")
	}
	if v.GetString("addr") == "" {
		return nil, errors.New("network address is missing")
	}
	if v.GetString("db_backend") == "" {
		return nil, errors.New("db backend is empty")
	}
	if v.GetString("db_backend") != "memdb" && v.GetString("db_path") == "" {
		return nil, errors.New("db path is empty")
	}

	u := Config{
		NetworkID:       crypto.NetworkID(v.GetString("network_id")),
		Addr:            v.GetString("addr"),
		DBBackend:       v.GetString("db_backend"),
		DBPath:          v.GetString("db_path"),
		BaseFee:         v.GetInt64("base_fee"),
		BaseReserve:     v.GetInt64("base_reserve"),
		FriendbotAmount: v.GetInt64("friendbot_amount"),
		GenesisAccounts: v.GetStringSlice("genesis_accounts"),
	}
	if u.BaseFee <= 0 {
		u.BaseFee = ledger.GenesisBaseFee
	}
	if u.BaseReserve <= 0 {
		u.BaseReserve = ledger.GenesisBaseReserve
	}
	if u.FriendbotAmount <= 0 {
		u.FriendbotAmount = 10000 * u.BaseReserve
	}
	for _, acc := range u.GenesisAccounts {
		if !crypto.IsValidAccountKey(acc) {
			return nil, fmt.Errorf("invalid genesis account %s", acc)
		}
	}

	return &u, nil
}
