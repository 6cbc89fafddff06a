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

	"github.com/ultiledger/go-ultimint/db"
)

// Data is a named value attached to an account.
type Data struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Value     []byte `json:"value"`
}

func (am *Manager) GetData(getter db.Getter, accountID string, name string) (*Data, error) {
	b, err := getter.Get(dataBucket, subKey(accountID, name))
	if err != nil {
		return nil, fmt.Errorf("get data from db failed: %v", err)
	}
	if b == nil {
		return nil, ErrDataNotExist
	}

	data := &Data{}
	if err := json.Unmarshal(b, data); err != nil {
		return nil, fmt.Errorf("decode data failed: %v", err)
	}
	return data, nil
}

// GetDataEntries returns all the data entries of the account ordered by name.
func (am *Manager) GetDataEntries(getter db.Getter, accountID string) ([]*Data, error) {
	vals, err := getter.GetAll(dataBucket, subPrefix(accountID))
	if err != nil {
		return nil, fmt.Errorf("get data entries from db failed: %v", err)
	}

	entries := make([]*Data, 0, len(vals))
	for _, v := range vals {
		data := &Data{}
		if err := json.Unmarshal(v, data); err != nil {
			return nil, fmt.Errorf("decode data failed: %v", err)
		}
		entries = append(entries, data)
	}
	return entries, nil
}

func (am *Manager) SaveData(putter db.Putter, data *Data) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode data failed: %v", err)
	}
	err = putter.Put(dataBucket, subKey(data.AccountID, data.Name), b)
	if err != nil {
		return fmt.Errorf("save data in db failed: %v", err)
	}
	return nil
}

func (am *Manager) DeleteData(putter db.Putter, data *Data) error {
	err := putter.Delete(dataBucket, subKey(data.AccountID, data.Name))
	if err != nil {
		return fmt.Errorf("delete data in db failed: %v", err)
	}
	return nil
}
