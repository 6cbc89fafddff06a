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
	"errors"
	"fmt"

	"github.com/ultiledger/go-ultimint/account"
	"github.com/ultiledger/go-ultimint/db"
	"github.com/ultiledger/go-ultimint/types"
)

const (
	maxDataNameLen  = 64
	maxDataValueLen = 64
)

// ManageData sets or removes (nil value) a named data entry of
// the source account.
type ManageData struct {
	AM           *account.Manager
	SrcAccountID string
	Name         string
	Value        []byte
	BaseReserve  int64
}

func (op *ManageData) Apply(dt db.Tx) error {
	if len(op.Name) == 0 || len(op.Name) > maxDataNameLen || len(op.Value) > maxDataValueLen {
		return fail(types.OpMalformed, errors.New("invalid data name or value"))
	}

	srcAcc, err := op.AM.GetAccount(dt, op.SrcAccountID)
	if err != nil {
		return fmt.Errorf("get source account failed: %v", err)
	}

	data, err := op.AM.GetData(dt, op.SrcAccountID, op.Name)
	if err != nil && err != account.ErrDataNotExist {
		return err
	}
	exist := err == nil

	if op.Value == nil {
		if !exist {
			return fail(types.OpDataNotFound, account.ErrDataNotExist)
		}
		if err := op.AM.DeleteData(dt, data); err != nil {
			return err
		}
		srcAcc.EntryCount--
		return op.AM.SaveAccount(dt, srcAcc)
	}

	if exist {
		data.Value = op.Value
		return op.AM.SaveData(dt, data)
	}

	if srcAcc.Balance < MinBalance(srcAcc.EntryCount+1, op.BaseReserve) {
		return fail(types.OpLowReserve, errors.New("balance below reserve for new data entry"))
	}
	data = &account.Data{
		AccountID: op.SrcAccountID,
		Name:      op.Name,
		Value:     op.Value,
	}
	if err := op.AM.SaveData(dt, data); err != nil {
		return err
	}
	srcAcc.EntryCount++
	return op.AM.SaveAccount(dt, srcAcc)
}
