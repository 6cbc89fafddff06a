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
	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/db"
	"github.com/ultiledger/go-ultimint/types"
)

// CreateAccount creates and funds a new account from the source.
type CreateAccount struct {
	AM           *account.Manager
	SrcAccountID string
	DstAccountID string
	Balance      int64
	BaseReserve  int64
	// Initial sequence number of the new account.
	SeqNum uint64
}

func (op *CreateAccount) Apply(dt db.Tx) error {
	if !crypto.IsValidAccountKey(op.DstAccountID) || op.Balance <= 0 {
		return fail(types.OpMalformed, errors.New("invalid destination or balance"))
	}
	if op.Balance < MinBalance(0, op.BaseReserve) {
		return fail(types.OpLowReserve, fmt.Errorf("starting balance %d below reserve", op.Balance))
	}

	_, err := op.AM.GetAccount(dt, op.DstAccountID)
	if err == nil {
		return fail(types.OpAlreadyExists, account.ErrAccountExist)
	}
	if err != account.ErrAccountNotExist {
		return err
	}

	srcAcc, err := op.AM.GetAccount(dt, op.SrcAccountID)
	if err != nil {
		return fmt.Errorf("get source account failed: %v", err)
	}
	if srcAcc.Balance-op.Balance < MinBalance(srcAcc.EntryCount, op.BaseReserve) {
		return fail(types.OpUnderfunded, account.ErrBalanceUnderflow)
	}
	if err := op.AM.SubBalance(srcAcc, op.Balance); err != nil {
		return fail(types.OpUnderfunded, err)
	}
	if err := op.AM.SaveAccount(dt, srcAcc); err != nil {
		return err
	}

	dstAcc := &account.Account{
		AccountID: op.DstAccountID,
		Balance:   op.Balance,
		SeqNum:    op.SeqNum,
	}
	return op.AM.SaveAccount(dt, dstAcc)
}
