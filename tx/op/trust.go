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

// Trust creates, updates or removes (zero limit) a trust line
// of the source account.
type Trust struct {
	AM           *account.Manager
	SrcAccountID string
	Asset        types.Asset
	Limit        int64
	BaseReserve  int64
}

func (op *Trust) Apply(dt db.Tx) error {
	if op.Asset.IsNative() || op.Asset.Validate() != nil {
		return fail(types.OpMalformed, errors.New("invalid trust asset"))
	}
	if op.Limit < 0 {
		return fail(types.OpMalformed, errors.New("negative trust limit"))
	}
	if op.SrcAccountID == op.Asset.Issuer {
		return fail(types.OpMalformed, errors.New("issuer can not trust its own asset"))
	}

	srcAcc, err := op.AM.GetAccount(dt, op.SrcAccountID)
	if err != nil {
		return fmt.Errorf("get source account failed: %v", err)
	}

	trust, err := op.AM.GetTrust(dt, op.SrcAccountID, op.Asset)
	if err != nil && err != account.ErrTrustNotExist {
		return err
	}

	// update or remove the existing trust line
	if err == nil {
		if op.Limit < trust.Balance {
			return fail(types.OpInvalidLimit, fmt.Errorf("limit %d below balance %d", op.Limit, trust.Balance))
		}
		if op.Limit == 0 {
			if err := op.AM.DeleteTrust(dt, trust); err != nil {
				return err
			}
			srcAcc.EntryCount--
			return op.AM.SaveAccount(dt, srcAcc)
		}
		trust.Limit = op.Limit
		return op.AM.SaveTrust(dt, trust)
	}

	if op.Limit == 0 {
		return fail(types.OpInvalidLimit, account.ErrTrustNotExist)
	}
	if _, err := op.AM.GetAccount(dt, op.Asset.Issuer); err != nil {
		if err == account.ErrAccountNotExist {
			return fail(types.OpNoIssuer, err)
		}
		return err
	}
	if srcAcc.Balance < MinBalance(srcAcc.EntryCount+1, op.BaseReserve) {
		return fail(types.OpLowReserve, errors.New("balance below reserve for new trust line"))
	}

	if err := op.AM.CreateTrust(dt, op.SrcAccountID, op.Asset, op.Limit); err != nil {
		return err
	}
	srcAcc.EntryCount++
	return op.AM.SaveAccount(dt, srcAcc)
}
