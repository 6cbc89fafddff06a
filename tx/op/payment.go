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

var (
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")
	ErrInvalidAccountID     = errors.New("invalid accountID")
)

// Payment moves an amount of an asset from the source to the
// destination. The issuer of a custom asset pays without limit,
// every other holder needs a trust line with enough balance and
// the destination needs a trust line with enough room.
type Payment struct {
	AM           *account.Manager
	SrcAccountID string
	DstAccountID string
	Asset        types.Asset
	Amount       int64
	BaseReserve  int64
}

func (p *Payment) Apply(dt db.Tx) error {
	if err := p.Asset.Validate(); err != nil {
		return fail(types.OpMalformed, fmt.Errorf("validate payment asset failed: %v", err))
	}
	if p.Amount <= 0 {
		return fail(types.OpMalformed, ErrInvalidPaymentAmount)
	}
	if p.SrcAccountID == "" || p.DstAccountID == "" {
		return fail(types.OpMalformed, ErrInvalidAccountID)
	}

	dstAccount, err := p.AM.GetAccount(dt, p.DstAccountID)
	if err != nil {
		if err == account.ErrAccountNotExist {
			return fail(types.OpNoDestination, err)
		}
		return fmt.Errorf("get dst account failed: %v", err)
	}

	if p.Asset.IsNative() {
		return p.payNative(dt, dstAccount)
	}
	return p.payCustom(dt)
}

func (p *Payment) payNative(dt db.Tx, dstAccount *account.Account) error {
	srcAccount, err := p.AM.GetAccount(dt, p.SrcAccountID)
	if err != nil {
		return fmt.Errorf("load source account failed: %v", err)
	}
	if srcAccount.Balance-p.Amount < MinBalance(srcAccount.EntryCount, p.BaseReserve) {
		return fail(types.OpUnderfunded, account.ErrBalanceUnderflow)
	}
	if p.SrcAccountID == p.DstAccountID {
		return nil
	}

	if err := p.AM.SubBalance(srcAccount, p.Amount); err != nil {
		return fail(types.OpUnderfunded, err)
	}
	if err := p.AM.AddBalance(dstAccount, p.Amount); err != nil {
		return fail(types.OpLineFull, err)
	}
	if err := p.AM.SaveAccount(dt, srcAccount); err != nil {
		return err
	}
	return p.AM.SaveAccount(dt, dstAccount)
}

func (p *Payment) payCustom(dt db.Tx) error {
	if _, err := p.AM.GetAccount(dt, p.Asset.Issuer); err != nil {
		if err == account.ErrAccountNotExist {
			return fail(types.OpNoIssuer, err)
		}
		return fmt.Errorf("get asset issuer failed: %v", err)
	}

	srcTrust, err := p.AM.GetTrust(dt, p.SrcAccountID, p.Asset)
	if err != nil {
		if err == account.ErrTrustNotExist {
			return fail(types.OpNoTrust, fmt.Errorf("source %s has no trust line", p.SrcAccountID))
		}
		return err
	}
	dstTrust, err := p.AM.GetTrust(dt, p.DstAccountID, p.Asset)
	if err != nil {
		if err == account.ErrTrustNotExist {
			return fail(types.OpNoTrust, fmt.Errorf("destination %s has no trust line", p.DstAccountID))
		}
		return err
	}

	if err := p.AM.SubTrustBalance(srcTrust, p.Amount); err != nil {
		return fail(types.OpUnderfunded, err)
	}
	if p.SrcAccountID == p.DstAccountID {
		return nil
	}
	if err := p.AM.AddTrustBalance(dstTrust, p.Amount); err != nil {
		return fail(types.OpLineFull, err)
	}

	if err := p.AM.SaveTrust(dt, srcTrust); err != nil {
		return fmt.Errorf("save trust failed: %v", err)
	}
	if err := p.AM.SaveTrust(dt, dstTrust); err != nil {
		return fmt.Errorf("save trust failed: %v", err)
	}
	return nil
}
