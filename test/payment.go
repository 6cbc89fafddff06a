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


package test

import (
	"context"
	"errors"
	"fmt"

	"github.com/ultiledger/go-ultimint/amount"
	"github.com/ultiledger/go-ultimint/build"
	"github.com/ultiledger/go-ultimint/types"
)

func init() {
	Register(&OneToOnePayment{})
	Register(&StaleSequence{})
}

// OneToOnePayment tests the correctness of a point-to-point payment.
type OneToOnePayment struct{}

func (p *OneToOnePayment) Desc() string {
	return "testcase: one-to-one payment"
}

func (p *OneToOnePayment) Run(ctx context.Context, env *Env) error {
	src, srcAcc, err := env.newFundedAccount(ctx)
	if err != nil {
		return fmt.Errorf("create source account failed: %v", err)
	}
	dst, dstAcc, err := env.newFundedAccount(ctx)
	if err != nil {
		return fmt.Errorf("create destination account failed: %v", err)
	}
	srcBalance, dstBalance := srcAcc.NativeBalance(), dstAcc.NativeBalance()

	result, err := env.submit(ctx, src, &build.Payment{
		Destination: dst.AccountID(),
		Asset:       types.NativeAsset(),
		Amount:      amount.One,
	})
	if err != nil {
		return fmt.Errorf("submit payment failed: %v", err)
	}

	srcAcc, err = env.Client.LoadAccount(ctx, src.AccountID())
	if err != nil {
		return fmt.Errorf("get account failed: %v", err)
	}
	dstAcc, err = env.Client.LoadAccount(ctx, dst.AccountID())
	if err != nil {
		return fmt.Errorf("get account failed: %v", err)
	}
	// Check the balance of the accounts.
	if srcAcc.NativeBalance() != srcBalance-amount.One-result.FeeCharged {
		return fmt.Errorf("src account with unexpected balance: %d", srcAcc.NativeBalance())
	}
	if dstAcc.NativeBalance() != dstBalance+amount.One {
		return fmt.Errorf("dst account with unexpected balance: %d", dstAcc.NativeBalance())
	}
	return nil
}

// StaleSequence tests that a tx built on an outdated sequence is
// rejected and a rebuilt one succeeds.
type StaleSequence struct{}

func (s *StaleSequence) Desc() string {
	return "testcase: stale sequence number"
}

func (s *StaleSequence) Run(ctx context.Context, env *Env) error {
	src, stale, err := env.newFundedAccount(ctx)
	if err != nil {
		return err
	}
	memo := &build.Memo{Memo: "first"}
	if _, err := env.submit(ctx, src, memo, &build.ManageData{Name: "k", Value: []byte("v1")}); err != nil {
		return fmt.Errorf("submit first tx failed: %v", err)
	}

	tx := build.NewTx(env.NetworkID, env.BaseFee)
	if err := tx.Add(&build.Source{Account: stale}, &build.ManageData{Name: "k", Value: []byte("v2")}); err != nil {
		return err
	}
	e, err := tx.Sign(src)
	if err != nil {
		return err
	}
	if _, err := env.Client.SubmitTx(ctx, e); !errors.Is(err, types.ErrSequenceConflict) {
		return fmt.Errorf("expected sequence conflict, got %v", err)
	}

	if _, err := env.submit(ctx, src, &build.ManageData{Name: "k", Value: []byte("v2")}); err != nil {
		return fmt.Errorf("submit rebuilt tx failed: %v", err)
	}
	acc, err := env.Client.LoadAccount(ctx, src.AccountID())
	if err != nil {
		return err
	}
	if v, _ := acc.DataValue("k"); v != "v2" {
		return fmt.Errorf("data entry with unexpected value: %q", v)
	}
	return nil
}
