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
	"fmt"
	"time"

	"github.com/ultiledger/go-ultimint/build"
	"github.com/ultiledger/go-ultimint/client"
	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/types"
)

var cases []TestCase

// Register the input test case in the global cases slice.
func Register(tc TestCase) {
	cases = append(cases, tc)
}

// GetAll returns the registered test cases in registration order.
func GetAll() []TestCase {
	return cases
}

// TestCase abstracts a scenario run against a live ledger
// endpoint. Each concrete test case should have the Run method
// implemented.
type TestCase interface {
	Desc() string
	Run(ctx context.Context, env *Env) error
}

// Env is what a test case needs to talk to the ledger.
type Env struct {
	Client    *client.Client
	NetworkID [32]byte
	BaseFee   int64
}

// newFundedAccount creates a random account with the friendbot.
func (e *Env) newFundedAccount(ctx context.Context) (*crypto.Keypair, *types.Account, error) {
	kp, err := crypto.NewKeypair()
	if err != nil {
		return nil, nil, fmt.Errorf("generate keypair failed: %v", err)
	}
	if _, err := e.Client.Fund(ctx, kp.AccountID()); err != nil {
		return nil, nil, fmt.Errorf("fund account failed: %v", err)
	}
	acc, err := e.Client.LoadAccount(ctx, kp.AccountID())
	if err != nil {
		return nil, nil, fmt.Errorf("load account failed: %v", err)
	}
	return kp, acc, nil
}

// submit builds the tx on the fresh state of the signer's account,
// submits it and checks the tx is confirmed.
func (e *Env) submit(ctx context.Context, kp *crypto.Keypair, ms ...build.TxMutator) (*types.SubmitResult, error) {
	acc, err := e.Client.LoadAccount(ctx, kp.AccountID())
	if err != nil {
		return nil, fmt.Errorf("load account failed: %v", err)
	}
	tx := build.NewTx(e.NetworkID, e.BaseFee)
	ms = append([]build.TxMutator{&build.Source{Account: acc}, &build.Timeout{Seconds: 30, Now: time.Now()}}, ms...)
	if err := tx.Add(ms...); err != nil {
		return nil, fmt.Errorf("build tx failed: %v", err)
	}
	env, err := tx.Sign(kp)
	if err != nil {
		return nil, fmt.Errorf("sign tx failed: %v", err)
	}
	result, err := e.Client.SubmitTx(ctx, env)
	if err != nil {
		return nil, err
	}

	status, err := e.Client.QueryTx(ctx, result.Hash)
	if err != nil {
		return nil, fmt.Errorf("query tx failed: %v", err)
	}
	if status.StatusCode != types.Confirmed {
		return nil, fmt.Errorf("tx %s is %s", result.Hash, status.StatusCode)
	}
	return result, nil
}
