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

	"github.com/ultiledger/go-ultimint/build"
	"github.com/ultiledger/go-ultimint/types"
)

func init() {
	Register(&TrustlinePayment{})
}

// TrustlinePayment tests that an issued asset can only be paid to
// an account trusting it.
type TrustlinePayment struct{}

func (p *TrustlinePayment) Desc() string {
	return "testcase: trustline payment"
}

func (p *TrustlinePayment) Run(ctx context.Context, env *Env) error {
	issuer, _, err := env.newFundedAccount(ctx)
	if err != nil {
		return fmt.Errorf("create issuer failed: %v", err)
	}
	holder, _, err := env.newFundedAccount(ctx)
	if err != nil {
		return fmt.Errorf("create holder failed: %v", err)
	}
	asset := types.NewAsset("TEST", issuer.AccountID())
	pay := &build.Payment{Destination: holder.AccountID(), Asset: asset, Amount: 100}

	_, err = env.submit(ctx, issuer, pay)
	var se *types.SubmitError
	if !errors.As(err, &se) || len(se.Codes.Operations) != 1 || se.Codes.Operations[0] != types.OpNoTrust {
		return fmt.Errorf("expected %s, got %v", types.OpNoTrust, err)
	}

	if _, err := env.submit(ctx, holder, &build.Trust{Asset: asset}); err != nil {
		return fmt.Errorf("submit trust failed: %v", err)
	}
	if _, err := env.submit(ctx, issuer, pay); err != nil {
		return fmt.Errorf("submit payment failed: %v", err)
	}

	acc, err := env.Client.LoadAccount(ctx, holder.AccountID())
	if err != nil {
		return err
	}
	for _, b := range acc.Balances {
		if b.Asset.Equal(asset) {
			if b.Balance != 100 {
				return fmt.Errorf("holder with unexpected balance: %d", b.Balance)
			}
			return nil
		}
	}
	return errors.New("holder has no trustline")
}
