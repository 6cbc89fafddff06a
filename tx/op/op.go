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

// Op applies one operation inside a database transaction.
type Op interface {
	Apply(dt db.Tx) error
}

// ResultError carries the result code of a failed operation.
type ResultError struct {
	Code string
	Err  error
}

func (e *ResultError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *ResultError) Unwrap() error {
	return e.Err
}

func fail(code string, err error) error {
	return &ResultError{Code: code, Err: err}
}

// ResultCode maps the error returned by Apply to a result code.
// Errors which are not a ResultError are not caused by the
// operation itself, which is reported as a malformed operation.
func ResultCode(err error) string {
	if err == nil {
		return types.OpSuccess
	}
	var re *ResultError
	if errors.As(err, &re) {
		return re.Code
	}
	return types.OpMalformed
}

// MinBalance is the native balance an account with the given
// number of sub-entries must keep.
func MinBalance(entryCount int32, baseReserve int64) int64 {
	return (2 + int64(entryCount)) * baseReserve
}

// Decode converts the operation to its applier. The source account
// of the operation overrides the tx source when present.
func Decode(am *account.Manager, txSource string, o *types.Operation, baseReserve int64, seqNum uint64) (Op, error) {
	src := txSource
	if o.SourceAccount != "" {
		src = o.SourceAccount
	}

	switch o.Type {
	case types.OpCreateAccount:
		if o.CreateAccount == nil {
			break
		}
		return &CreateAccount{
			AM:           am,
			SrcAccountID: src,
			DstAccountID: o.CreateAccount.Destination,
			Balance:      o.CreateAccount.StartingBalance,
			BaseReserve:  baseReserve,
			SeqNum:       seqNum,
		}, nil
	case types.OpChangeTrust:
		if o.ChangeTrust == nil {
			break
		}
		return &Trust{
			AM:           am,
			SrcAccountID: src,
			Asset:        o.ChangeTrust.Asset,
			Limit:        o.ChangeTrust.Limit,
			BaseReserve:  baseReserve,
		}, nil
	case types.OpManageData:
		if o.ManageData == nil {
			break
		}
		return &ManageData{
			AM:           am,
			SrcAccountID: src,
			Name:         o.ManageData.Name,
			Value:        o.ManageData.Value,
			BaseReserve:  baseReserve,
		}, nil
	case types.OpPayment:
		if o.Payment == nil {
			break
		}
		return &Payment{
			AM:           am,
			SrcAccountID: src,
			DstAccountID: o.Payment.Destination,
			Asset:        o.Payment.Asset,
			Amount:       o.Payment.Amount,
			BaseReserve:  baseReserve,
		}, nil
	default:
		return nil, fail(types.OpNotSupported, fmt.Errorf("unknown op type %s", o.Type))
	}
	return nil, fail(types.OpMalformed, fmt.Errorf("empty %s body", o.Type))
}
