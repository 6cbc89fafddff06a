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


package mint

import (
	"errors"
	"fmt"

	"github.com/ultiledger/go-ultimint/types"
)

// Failure kinds of an orchestration step.
var (
	ErrUpload      = errors.New("upload error")
	ErrAccountLoad = errors.New("account load error")
	ErrTrustline   = errors.New("trustline error")
	ErrMetadata    = errors.New("metadata error")
	ErrPayment     = errors.New("payment error")
	ErrFunding     = errors.New("funding error")
)

var (
	ErrUnknownRole     = errors.New("unknown account role")
	ErrNoAssets        = errors.New("no assets")
	ErrInvalidAmount   = errors.New("amount is not positive")
	ErrDataNotFound    = errors.New("metadata entry not found")
	ErrSameAccount     = errors.New("source and destination are the same account")
	ErrPayloadConflict = errors.New("asset has both payload and cid")
)

// StepError is the terminal failure of an orchestration run. It
// matches its Kind and unwraps to its cause, so both
// errors.Is(err, ErrPayment) and errors.Is(err, types.ErrTimeoutExpired)
// hold for a payment whose validity window elapsed.
type StepError struct {
	Step Step
	Kind error
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %v: %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (e *StepError) Is(target error) bool {
	return target == e.Kind
}

// Code is the error code reported to clients.
func (e *StepError) Code() string {
	switch {
	case errors.Is(e.Err, types.ErrTimeoutExpired):
		return "timeout_expired"
	case errors.Is(e.Err, types.ErrSequenceConflict):
		return "sequence_conflict"
	}
	switch e.Kind {
	case ErrUpload:
		return "upload_error"
	case ErrAccountLoad:
		return "account_load_error"
	case ErrTrustline:
		return "trustline_error"
	case ErrMetadata:
		return "metadata_error"
	case ErrPayment:
		return "payment_error"
	case ErrFunding:
		return "funding_error"
	}
	return "internal_error"
}

// SubmitError returns the ledger rejection behind the failure.
func (e *StepError) SubmitError() (*types.SubmitError, bool) {
	var se *types.SubmitError
	if errors.As(e.Err, &se) {
		return se, true
	}
	return nil, false
}

// loadError marks a failed account read inside a step.
func loadError(accountID string, err error) error {
	return fmt.Errorf("%w %s: %w", ErrAccountLoad, accountID, err)
}
