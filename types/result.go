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

package types

import (
	"errors"
	"fmt"
	"strings"
)

// Transaction level result codes.
const (
	TxSuccess             = "tx_success"
	TxFailed              = "tx_failed"
	TxTooEarly            = "tx_too_early"
	TxTooLate             = "tx_too_late"
	TxMissingOperation    = "tx_missing_operation"
	TxBadSeq              = "tx_bad_seq"
	TxBadAuth             = "tx_bad_auth"
	TxInsufficientBalance = "tx_insufficient_balance"
	TxNoAccount           = "tx_no_source_account"
	TxInsufficientFee     = "tx_insufficient_fee"
	TxMalformed           = "tx_malformed"
	TxDuplicate           = "tx_duplicate"
	TxInternalError       = "tx_internal_error"
)

// Operation level result codes.
const (
	OpSuccess       = "op_success"
	OpMalformed     = "op_malformed"
	OpUnderfunded   = "op_underfunded"
	OpLowReserve    = "op_low_reserve"
	OpAlreadyExists = "op_already_exists"
	OpNoDestination = "op_no_destination"
	OpNoTrust       = "op_no_trust"
	OpNoIssuer      = "op_no_issuer"
	OpLineFull      = "op_line_full"
	OpInvalidLimit  = "op_invalid_limit"
	OpNotAuthorized = "op_not_authorized"
	OpNotSupported  = "op_not_supported"
	OpSkipped       = "op_skipped"
	OpDataNotFound  = "op_data_not_found"
)

var (
	// The tx sequence number did not match the source account,
	// the tx can be rebuilt with a fresh sequence and resubmitted.
	ErrSequenceConflict = errors.New("sequence conflict")
	// The validity window of the tx elapsed before it was applied.
	ErrTimeoutExpired = errors.New("transaction timeout expired")
	// A required signature is missing or invalid.
	ErrBadAuth = errors.New("signature verification failed")
)

// SubmitResult is the result of an applied transaction.
type SubmitResult struct {
	Hash       string `json:"hash"`
	Ledger     uint64 `json:"ledger"`
	Successful bool   `json:"successful"`
	FeeCharged int64  `json:"fee_charged,string"`
}

// ResultCodes are the transaction and per operation result codes
// of a rejected transaction.
type ResultCodes struct {
	Transaction string   `json:"transaction"`
	Operations  []string `json:"operations,omitempty"`
}

// SubmitError is a structured rejection of a submitted transaction.
type SubmitError struct {
	Status int         `json:"status"`
	Hash   string      `json:"hash,omitempty"`
	Codes  ResultCodes `json:"result_codes"`
}

func (e *SubmitError) Error() string {
	if len(e.Codes.Operations) == 0 {
		return fmt.Sprintf("transaction rejected: %s", e.Codes.Transaction)
	}
	return fmt.Sprintf("transaction rejected: %s [%s]", e.Codes.Transaction, strings.Join(e.Codes.Operations, ", "))
}

// Is maps the rejection classes callers branch on to sentinel errors.
func (e *SubmitError) Is(target error) bool {
	switch target {
	case ErrSequenceConflict:
		return e.Codes.Transaction == TxBadSeq
	case ErrTimeoutExpired:
		return e.Codes.Transaction == TxTooLate
	case ErrBadAuth:
		return e.Codes.Transaction == TxBadAuth
	}
	return false
}

// SequenceConsumed reports whether the source account sequence
// advanced despite the rejection.
func (e *SubmitError) SequenceConsumed() bool {
	return e.Codes.Transaction == TxFailed
}

// TxStatusCode represents the status of a tx in the ledger.
type TxStatusCode uint8

const (
	// The tx does not exist.
	NotExist TxStatusCode = iota
	// The tx was rejected before being applied.
	Rejected
	// The tx has been applied successfully.
	Confirmed
	// The tx was applied but its operations failed, the fee
	// was charged and the sequence consumed.
	Failed
	// The tx is failed because of some internal errors.
	Unknown
)

func (ts TxStatusCode) String() string {
	switch ts {
	case NotExist:
		return "not exist"
	case Rejected:
		return "rejected"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	case Unknown:
		return "unknown"
	}
	return ""
}

// TxStatus represents the status of a submitted tx.
type TxStatus struct {
	StatusCode TxStatusCode `json:"status_code"`
	Hash       string       `json:"hash"`
	Ledger     uint64       `json:"ledger,omitempty"`
	Codes      ResultCodes  `json:"result_codes"`
}

// Problem is the JSON error body of the ledger endpoints.
type Problem struct {
	Title  string         `json:"title"`
	Status int            `json:"status"`
	Detail string         `json:"detail,omitempty"`
	Extras *ProblemExtras `json:"extras,omitempty"`
}

// ProblemExtras carries the result codes of a rejected transaction.
type ProblemExtras struct {
	Hash        string      `json:"hash,omitempty"`
	ResultCodes ResultCodes `json:"result_codes"`
}

// SubmitError converts the problem to a structured rejection.
func (p *Problem) SubmitError() *SubmitError {
	se := &SubmitError{Status: p.Status}
	if p.Extras != nil {
		se.Hash = p.Extras.Hash
		se.Codes = p.Extras.ResultCodes
	}
	if se.Codes.Transaction == "" {
		se.Codes.Transaction = TxMalformed
	}
	return se
}
