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
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ultiledger/go-ultimint/crypto"
)

type OpType string

const (
	OpCreateAccount OpType = "create_account"
	OpChangeTrust   OpType = "change_trust"
	OpManageData    OpType = "manage_data"
	OpPayment       OpType = "payment"
)

// MaxTrustLimit is the limit of a trustline created without
// an explicit limit.
const MaxTrustLimit = int64(1<<63 - 1)

// Operation is one instruction of a transaction. Exactly one of
// the body fields matching Type is set.
type Operation struct {
	Type OpType `json:"type"`
	// Optional source account overriding the tx source.
	SourceAccount string `json:"source_account,omitempty"`

	CreateAccount *CreateAccountOp `json:"create_account,omitempty"`
	ChangeTrust   *ChangeTrustOp   `json:"change_trust,omitempty"`
	ManageData    *ManageDataOp    `json:"manage_data,omitempty"`
	Payment       *PaymentOp       `json:"payment,omitempty"`
}

type CreateAccountOp struct {
	Destination     string `json:"destination"`
	StartingBalance int64  `json:"starting_balance,string"`
}

// ChangeTrustOp creates, updates or (with a zero limit) removes a trustline.
type ChangeTrustOp struct {
	Asset Asset `json:"asset"`
	Limit int64 `json:"limit,string"`
}

// ManageDataOp sets a data entry; a nil value removes it.
type ManageDataOp struct {
	Name  string `json:"name"`
	Value []byte `json:"value,omitempty"`
}

type PaymentOp struct {
	Destination string `json:"destination"`
	Asset       Asset  `json:"asset"`
	Amount      int64  `json:"amount,string"`
}

// TimeBounds is the validity window of a transaction in unix seconds,
// zero MaxTime means no upper bound.
type TimeBounds struct {
	MinTime int64 `json:"min_time"`
	MaxTime int64 `json:"max_time"`
}

// Transaction is an ordered list of operations from a source account.
type Transaction struct {
	SourceAccount string      `json:"source_account"`
	SeqNum        uint64      `json:"seq_num,string"`
	Fee           int64       `json:"fee"`
	TimeBounds    TimeBounds  `json:"time_bounds"`
	Memo          string      `json:"memo,omitempty"`
	Operations    []Operation `json:"operations"`
}

// Payload returns the bytes covered by signatures: the network
// ID followed by the canonical encoding of the transaction.
func (tx *Transaction) Payload(networkID [32]byte) ([]byte, error) {
	b, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("encode tx failed: %v", err)
	}
	var buf bytes.Buffer
	buf.Write(networkID[:])
	buf.Write(b)
	return buf.Bytes(), nil
}

// Hash computes the network bound hash of the transaction.
func (tx *Transaction) Hash(networkID [32]byte) ([32]byte, error) {
	payload, err := tx.Payload(networkID)
	if err != nil {
		return [32]byte{}, err
	}
	return crypto.SHA256HashBytes(payload), nil
}

// Signers returns the distinct accounts whose signatures the
// transaction requires, tx source first.
func (tx *Transaction) Signers() []string {
	seen := map[string]struct{}{tx.SourceAccount: {}}
	signers := []string{tx.SourceAccount}
	for _, op := range tx.Operations {
		if op.SourceAccount == "" {
			continue
		}
		if _, ok := seen[op.SourceAccount]; ok {
			continue
		}
		seen[op.SourceAccount] = struct{}{}
		signers = append(signers, op.SourceAccount)
	}
	return signers
}

// Signature is a signature decorated with the signing account.
type Signature struct {
	Signer    string `json:"signer"`
	Signature string `json:"signature"`
}

// Envelope is a transaction with its signatures.
type Envelope struct {
	Tx         Transaction `json:"tx"`
	Signatures []Signature `json:"signatures"`
}

// EncodeEnvelope encodes the envelope for submission.
func EncodeEnvelope(env *Envelope) (string, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("encode envelope failed: %v", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeEnvelope decodes an envelope produced by EncodeEnvelope.
func DecodeEnvelope(s string) (*Envelope, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode envelope base64 failed: %v", err)
	}
	env := &Envelope{}
	if err := json.Unmarshal(b, env); err != nil {
		return nil, fmt.Errorf("decode envelope failed: %v", err)
	}
	return env, nil
}
