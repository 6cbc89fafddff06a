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

package build

import (
	"errors"
	"time"

	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/types"
)

var (
	ErrNilTx     = errors.New("tx is nil")
	ErrEmptyOps  = errors.New("empty op list")
	ErrNoAccount = errors.New("empty account id")
)

const (
	maxMemoLen      = 128
	maxDataNameLen  = 64
	maxDataValueLen = 64
)

// TxMutator defines the method which all the transaction
// mutators should implement.
type TxMutator interface {
	Mutate(tx *types.Transaction) error
}

func validateSource(source string) error {
	if source == "" {
		return nil
	}
	if !crypto.IsValidAccountKey(source) {
		return errors.New("invalid operation source account key")
	}
	return nil
}

// AccountID sets the SourceAccount field in the Tx.
type AccountID struct {
	AccountID string
}

func (a *AccountID) validate() error {
	if a.AccountID == "" {
		return ErrNoAccount
	}
	// Check whether the account id is valid ULTKey.
	if !crypto.IsValidAccountKey(a.AccountID) {
		return errors.New("invalid account key")
	}
	return nil
}

// Mutate changes the corresponding SourceAccount field of the Tx.
func (a *AccountID) Mutate(tx *types.Transaction) error {
	if tx == nil {
		return ErrNilTx
	}
	if err := a.validate(); err != nil {
		return err
	}
	tx.SourceAccount = a.AccountID
	return nil
}

// SeqNum sets the SeqNum field in the tx.
type SeqNum struct {
	SeqNum uint64
}

func (s *SeqNum) validate() error {
	if s.SeqNum == 0 {
		return errors.New("seqnum is zero")
	}
	return nil
}

// Mutate changes the corresponding SeqNum field of the Tx.
func (s *SeqNum) Mutate(tx *types.Transaction) error {
	if tx == nil {
		return ErrNilTx
	}
	if err := s.validate(); err != nil {
		return err
	}
	tx.SeqNum = s.SeqNum
	return nil
}

// Source binds the tx to a freshly loaded account: the account
// becomes the tx source and the tx takes the next sequence number.
type Source struct {
	Account *types.Account
}

// Mutate sets both SourceAccount and SeqNum of the Tx.
func (s *Source) Mutate(tx *types.Transaction) error {
	if tx == nil {
		return ErrNilTx
	}
	if s.Account == nil {
		return errors.New("source account is nil")
	}
	if err := (&AccountID{AccountID: s.Account.AccountID}).Mutate(tx); err != nil {
		return err
	}
	return (&SeqNum{SeqNum: s.Account.SeqNum + 1}).Mutate(tx)
}

// Memo sets the Memo field in the tx.
type Memo struct {
	Memo string
}

func (m *Memo) validate() error {
	if len(m.Memo) > maxMemoLen {
		return errors.New("memo is too long")
	}
	return nil
}

// Mutate changes the corresponding Memo field of the Tx.
func (m *Memo) Mutate(tx *types.Transaction) error {
	if tx == nil {
		return ErrNilTx
	}
	if err := m.validate(); err != nil {
		return err
	}
	tx.Memo = m.Memo
	return nil
}

// Timeout sets the upper time bound of the Tx to Now plus Seconds.
// A zero Now means the current time.
type Timeout struct {
	Seconds int64
	Now     time.Time
}

func (t *Timeout) validate() error {
	if t.Seconds <= 0 {
		return errors.New("timeout is not positive")
	}
	return nil
}

// Mutate changes the TimeBounds field of the Tx.
func (t *Timeout) Mutate(tx *types.Transaction) error {
	if tx == nil {
		return ErrNilTx
	}
	if err := t.validate(); err != nil {
		return err
	}
	now := t.Now
	if now.IsZero() {
		now = time.Now()
	}
	tx.TimeBounds = types.TimeBounds{MaxTime: now.Unix() + t.Seconds}
	return nil
}

// Fee computes the total fees for the Tx.
type Fee struct {
	BaseFee int64
}

func (f *Fee) validate() error {
	if f.BaseFee < 0 {
		return errors.New("base fee is negative")
	}
	return nil
}

// Mutate changes the corresponding Fee field of the Tx.
func (f *Fee) Mutate(tx *types.Transaction) error {
	if tx == nil {
		return ErrNilTx
	}
	if err := f.validate(); err != nil {
		return err
	}
	tx.Fee = f.BaseFee * int64(len(tx.Operations))
	return nil
}

// CreateAccount adds a CreateAccount op to the Operations of tx.
type CreateAccount struct {
	Destination     string
	StartingBalance int64
	Source          string
}

func (ca *CreateAccount) validate() error {
	if len(ca.Destination) == 0 {
		return errors.New("empty account id")
	}
	if ca.StartingBalance <= 0 {
		return errors.New("starting balance is not positive")
	}
	if !crypto.IsValidAccountKey(ca.Destination) {
		return errors.New("invalid account key")
	}
	return validateSource(ca.Source)
}

// Mutate appends a CreateAccount op to the Operations.
func (ca *CreateAccount) Mutate(tx *types.Transaction) error {
	if tx == nil {
		return ErrNilTx
	}
	if err := ca.validate(); err != nil {
		return err
	}
	tx.Operations = append(tx.Operations, types.Operation{
		Type:          types.OpCreateAccount,
		SourceAccount: ca.Source,
		CreateAccount: &types.CreateAccountOp{
			Destination:     ca.Destination,
			StartingBalance: ca.StartingBalance,
		},
	})
	return nil
}

// Trust adds a change-trust operation to the Operations of the Tx.
// A zero Limit trusts the asset up to the maximum amount.
type Trust struct {
	Asset  types.Asset
	Limit  int64
	Source string
}

func (t *Trust) validate() error {
	if t.Limit < 0 {
		return errors.New("negative trust limit")
	}
	if t.Asset.IsNative() {
		return errors.New("native asset needs no trust")
	}
	if err := t.Asset.Validate(); err != nil {
		return err
	}
	return validateSource(t.Source)
}

// Mutate appends a change-trust operation to the Operations of the Tx.
func (t *Trust) Mutate(tx *types.Transaction) error {
	if tx == nil {
		return ErrNilTx
	}
	if err := t.validate(); err != nil {
		return err
	}
	limit := t.Limit
	if limit == 0 {
		limit = types.MaxTrustLimit
	}
	tx.Operations = append(tx.Operations, types.Operation{
		Type:          types.OpChangeTrust,
		SourceAccount: t.Source,
		ChangeTrust: &types.ChangeTrustOp{
			Asset: t.Asset,
			Limit: limit,
		},
	})
	return nil
}

// ManageData adds a manage-data operation to the Operations of the Tx.
// A nil Value removes the entry.
type ManageData struct {
	Name   string
	Value  []byte
	Source string
}

func (md *ManageData) validate() error {
	if len(md.Name) == 0 || len(md.Name) > maxDataNameLen {
		return errors.New("invalid data name")
	}
	if len(md.Value) > maxDataValueLen {
		return errors.New("data value is too long")
	}
	return validateSource(md.Source)
}

// Mutate appends a manage-data operation to the Operations of the Tx.
func (md *ManageData) Mutate(tx *types.Transaction) error {
	if tx == nil {
		return ErrNilTx
	}
	if err := md.validate(); err != nil {
		return err
	}
	tx.Operations = append(tx.Operations, types.Operation{
		Type:          types.OpManageData,
		SourceAccount: md.Source,
		ManageData: &types.ManageDataOp{
			Name:  md.Name,
			Value: md.Value,
		},
	})
	return nil
}

// Payment adds a Payment operation to the Operations of the Tx.
type Payment struct {
	Destination string
	Asset       types.Asset
	Amount      int64
	Source      string
}

func (p *Payment) validate() error {
	if p.Amount <= 0 {
		return errors.New("payment amount is not positive")
	}
	if !crypto.IsValidAccountKey(p.Destination) {
		return errors.New("invalid account key")
	}
	if err := p.Asset.Validate(); err != nil {
		return err
	}
	return validateSource(p.Source)
}

// Mutate appends a Payment operation to the Operations of the Tx.
func (p *Payment) Mutate(tx *types.Transaction) error {
	if tx == nil {
		return ErrNilTx
	}
	if err := p.validate(); err != nil {
		return err
	}
	tx.Operations = append(tx.Operations, types.Operation{
		Type:          types.OpPayment,
		SourceAccount: p.Source,
		Payment: &types.PaymentOp{
			Destination: p.Destination,
			Asset:       p.Asset,
			Amount:      p.Amount,
		},
	})
	return nil
}
