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
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/types"
)

// Tx serves as the main object for building an transaction.
type Tx struct {
	Tx *types.Transaction

	networkID [32]byte
	baseFee   int64
}

// NewTx creates a builder bound to the network and the per
// operation base fee.
func NewTx(networkID [32]byte, baseFee int64) *Tx {
	return &Tx{
		Tx:        &types.Transaction{},
		networkID: networkID,
		baseFee:   baseFee,
	}
}

// Add adds one or more mutators to the underlying transaction
// builder and if any of the mutation fails the method fails.
func (t *Tx) Add(ms ...TxMutator) error {
	var err error

	for _, m := range ms {
		err = m.Mutate(t.Tx)
		if err != nil {
			return err
		}
	}

	// add a fee mutator to compute the total fee
	fm := Fee{BaseFee: t.baseFee}
	err = fm.Mutate(t.Tx)
	if err != nil {
		return err
	}

	// check the validity of tx
	if err := t.validate(); err != nil {
		return fmt.Errorf("tx is invalid: %w", err)
	}

	return nil
}

func (t *Tx) validate() error {
	if t.Tx.SourceAccount == "" {
		return ErrNoAccount
	}
	if len(t.Tx.Operations) == 0 {
		return ErrEmptyOps
	}
	return nil
}

// Build returns the transaction after a final validity check.
func (t *Tx) Build() (*types.Transaction, error) {
	if t.Tx == nil {
		return nil, ErrNilTx
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("tx is invalid: %w", err)
	}
	return t.Tx, nil
}

// RequiredSigners returns the distinct accounts whose signatures
// the transaction needs.
func (t *Tx) RequiredSigners() mapset.Set[string] {
	return mapset.NewSet(t.Tx.Signers()...)
}

// Sign signs the transaction hash with every distinct keypair and
// wraps the result in an envelope. Keypairs which are not required
// by the transaction are ignored.
func (t *Tx) Sign(kps ...*crypto.Keypair) (*types.Envelope, error) {
	if t.Tx == nil {
		return nil, ErrNilTx
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("tx is invalid: %w", err)
	}
	if len(kps) == 0 {
		return nil, errors.New("no signing keypair")
	}

	hash, err := t.Tx.Hash(t.networkID)
	if err != nil {
		return nil, err
	}

	required := t.RequiredSigners()
	signed := mapset.NewThreadUnsafeSet[string]()
	env := &types.Envelope{Tx: *t.Tx}
	for _, kp := range kps {
		if kp == nil {
			return nil, errors.New("nil keypair")
		}
		id := kp.AccountID()
		if !required.Contains(id) || signed.Contains(id) {
			continue
		}
		signed.Add(id)
		env.Signatures = append(env.Signatures, types.Signature{
			Signer:    id,
			Signature: kp.Sign(hash[:]),
		})
	}
	if len(env.Signatures) == 0 {
		return nil, errors.New("no keypair matches the required signers")
	}

	return env, nil
}

// Get the tx key.
func (t *Tx) GetTxKey() (string, error) {
	if t.Tx == nil {
		return "", ErrNilTx
	}

	hash, err := t.Tx.Hash(t.networkID)
	if err != nil {
		return "", err
	}

	return crypto.TxKey(hash), nil
}
