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


package tx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/ultiledger/go-ultimint/account"
	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/db"
	"github.com/ultiledger/go-ultimint/future"
	"github.com/ultiledger/go-ultimint/ledger"
	"github.com/ultiledger/go-ultimint/tx/op"
	"github.com/ultiledger/go-ultimint/types"
)

var ErrStopped = errors.New("tx manager stopped")

const txBucket = "TX"

type ManagerContext struct {
	Database  db.Database      // database instance
	AM        *account.Manager // account manager
	LM        *ledger.Manager  // ledger manager
	NetworkID [32]byte         // network the txs are bound to
	Logger    *zap.SugaredLogger
}

func ValidateManagerContext(mc *ManagerContext) error {
	if mc == nil {
		return fmt.Errorf("tx context is nil")
	}
	if mc.Database == nil {
		return fmt.Errorf("database instance is nil")
	}
	if mc.AM == nil {
		return fmt.Errorf("account manager is nil")
	}
	if mc.LM == nil {
		return fmt.Errorf("ledger manager is nil")
	}
	if mc.Logger == nil {
		return fmt.Errorf("logger is nil")
	}
	return nil
}

// Manager validates and applies signed envelopes one at a time.
// Envelopes are handed to a single goroutine so that the checks
// on an account and the writes to it never interleave.
type Manager struct {
	database  db.Database
	networkID [32]byte

	am *account.Manager
	lm *ledger.Manager

	logger *zap.SugaredLogger

	// recent transactions status
	txStatus *lru.Cache[string, *types.TxStatus]

	// channel for txs waiting to be applied
	txChan chan *future.Tx
	// channel for stopping goroutines
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewManager(ctx *ManagerContext) (*Manager, error) {
	if err := ValidateManagerContext(ctx); err != nil {
		return nil, fmt.Errorf("tx manager context is invalid: %v", err)
	}
	m := &Manager{
		database:  ctx.Database,
		networkID: ctx.NetworkID,
		am:        ctx.AM,
		lm:        ctx.LM,
		logger:    ctx.Logger,
		txChan:    make(chan *future.Tx),
		stopChan:  make(chan struct{}),
	}
	err := m.database.NewBucket(txBucket)
	if err != nil {
		return nil, fmt.Errorf("create tx bucket failed: %v", err)
	}
	cache, err := lru.New[string, *types.TxStatus](1000)
	if err != nil {
		return nil, fmt.Errorf("create tx status LRU cache failed: %v", err)
	}
	m.txStatus = cache
	return m, nil
}

func (m *Manager) Start() {
	go func() {
		for {
			select {
			case txf := <-m.txChan:
				result, err := m.apply(txf.Env)
				txf.Result = result
				txf.Respond(err)
			case <-m.stopChan:
				return
			}
		}
	}()
}

func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

// LoadAccount returns the current snapshot of the account.
func (m *Manager) LoadAccount(ctx context.Context, accountID string) (*types.Account, error) {
	acc, err := m.am.View(m.database, accountID)
	if err == account.ErrAccountNotExist {
		return nil, types.ErrAccountNotFound
	}
	return acc, err
}

// SubmitTx queues the envelope and waits until it is applied or
// rejected. A rejection is returned as *types.SubmitError.
func (m *Manager) SubmitTx(ctx context.Context, env *types.Envelope) (*types.SubmitResult, error) {
	select {
	case <-m.stopChan:
		return nil, ErrStopped
	default:
	}

	txf := &future.Tx{Env: env}
	txf.Init()

	select {
	case m.txChan <- txf:
	case <-m.stopChan:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := txf.Wait(ctx); err != nil {
		return nil, err
	}
	return txf.Result, nil
}

// GetTxStatus returns the status of the tx with the given hash key.
func (m *Manager) GetTxStatus(txKey string) (*types.TxStatus, error) {
	if status, ok := m.txStatus.Get(txKey); ok {
		s := *status
		return &s, nil
	}

	status := &types.TxStatus{Hash: txKey}
	b, err := m.database.Get(txBucket, []byte(txKey))
	if err != nil {
		return nil, err
	}
	if b == nil {
		status.StatusCode = types.NotExist
		return status, nil
	}

	if err := json.Unmarshal(b, status); err != nil {
		return nil, fmt.Errorf("decode status failed: %v", err)
	}

	return status, nil
}

func (m *Manager) updateTxStatus(status *types.TxStatus) error {
	m.txStatus.Add(status.Hash, status)

	// only applied txs are persisted
	if status.StatusCode != types.Confirmed && status.StatusCode != types.Failed {
		return nil
	}

	b, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode status failed: %v", err)
	}

	err = m.database.Put(txBucket, []byte(status.Hash), b)
	if err != nil {
		return fmt.Errorf("save status in db failed: %v", err)
	}

	return nil
}

func (m *Manager) reject(txKey string, code string, opCodes []string) error {
	status := &types.TxStatus{
		StatusCode: types.Rejected,
		Hash:       txKey,
		Codes:      types.ResultCodes{Transaction: code, Operations: opCodes},
	}
	if err := m.updateTxStatus(status); err != nil {
		m.logger.Errorw("update tx status failed", "tx", txKey, "err", err)
	}
	m.logger.Infow("tx rejected", "tx", txKey, "code", code)
	return &types.SubmitError{
		Status: http.StatusBadRequest,
		Hash:   txKey,
		Codes:  status.Codes,
	}
}

// validate runs the checks which reject a tx without charging
// its fee and returns the source account.
func (m *Manager) validate(txKey string, hash [32]byte, env *types.Envelope) (*account.Account, int64, error) {
	tx := &env.Tx

	if status, _ := m.GetTxStatus(txKey); status != nil {
		if status.StatusCode == types.Confirmed || status.StatusCode == types.Failed {
			return nil, 0, m.reject(txKey, types.TxDuplicate, nil)
		}
	}
	if len(tx.Operations) == 0 {
		return nil, 0, m.reject(txKey, types.TxMissingOperation, nil)
	}
	if !crypto.IsValidAccountKey(tx.SourceAccount) {
		return nil, 0, m.reject(txKey, types.TxMalformed, nil)
	}

	now := m.lm.Now().Unix()
	if tx.TimeBounds.MinTime > 0 && now < tx.TimeBounds.MinTime {
		return nil, 0, m.reject(txKey, types.TxTooEarly, nil)
	}
	if tx.TimeBounds.MaxTime > 0 && now > tx.TimeBounds.MaxTime {
		return nil, 0, m.reject(txKey, types.TxTooLate, nil)
	}

	acc, err := m.am.GetAccount(m.database, tx.SourceAccount)
	if err == account.ErrAccountNotExist {
		return nil, 0, m.reject(txKey, types.TxNoAccount, nil)
	}
	if err != nil {
		return nil, 0, err
	}

	fee := m.lm.BaseFee() * int64(len(tx.Operations))
	if tx.Fee < fee {
		return nil, 0, m.reject(txKey, types.TxInsufficientFee, nil)
	}

	if tx.SeqNum != acc.SeqNum+1 {
		return nil, 0, m.reject(txKey, types.TxBadSeq, nil)
	}

	if !m.verifySignatures(hash, env) {
		return nil, 0, m.reject(txKey, types.TxBadAuth, nil)
	}

	if acc.Balance-fee < op.MinBalance(acc.EntryCount, m.lm.BaseReserve()) {
		return nil, 0, m.reject(txKey, types.TxInsufficientBalance, nil)
	}

	return acc, fee, nil
}

// verifySignatures checks that every signature is valid and that
// every distinct source account of the tx has signed.
func (m *Manager) verifySignatures(hash [32]byte, env *types.Envelope) bool {
	required := mapset.NewThreadUnsafeSet(env.Tx.Signers()...)
	signed := mapset.NewThreadUnsafeSet[string]()
	for _, sig := range env.Signatures {
		if !crypto.Verify(sig.Signer, sig.Signature, hash[:]) {
			return false
		}
		signed.Add(sig.Signer)
	}
	return signed.IsSuperset(required)
}

func (m *Manager) apply(env *types.Envelope) (*types.SubmitResult, error) {
	if env == nil {
		return nil, &types.SubmitError{Status: http.StatusBadRequest, Codes: types.ResultCodes{Transaction: types.TxMalformed}}
	}
	hash, err := env.Tx.Hash(m.networkID)
	if err != nil {
		return nil, &types.SubmitError{Status: http.StatusBadRequest, Codes: types.ResultCodes{Transaction: types.TxMalformed}}
	}
	txKey := crypto.TxKey(hash)

	acc, fee, err := m.validate(txKey, hash, env)
	if err != nil {
		return nil, err
	}

	// charge the fee and consume the sequence number, these
	// survive a failure of the operations
	if err := m.chargeFee(acc, fee, env.Tx.SeqNum); err != nil {
		m.logger.Errorw("charge tx fee failed", "tx", txKey, "err", err)
		return nil, m.reject(txKey, types.TxInternalError, nil)
	}

	opCodes, opErr := m.applyOps(env)

	header, err := m.lm.CloseLedger(m.database, []string{txKey})
	if err != nil {
		m.logger.Errorw("close ledger failed", "tx", txKey, "err", err)
		return nil, m.reject(txKey, types.TxInternalError, nil)
	}

	status := &types.TxStatus{
		StatusCode: types.Confirmed,
		Hash:       txKey,
		Ledger:     header.SeqNum,
		Codes:      types.ResultCodes{Transaction: types.TxSuccess, Operations: opCodes},
	}
	if opErr != nil {
		status.StatusCode = types.Failed
		status.Codes.Transaction = types.TxFailed
	}
	if err := m.updateTxStatus(status); err != nil {
		m.logger.Errorw("update tx status failed", "tx", txKey, "err", err)
	}

	if opErr != nil {
		m.logger.Infow("tx failed", "tx", txKey, "ledger", header.SeqNum, "codes", opCodes, "err", opErr)
		return nil, &types.SubmitError{
			Status: http.StatusBadRequest,
			Hash:   txKey,
			Codes:  status.Codes,
		}
	}

	m.logger.Infow("tx applied", "tx", txKey, "ledger", header.SeqNum, "ops", len(env.Tx.Operations))
	result := &types.SubmitResult{
		Hash:       txKey,
		Ledger:     header.SeqNum,
		Successful: true,
		FeeCharged: fee,
	}
	return result, nil
}

func (m *Manager) chargeFee(acc *account.Account, fee int64, seqNum uint64) error {
	dt, err := m.database.Begin()
	if err != nil {
		return err
	}
	if err := m.am.SubBalance(acc, fee); err != nil {
		dt.Rollback()
		return err
	}
	acc.SeqNum = seqNum
	if err := m.am.SaveAccount(dt, acc); err != nil {
		dt.Rollback()
		return err
	}
	return dt.Commit()
}

// applyOps applies the operations atomically: either all of them
// take effect or none does.
func (m *Manager) applyOps(env *types.Envelope) ([]string, error) {
	codes := make([]string, len(env.Tx.Operations))
	for i := range codes {
		codes[i] = types.OpSkipped
	}

	dt, err := m.database.Begin()
	if err != nil {
		return codes, err
	}

	// accounts created in this ledger start their sequence from it
	seqNum := (m.lm.Latest().SeqNum + 1) << 32
	baseReserve := m.lm.BaseReserve()

	for i := range env.Tx.Operations {
		o, err := op.Decode(m.am, env.Tx.SourceAccount, &env.Tx.Operations[i], baseReserve, seqNum)
		if err == nil {
			err = o.Apply(dt)
		}
		if err != nil {
			codes[i] = op.ResultCode(err)
			dt.Rollback()
			return codes, err
		}
		codes[i] = types.OpSuccess
	}

	if err := dt.Commit(); err != nil {
		for i := range codes {
			codes[i] = types.OpSkipped
		}
		return codes, err
	}
	return codes, nil
}
