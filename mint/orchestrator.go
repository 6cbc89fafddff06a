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
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ultiledger/go-ultimint/build"
	"github.com/ultiledger/go-ultimint/content"
	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/types"
)

// Ledger is the account query and submission endpoint. Both the
// HTTP client and the in-process sandbox node implement it.
type Ledger interface {
	LoadAccount(ctx context.Context, accountID string) (*types.Account, error)
	SubmitTx(ctx context.Context, env *types.Envelope) (*types.SubmitResult, error)
}

// Orchestrator drives the multi-step flows. Every step is its own
// transaction built on a freshly loaded source account.
type Orchestrator struct {
	config  *Config
	ledger  Ledger
	store   content.Store
	locks   *AccountLocks
	metrics *Metrics
	logger  *zap.SugaredLogger
}

// NewOrchestrator creates the orchestrator. The store may be nil
// when no flow uploads payloads, metrics may be nil when they are
// not exported and logger may be nil to discard the logs.
func NewOrchestrator(cfg *Config, ledger Ledger, store content.Store, metrics *Metrics, logger *zap.SugaredLogger) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if ledger == nil {
		return nil, errors.New("ledger is nil")
	}
	c := *cfg
	c.setDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	o := &Orchestrator{
		config:  &c,
		ledger:  ledger,
		store:   store,
		locks:   NewAccountLocks(),
		metrics: metrics,
		logger:  logger,
	}
	return o, nil
}

// Config returns a copy of the effective configuration.
func (o *Orchestrator) Config() Config {
	return *o.config
}

// run is the bookkeeping of one orchestration run.
type run struct {
	out    *Outcome
	logger *zap.SugaredLogger
	start  time.Time
}

func (o *Orchestrator) newRun(flow string, steps ...Step) *run {
	id := uuid.NewString()
	return &run{
		out:    newOutcome(id, flow, steps...),
		logger: o.logger.With("run_id", id, "flow", flow),
		start:  time.Now(),
	}
}

func (r *run) enter(state State) {
	r.out.State = state
	r.logger.Debugw("enter state", "state", state)
}

// observe records the duration of a finished step.
func (o *Orchestrator) observe(r *run, step Step, start time.Time) {
	res, _ := r.out.Step(step)
	o.metrics.Steps.WithLabelValues(string(step), string(res.Status)).Observe(time.Since(start).Seconds())
}

func (o *Orchestrator) finish(r *run) (*Outcome, error) {
	o.metrics.Runs.WithLabelValues(r.out.Flow, string(r.out.State)).Inc()
	if r.out.Err != nil {
		r.logger.Errorw("run failed", "step", r.out.Err.Step, "kind", r.out.Err.Kind, "err", r.out.Err.Err, "elapsed", time.Since(r.start))
		return r.out, r.out.Err
	}
	r.out.State = StateDone
	r.logger.Infow("run done", "elapsed", time.Since(r.start))
	return r.out, nil
}

// opsFunc returns the operations of one transaction sourced from
// the freshly loaded account. No operations means there is
// nothing left to submit.
type opsFunc func(acc *types.Account) []build.TxMutator

// submit runs one build-sign-submit cycle under the lock of the
// signing account. A sequence conflict reloads the account and
// rebuilds the transaction; every other failure is returned as is.
// The returned hash is empty when there was nothing to submit.
func (o *Orchestrator) submit(ctx context.Context, r *run, kp *crypto.Keypair, ops opsFunc) (string, error) {
	unlock, err := o.locks.Lock(ctx, kp.AccountID())
	if err != nil {
		return "", err
	}
	defer unlock()

	var hash string
	cycle := func() error {
		hash = ""
		acc, err := o.ledger.LoadAccount(ctx, kp.AccountID())
		if err != nil {
			return loadError(kp.AccountID(), err)
		}
		ms := ops(acc)
		if len(ms) == 0 {
			return nil
		}

		t := build.NewTx(o.config.NetworkID, o.config.BaseFee)
		ms = append([]build.TxMutator{
			&build.Source{Account: acc},
			&build.Timeout{Seconds: int64(o.config.TxTimeout / time.Second), Now: o.config.Clock()},
		}, ms...)
		if err := t.Add(ms...); err != nil {
			return err
		}
		env, err := t.Sign(kp)
		if err != nil {
			return err
		}

		result, err := o.ledger.SubmitTx(ctx, env)
		o.countSubmission(err)
		if err != nil {
			return err
		}
		hash = result.Hash
		r.logger.Infow("tx submitted", "source", acc.AccountID, "seq", env.Tx.SeqNum, "ops", len(env.Tx.Operations), "tx", result.Hash, "ledger", result.Ledger)
		return nil
	}

	err = retry.Do(cycle,
		retry.Context(ctx),
		retry.Attempts(o.config.RetryAttempts),
		retry.Delay(o.config.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, types.ErrSequenceConflict)
		}),
		retry.OnRetry(func(n uint, err error) {
			o.metrics.Retries.Inc()
			r.logger.Warnw("sequence conflict, rebuilding tx", "source", kp.AccountID(), "attempt", n+1, "err", err)
		}),
	)
	return hash, err
}

func (o *Orchestrator) countSubmission(err error) {
	code := types.TxSuccess
	if err != nil {
		code = "error"
		var se *types.SubmitError
		if errors.As(err, &se) {
			code = se.Codes.Transaction
		}
	}
	o.metrics.Submissions.WithLabelValues(code).Inc()
}

// submitChunks submits the items in consecutive transactions of at
// most MaxOpsPerTx operations each and returns the hashes of the
// committed transactions, including those committed before a
// failure.
func submitChunks[T any](ctx context.Context, o *Orchestrator, r *run, kp *crypto.Keypair, items []T, mutator func(acc *types.Account, chunk []T) []build.TxMutator) ([]string, error) {
	var hashes []string
	for _, chunk := range chunks(items, o.config.MaxOpsPerTx) {
		chunk := chunk
		hash, err := o.submit(ctx, r, kp, func(acc *types.Account) []build.TxMutator {
			return mutator(acc, chunk)
		})
		if err != nil {
			return hashes, err
		}
		if hash != "" {
			hashes = append(hashes, hash)
		}
	}
	return hashes, nil
}

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

// trustStep establishes the missing trustlines of the account
// holding kp. The step is skipped when nothing is missing.
func (o *Orchestrator) trustStep(ctx context.Context, r *run, kp *crypto.Keypair, assets []types.Asset) error {
	start := time.Now()
	defer o.observe(r, StepTrust, start)

	r.enter(StateReconcilingTrust)
	acc, err := o.ledger.LoadAccount(ctx, kp.AccountID())
	if err != nil {
		return r.out.fail(StepTrust, ErrAccountLoad, nil, loadError(kp.AccountID(), err))
	}
	missing := MissingTrustlines(acc, assets)
	if len(missing) == 0 {
		r.logger.Infow("trustlines exist", "account", kp.AccountID())
		r.out.skip(StepTrust)
		return nil
	}

	r.enter(StateSubmittingTrustTx)
	hashes, err := submitChunks(ctx, o, r, kp, missing, func(acc *types.Account, chunk []types.Asset) []build.TxMutator {
		// reconcile again, a retry or a concurrent run may have
		// created some of the lines meanwhile
		var ms []build.TxMutator
		for _, asset := range MissingTrustlines(acc, chunk) {
			ms = append(ms, &build.Trust{Asset: asset})
		}
		return ms
	})
	if err != nil {
		return r.out.fail(StepTrust, ErrTrustline, hashes, err)
	}
	if len(hashes) == 0 {
		r.out.skip(StepTrust)
		return nil
	}
	r.out.succeed(StepTrust, hashes)
	return nil
}

type dataEntry struct {
	name  string
	value string
}

// metadataStep writes one data entry per asset on the issuer.
func (o *Orchestrator) metadataStep(ctx context.Context, r *run, entries []dataEntry) error {
	start := time.Now()
	defer o.observe(r, StepMetadata, start)

	r.enter(StateAttachingMetadata)
	if len(entries) == 0 {
		r.out.skip(StepMetadata)
		return nil
	}

	r.enter(StateSubmittingMetadataTx)
	hashes, err := submitChunks(ctx, o, r, o.config.Issuer, entries, func(_ *types.Account, chunk []dataEntry) []build.TxMutator {
		var ms []build.TxMutator
		for _, e := range chunk {
			ms = append(ms, &build.ManageData{Name: e.name, Value: []byte(e.value)})
		}
		return ms
	})
	if err != nil {
		return r.out.fail(StepMetadata, ErrMetadata, hashes, err)
	}
	r.out.succeed(StepMetadata, hashes)
	return nil
}

// paymentStep pays amount of every asset from kp to destination.
func (o *Orchestrator) paymentStep(ctx context.Context, r *run, kp *crypto.Keypair, destination string, assets []types.Asset, amount int64) error {
	start := time.Now()
	defer o.observe(r, StepPayment, start)

	r.enter(StateIssuingPayment)
	r.enter(StateSubmittingPaymentTx)
	hashes, err := submitChunks(ctx, o, r, kp, assets, func(_ *types.Account, chunk []types.Asset) []build.TxMutator {
		var ms []build.TxMutator
		for _, asset := range chunk {
			ms = append(ms, &build.Payment{Destination: destination, Asset: asset, Amount: amount})
		}
		return ms
	})
	if err != nil {
		return r.out.fail(StepPayment, ErrPayment, hashes, err)
	}
	r.out.succeed(StepPayment, hashes)
	return nil
}
