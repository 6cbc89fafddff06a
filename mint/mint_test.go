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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ultiledger/go-ultimint/content"
	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/node"
	"github.com/ultiledger/go-ultimint/types"
)

var networkID = crypto.NetworkID("mint test")

// fixture is a sandbox node with funded issuer, distribution and
// receiving accounts behind a fault injecting ledger.
type fixture struct {
	node    *node.Node
	ledger  *faultLedger
	store   *content.Memory
	config  *Config
	metrics *Metrics
	orch    *Orchestrator
}

func newFixture(t *testing.T, store content.Store) *fixture {
	issuer, err := crypto.NewKeypair()
	require.NoError(t, err)
	distribution, err := crypto.NewKeypair()
	require.NoError(t, err)
	receiving, err := crypto.NewKeypair()
	require.NoError(t, err)

	logger := zaptest.NewLogger(t).Sugar()
	n, err := node.NewNode(&node.Config{
		NetworkID:       networkID,
		DBBackend:       "memdb",
		BaseFee:         100,
		BaseReserve:     1000,
		FriendbotAmount: 1000000,
		GenesisAccounts: []string{issuer.AccountID(), distribution.AccountID(), receiving.AccountID()},
	}, logger)
	require.NoError(t, err)
	require.NoError(t, n.Start(context.Background()))
	t.Cleanup(func() { n.Stop() })

	f := &fixture{
		node:    n,
		ledger:  &faultLedger{Ledger: n},
		store:   content.NewMemory(),
		metrics: NewMetrics(nil),
		config: &Config{
			NetworkID:    networkID,
			BaseFee:      100,
			TxTimeout:    30 * time.Second,
			RetryDelay:   time.Millisecond,
			Issuer:       issuer,
			Distribution: distribution,
			Receiving:    receiving,
		},
	}
	if store == nil {
		store = f.store
	}
	f.orch, err = NewOrchestrator(f.config, f.ledger, store, f.metrics, logger)
	require.NoError(t, err)
	return f
}

func (f *fixture) account(t *testing.T, id string) *types.Account {
	acc, err := f.node.LoadAccount(context.Background(), id)
	require.NoError(t, err)
	return acc
}

func balanceOf(acc *types.Account, asset types.Asset) (int64, bool) {
	for _, b := range acc.Balances {
		if b.Asset.Equal(asset) {
			return b.Balance, true
		}
	}
	return 0, false
}

// faultLedger counts the calls reaching the ledger, can hand out
// stale sequence numbers and fails submissions containing an
// operation of a given type.
type faultLedger struct {
	Ledger

	mu         sync.Mutex
	loads      int
	submits    int
	staleLoads int
	failOp     types.OpType
	failErr    error
}

func (f *faultLedger) LoadAccount(ctx context.Context, accountID string) (*types.Account, error) {
	f.mu.Lock()
	f.loads++
	stale := f.staleLoads > 0
	if stale {
		f.staleLoads--
	}
	f.mu.Unlock()

	acc, err := f.Ledger.LoadAccount(ctx, accountID)
	if err == nil && stale {
		acc.SeqNum--
	}
	return acc, err
}

func (f *faultLedger) SubmitTx(ctx context.Context, env *types.Envelope) (*types.SubmitResult, error) {
	f.mu.Lock()
	f.submits++
	failOp, failErr := f.failOp, f.failErr
	f.mu.Unlock()

	if failErr != nil {
		for _, op := range env.Tx.Operations {
			if op.Type == failOp {
				return nil, failErr
			}
		}
	}
	return f.Ledger.SubmitTx(ctx, env)
}

func (f *faultLedger) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads, f.submits
}

type brokenStore struct{}

func (brokenStore) Upload(context.Context, string, []byte) (string, error) {
	return "", errors.New("pinning service unreachable")
}
