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


package node

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ultiledger/go-ultimint/account"
	"github.com/ultiledger/go-ultimint/build"
	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/db"
	"github.com/ultiledger/go-ultimint/ledger"
	"github.com/ultiledger/go-ultimint/tx"
	"github.com/ultiledger/go-ultimint/types"

	// register the database backends
	_ "github.com/ultiledger/go-ultimint/db/boltdb"
	_ "github.com/ultiledger/go-ultimint/db/memdb"
)

var ErrInvalidAccount = errors.New("invalid account id")

// friendbot txs are valid for this many seconds
const fundTimeout = 30

// Node is a single process ledger without consensus. It applies
// every submitted transaction as soon as it is validated.
type Node struct {
	database db.Database
	logger   *zap.SugaredLogger

	config *Config

	lm *ledger.Manager
	am *account.Manager
	tm *tx.Manager

	// master account holding the genesis tokens
	master *crypto.Keypair
	// serializes the txs sourced from the master account
	fundMu sync.Mutex
}

func NewNode(conf *Config, logger *zap.SugaredLogger) (*Node, error) {
	database, err := db.Open(conf.DBBackend, conf.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database failed: %v", err)
	}

	n, err := newNode(conf, database, logger)
	if err != nil {
		return nil, multierr.Append(err, database.Close())
	}
	return n, nil
}

func newNode(conf *Config, database db.Database, logger *zap.SugaredLogger) (*Node, error) {
	lm, err := ledger.NewManager(database, logger.Named("ledger"), &ledger.Config{
		BaseFee:     conf.BaseFee,
		BaseReserve: conf.BaseReserve,
	})
	if err != nil {
		return nil, err
	}
	am, err := account.NewManager(database)
	if err != nil {
		return nil, err
	}
	master, err := am.CreateMasterAccount(conf.NetworkID, ledger.GenesisTotalTokens)
	if err != nil {
		return nil, err
	}

	// tx manager depends on account and ledger manager
	txCtx := &tx.ManagerContext{
		Database:  database,
		AM:        am,
		LM:        lm,
		NetworkID: conf.NetworkID,
		Logger:    logger.Named("tx"),
	}
	tm, err := tx.NewManager(txCtx)
	if err != nil {
		return nil, err
	}

	node := &Node{
		database: database,
		logger:   logger,
		config:   conf,
		lm:       lm,
		am:       am,
		tm:       tm,
		master:   master,
	}
	return node, nil
}

// Start starts the tx manager and funds the genesis accounts of a
// fresh ledger.
func (n *Node) Start(ctx context.Context) error {
	genesis := n.lm.Genesis()

	n.tm.Start()

	if !genesis {
		return nil
	}
	for _, acc := range n.config.GenesisAccounts {
		if _, err := n.Fund(ctx, acc); err != nil {
			return fmt.Errorf("fund genesis account %s failed: %v", acc, err)
		}
	}
	return nil
}

// Stop stops the tx manager and closes the database.
func (n *Node) Stop() error {
	n.tm.Stop()
	return n.database.Close()
}

// MasterAccountID returns the account holding the genesis tokens.
func (n *Node) MasterAccountID() string {
	return n.master.AccountID()
}

// LatestLedger returns the latest closed ledger header.
func (n *Node) LatestLedger() ledger.Header {
	return n.lm.Latest()
}

func (n *Node) LoadAccount(ctx context.Context, accountID string) (*types.Account, error) {
	return n.tm.LoadAccount(ctx, accountID)
}

func (n *Node) SubmitTx(ctx context.Context, env *types.Envelope) (*types.SubmitResult, error) {
	return n.tm.SubmitTx(ctx, env)
}

func (n *Node) GetTxStatus(txKey string) (*types.TxStatus, error) {
	return n.tm.GetTxStatus(txKey)
}

// Fund creates the account with the friendbot amount taken from
// the master account.
func (n *Node) Fund(ctx context.Context, accountID string) (*types.SubmitResult, error) {
	if !crypto.IsValidAccountKey(accountID) {
		return nil, ErrInvalidAccount
	}

	n.fundMu.Lock()
	defer n.fundMu.Unlock()

	master, err := n.tm.LoadAccount(ctx, n.master.AccountID())
	if err != nil {
		return nil, fmt.Errorf("load master account failed: %v", err)
	}

	t := build.NewTx(n.config.NetworkID, n.lm.BaseFee())
	err = t.Add(
		&build.Source{Account: master},
		&build.Timeout{Seconds: fundTimeout, Now: n.lm.Now()},
		&build.CreateAccount{Destination: accountID, StartingBalance: n.config.FriendbotAmount},
	)
	if err != nil {
		return nil, err
	}
	env, err := t.Sign(n.master)
	if err != nil {
		return nil, err
	}

	result, err := n.tm.SubmitTx(ctx, env)
	if err != nil {
		return nil, err
	}
	n.logger.Infow("account funded", "account", accountID, "amount", n.config.FriendbotAmount, "tx", result.Hash)
	return result, nil
}
