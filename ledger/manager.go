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


package ledger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/db"
)

var (
	GenesisSeqNum      = uint64(1)
	GenesisTotalTokens = int64(4500000000000000000)
	GenesisBaseFee     = int64(100)
	GenesisBaseReserve = int64(5000000)
)

const (
	ledgerBucket = "LEDGER"
	latestKey    = "latest"
)

// Header describes one closed ledger. The sandbox closes a ledger
// for every applied transaction.
type Header struct {
	SeqNum      uint64   `json:"seq_num"`
	CloseTime   int64    `json:"close_time"`
	BaseFee     int64    `json:"base_fee"`
	BaseReserve int64    `json:"base_reserve"`
	TotalTokens int64    `json:"total_tokens"`
	PrevHash    string   `json:"prev_hash"`
	TxHashes    []string `json:"tx_hashes,omitempty"`
}

// Hash returns the hash of the header.
func (h *Header) Hash() (string, error) {
	b, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("encode ledger header failed: %v", err)
	}
	return crypto.SHA256Hash(b), nil
}

// Config holds the parameters of the genesis ledger.
type Config struct {
	BaseFee     int64
	BaseReserve int64
	// Clock of the ledger, mostly replaced in tests.
	Clock func() time.Time
}

// Manager keeps track of the latest closed ledger.
type Manager struct {
	database db.Database
	logger   *zap.SugaredLogger

	clock func() time.Time

	mu     sync.RWMutex
	latest *Header
}

func NewManager(d db.Database, l *zap.SugaredLogger, cfg *Config) (*Manager, error) {
	lm := &Manager{
		database: d,
		logger:   l,
		clock:    cfg.Clock,
	}
	if lm.clock == nil {
		lm.clock = time.Now
	}
	if err := lm.database.NewBucket(ledgerBucket); err != nil {
		return nil, fmt.Errorf("create db bucket %s failed: %v", ledgerBucket, err)
	}

	b, err := lm.database.Get(ledgerBucket, []byte(latestKey))
	if err != nil {
		return nil, fmt.Errorf("load latest ledger failed: %v", err)
	}
	if b != nil {
		h := &Header{}
		if err := json.Unmarshal(b, h); err != nil {
			return nil, fmt.Errorf("decode latest ledger failed: %v", err)
		}
		lm.latest = h
		lm.logger.Infow("ledger loaded", "seq", h.SeqNum)
		return lm, nil
	}

	if err := lm.createGenesisLedger(cfg); err != nil {
		return nil, err
	}
	return lm, nil
}

// Genesis reports whether only the genesis ledger exists.
func (lm *Manager) Genesis() bool {
	return lm.Latest().SeqNum == GenesisSeqNum
}

func (lm *Manager) createGenesisLedger(cfg *Config) error {
	genesis := &Header{
		SeqNum:      GenesisSeqNum,
		CloseTime:   lm.clock().Unix(),
		BaseFee:     GenesisBaseFee,
		BaseReserve: GenesisBaseReserve,
		TotalTokens: GenesisTotalTokens,
	}
	if cfg.BaseFee > 0 {
		genesis.BaseFee = cfg.BaseFee
	}
	if cfg.BaseReserve > 0 {
		genesis.BaseReserve = cfg.BaseReserve
	}
	if err := lm.save(lm.database, genesis); err != nil {
		return fmt.Errorf("save genesis ledger failed: %v", err)
	}
	lm.latest = genesis
	lm.logger.Infow("genesis ledger created", "base_fee", genesis.BaseFee, "base_reserve", genesis.BaseReserve)
	return nil
}

func (lm *Manager) save(putter db.Putter, h *Header) error {
	b, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode ledger header failed: %v", err)
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, h.SeqNum)
	if err := putter.Put(ledgerBucket, key, b); err != nil {
		return err
	}
	return putter.Put(ledgerBucket, []byte(latestKey), b)
}

// Latest returns a copy of the latest closed ledger header.
func (lm *Manager) Latest() Header {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return *lm.latest
}

// Now returns the current time of the ledger clock.
func (lm *Manager) Now() time.Time {
	return lm.clock()
}

// BaseFee is the fee charged per operation.
func (lm *Manager) BaseFee() int64 {
	return lm.Latest().BaseFee
}

// BaseReserve is the native balance reserved per account entry.
func (lm *Manager) BaseReserve() int64 {
	return lm.Latest().BaseReserve
}

// CloseLedger closes a new ledger containing the given transactions.
func (lm *Manager) CloseLedger(putter db.Putter, txHashes []string) (*Header, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	prevHash, err := lm.latest.Hash()
	if err != nil {
		return nil, err
	}
	h := &Header{
		SeqNum:      lm.latest.SeqNum + 1,
		CloseTime:   lm.clock().Unix(),
		BaseFee:     lm.latest.BaseFee,
		BaseReserve: lm.latest.BaseReserve,
		TotalTokens: lm.latest.TotalTokens,
		PrevHash:    prevHash,
		TxHashes:    txHashes,
	}
	if err := lm.save(putter, h); err != nil {
		return nil, fmt.Errorf("save ledger %d failed: %v", h.SeqNum, err)
	}
	lm.latest = h
	lm.logger.Debugw("ledger closed", "seq", h.SeqNum, "txs", len(txHashes))

	c := *h
	return &c, nil
}
