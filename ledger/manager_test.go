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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ultiledger/go-ultimint/db/memdb"
)

func TestLedgerManager(t *testing.T) {
	memorydb := memdb.New()
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }

	lm, err := NewManager(memorydb, zaptest.NewLogger(t).Sugar(), &Config{BaseFee: 10, Clock: clock})
	require.Nil(t, err)
	assert.True(t, lm.Genesis())
	assert.Equal(t, int64(10), lm.BaseFee())
	assert.Equal(t, GenesisBaseReserve, lm.BaseReserve())
	assert.Equal(t, now, lm.Now())

	genesis := lm.Latest()
	h, err := lm.CloseLedger(memorydb, []string{"tx1"})
	require.Nil(t, err)
	assert.Equal(t, GenesisSeqNum+1, h.SeqNum)
	prevHash, err := genesis.Hash()
	require.Nil(t, err)
	assert.Equal(t, prevHash, h.PrevHash)
	assert.False(t, lm.Genesis())

	// a reopened manager continues from the latest ledger
	lm2, err := NewManager(memorydb, zaptest.NewLogger(t).Sugar(), &Config{Clock: clock})
	require.Nil(t, err)
	assert.Equal(t, h.SeqNum, lm2.Latest().SeqNum)
	assert.Equal(t, int64(10), lm2.BaseFee())
}
