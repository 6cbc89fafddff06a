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


package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/types"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(&Config{Endpoint: srv.URL}, zaptest.NewLogger(t).Sugar())
	require.Nil(t, err)
	return c
}

func TestNew(t *testing.T) {
	_, err := New(&Config{}, nil)
	assert.Equal(t, ErrEmptyEndpoint, err)
}

func TestLoadAccount(t *testing.T) {
	kp, err := crypto.NewKeypair()
	require.Nil(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts/"+kp.AccountID() {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(&types.Account{
			AccountID: kp.AccountID(),
			SeqNum:    12,
			Balances:  []types.Balance{{Asset: types.NativeAsset(), Balance: 500}},
		})
	})
	c := newTestClient(t, mux)

	acc, err := c.LoadAccount(context.Background(), kp.AccountID())
	assert.Nil(t, err)
	assert.Equal(t, uint64(12), acc.SeqNum)
	assert.Equal(t, int64(500), acc.NativeBalance())

	_, err = c.LoadAccount(context.Background(), "unknown")
	assert.Equal(t, types.ErrAccountNotFound, err)
}

func TestSubmitTx(t *testing.T) {
	kp, err := crypto.NewKeypair()
	require.Nil(t, err)
	env := &types.Envelope{Tx: types.Transaction{SourceAccount: kp.AccountID(), SeqNum: 1}}

	var code string
	mux := http.NewServeMux()
	mux.HandleFunc("/transactions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req map[string]string
		assert.Nil(t, json.NewDecoder(r.Body).Decode(&req))
		decoded, err := types.DecodeEnvelope(req["tx"])
		assert.Nil(t, err)
		assert.Equal(t, kp.AccountID(), decoded.Tx.SourceAccount)

		if code != "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(&types.Problem{
				Title:  "Transaction Failed",
				Status: http.StatusBadRequest,
				Extras: &types.ProblemExtras{
					Hash:        "hash",
					ResultCodes: types.ResultCodes{Transaction: code},
				},
			})
			return
		}
		json.NewEncoder(w).Encode(&types.SubmitResult{Hash: "hash", Ledger: 3, Successful: true})
	})
	c := newTestClient(t, mux)

	result, err := c.SubmitTx(context.Background(), env)
	assert.Nil(t, err)
	assert.True(t, result.Successful)
	assert.Equal(t, uint64(3), result.Ledger)

	code = types.TxBadSeq
	_, err = c.SubmitTx(context.Background(), env)
	assert.True(t, errors.Is(err, types.ErrSequenceConflict))
	var se *types.SubmitError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Status)

	code = types.TxTooLate
	_, err = c.SubmitTx(context.Background(), env)
	assert.True(t, errors.Is(err, types.ErrTimeoutExpired))
	assert.False(t, errors.Is(err, types.ErrSequenceConflict))
}

func TestSubmitTxCanceled(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SubmitTx(ctx, &types.Envelope{})
	assert.NotNil(t, err)
}

func TestQueryTxAndFund(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/transactions/known", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(&types.TxStatus{StatusCode: types.Confirmed, Hash: "known"})
	})
	mux.HandleFunc("/friendbot", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "addr1", r.URL.Query().Get("addr"))
		json.NewEncoder(w).Encode(&types.SubmitResult{Hash: "fund", Successful: true})
	})
	c := newTestClient(t, mux)

	status, err := c.QueryTx(context.Background(), "known")
	assert.Nil(t, err)
	assert.Equal(t, types.Confirmed, status.StatusCode)

	_, err = c.QueryTx(context.Background(), "unknown")
	assert.Equal(t, ErrTxNotFound, err)

	result, err := c.Fund(context.Background(), "addr1")
	assert.Nil(t, err)
	assert.Equal(t, "fund", result.Hash)
}
