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
	"net/http"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultiledger/go-ultimint/amount"
	"github.com/ultiledger/go-ultimint/content"
	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/types"
)

func TestNewOrchestrator(t *testing.T) {
	kp, err := crypto.NewKeypair()
	require.NoError(t, err)
	ledger := &faultLedger{}

	_, err = NewOrchestrator(nil, ledger, nil, nil, nil)
	assert.Error(t, err)
	_, err = NewOrchestrator(&Config{BaseFee: 100, Issuer: kp}, ledger, nil, nil, nil)
	assert.Error(t, err)
	_, err = NewOrchestrator(&Config{BaseFee: 100, Issuer: kp, Distribution: kp}, nil, nil, nil, nil)
	assert.Error(t, err)

	o, err := NewOrchestrator(&Config{BaseFee: 100, Issuer: kp, Distribution: kp}, ledger, nil, nil, nil)
	require.NoError(t, err)
	cfg := o.Config()
	assert.Equal(t, DefaultTxTimeout, cfg.TxTimeout)
	assert.Equal(t, DefaultMaxOpsPerTx, cfg.MaxOpsPerTx)
	assert.Equal(t, uint(DefaultRetryAttempts), cfg.RetryAttempts)

	_, err = cfg.Keypair(RoleReceiving)
	assert.Equal(t, ErrUnknownRole, err)
}

// Destination already trusts the asset: the trust step is skipped,
// the CID of the upload is attached and one payment is made.
func TestIssueHappyPath(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	asset := types.NewAsset("demo01", f.config.Issuer.AccountID())

	out, err := f.orch.EstablishTrust(ctx, &TrustRequest{Assets: []types.Asset{asset}, Account: RoleDistribution})
	require.NoError(t, err)
	res, _ := out.Step(StepTrust)
	require.Equal(t, StatusSuccess, res.Status)

	quantity := amount.MustParse("10")
	out, err = f.orch.Issue(ctx, &IssueRequest{
		Assets:      []AssetInput{{Code: "demo01", PayloadName: "demo01.png", Payload: []byte("image bytes")}},
		Quantity:    quantity,
		Destination: RoleDistribution,
	})
	require.NoError(t, err)
	assert.True(t, out.Succeeded())
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, []types.Asset{asset}, out.Assets)

	expected, err := content.ComputeCID([]byte("image bytes"))
	require.NoError(t, err)
	assert.Equal(t, []string{expected}, out.CIDs)

	statuses := map[Step]StepStatus{}
	for _, s := range out.Steps {
		statuses[s.Step] = s.Status
	}
	assert.Equal(t, map[Step]StepStatus{
		StepUpload:   StatusSuccess,
		StepTrust:    StatusSkipped,
		StepMetadata: StatusSuccess,
		StepPayment:  StatusSuccess,
	}, statuses)

	payment, _ := out.Step(StepPayment)
	assert.Len(t, payment.TxHashes, 1)

	dist := f.account(t, f.config.Distribution.AccountID())
	bal, ok := balanceOf(dist, asset)
	assert.True(t, ok)
	assert.Equal(t, quantity, bal)

	issuer := f.account(t, f.config.Issuer.AccountID())
	cid, ok := issuer.DataValue("demo01")
	assert.True(t, ok)
	assert.Equal(t, expected, cid)

	got, c, err := f.orch.LookupCID(ctx, "demo01")
	require.NoError(t, err)
	assert.Equal(t, asset, *got)
	assert.Equal(t, expected, c)

	_, _, err = f.orch.LookupCID(ctx, "nothing")
	assert.Equal(t, ErrDataNotFound, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Runs.WithLabelValues(FlowIssue, string(StateDone))))
}

// The payment is rejected after trust and metadata committed: the
// earlier steps are reported and stay on the ledger.
func TestIssuePaymentFailure(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.ledger.failOp = types.OpPayment
	f.ledger.failErr = &types.SubmitError{
		Status: http.StatusBadRequest,
		Codes:  types.ResultCodes{Transaction: types.TxInsufficientBalance},
	}

	cid, err := content.ComputeCID([]byte("known"))
	require.NoError(t, err)
	out, err := f.orch.Issue(ctx, &IssueRequest{
		Assets:      []AssetInput{{Code: "demo02", CID: cid}},
		Quantity:    amount.MustParse("1"),
		Destination: RoleReceiving,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPayment))
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, out.Err, err)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepPayment, stepErr.Step)
	assert.Equal(t, "payment_error", stepErr.Code())
	se, ok := stepErr.SubmitError()
	require.True(t, ok)
	assert.Equal(t, types.TxInsufficientBalance, se.Codes.Transaction)

	trust, _ := out.Step(StepTrust)
	assert.Equal(t, StatusSuccess, trust.Status)
	metadata, _ := out.Step(StepMetadata)
	assert.Equal(t, StatusSuccess, metadata.Status)
	payment, _ := out.Step(StepPayment)
	assert.Equal(t, StatusFailed, payment.Status)
	upload, _ := out.Step(StepUpload)
	assert.Equal(t, StatusSkipped, upload.Status)

	// no compensation: the trustline and the data entry remain
	asset := types.NewAsset("demo02", f.config.Issuer.AccountID())
	recv := f.account(t, f.config.Receiving.AccountID())
	bal, ok := balanceOf(recv, asset)
	assert.True(t, ok)
	assert.Zero(t, bal)
	value, ok := f.account(t, f.config.Issuer.AccountID()).DataValue("demo02")
	assert.True(t, ok)
	assert.Equal(t, cid, value)

	// retrying only the payment once the ledger recovers
	f.ledger.failErr = nil
	out, err = f.orch.Transfer(ctx, &TransferRequest{Asset: asset, Amount: amount.MustParse("1"), From: RoleIssuer, To: RoleReceiving})
	require.NoError(t, err)
	trust, _ = out.Step(StepTrust)
	assert.Equal(t, StatusSkipped, trust.Status)
	bal, _ = balanceOf(f.account(t, f.config.Receiving.AccountID()), asset)
	assert.Equal(t, amount.MustParse("1"), bal)
}

// A failed upload ends the run before any ledger call.
func TestIssueUploadFailure(t *testing.T) {
	f := newFixture(t, brokenStore{})
	loads, submits := f.ledger.calls()

	out, err := f.orch.Issue(context.Background(), &IssueRequest{
		Assets:      []AssetInput{{Code: "demo03", Payload: []byte("image")}},
		Quantity:    1,
		Destination: RoleDistribution,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpload))
	assert.Equal(t, StateFailed, out.State)
	upload, _ := out.Step(StepUpload)
	assert.Equal(t, StatusFailed, upload.Status)
	trust, _ := out.Step(StepTrust)
	assert.Equal(t, StatusPending, trust.Status)

	l, s := f.ledger.calls()
	assert.Equal(t, loads, l)
	assert.Equal(t, submits, s)
}

func TestIssueValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	tests := []struct {
		req *IssueRequest
		err error
	}{
		{&IssueRequest{Quantity: 1, Destination: RoleDistribution}, ErrNoAssets},
		{&IssueRequest{Assets: []AssetInput{{Code: "a"}}, Destination: RoleDistribution}, ErrInvalidAmount},
		{&IssueRequest{Assets: []AssetInput{{Code: "bad code"}}, Quantity: 1, Destination: RoleDistribution}, types.ErrInvalidAssetCode},
		{&IssueRequest{Assets: []AssetInput{{Code: "a", CID: "nope"}}, Quantity: 1, Destination: RoleDistribution}, content.ErrInvalidCID},
		{&IssueRequest{Assets: []AssetInput{{Code: "a", CID: "x", Payload: []byte("x")}}, Quantity: 1, Destination: RoleDistribution}, ErrPayloadConflict},
		{&IssueRequest{Assets: []AssetInput{{Code: "a"}}, Quantity: 1, Destination: "nobody"}, ErrUnknownRole},
		{&IssueRequest{Assets: []AssetInput{{Code: "a"}}, Quantity: 1, Destination: RoleIssuer}, ErrSameAccount},
	}
	_, submits := f.ledger.calls()
	for _, tt := range tests {
		out, err := f.orch.Issue(ctx, tt.req)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, tt.err)
	}
	_, s := f.ledger.calls()
	assert.Equal(t, submits, s)
}

func TestIssueChunks(t *testing.T) {
	f := newFixture(t, nil)
	f.orch.config.MaxOpsPerTx = 2

	out, err := f.orch.Issue(context.Background(), &IssueRequest{
		Assets: []AssetInput{
			{Code: "nft1", Payload: []byte("1")},
			{Code: "nft2", Payload: []byte("2")},
			{Code: "nft3", Payload: []byte("3")},
		},
		Quantity:    1,
		Destination: RoleReceiving,
	})
	require.NoError(t, err)
	for _, s := range []Step{StepTrust, StepMetadata, StepPayment} {
		res, _ := out.Step(s)
		assert.Equal(t, StatusSuccess, res.Status)
		assert.Len(t, res.TxHashes, 2)
	}
	recv := f.account(t, f.config.Receiving.AccountID())
	for _, a := range out.Assets {
		bal, ok := balanceOf(recv, a)
		assert.True(t, ok)
		assert.Equal(t, int64(1), bal)
	}

	// trusting again is a no-op
	out, err = f.orch.EstablishTrust(context.Background(), &TrustRequest{Assets: out.Assets, Account: RoleReceiving})
	require.NoError(t, err)
	res, _ := out.Step(StepTrust)
	assert.Equal(t, StatusSkipped, res.Status)
}

func TestSequenceConflictRetry(t *testing.T) {
	f := newFixture(t, nil)
	dst, err := crypto.NewKeypair()
	require.NoError(t, err)

	f.ledger.staleLoads = 1
	out, err := f.orch.Fund(context.Background(), &FundRequest{Destination: dst.AccountID(), StartingBalance: 50000})
	require.NoError(t, err)
	assert.True(t, out.Succeeded())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Retries))

	acc := f.account(t, dst.AccountID())
	assert.Equal(t, int64(50000), acc.NativeBalance())

	// exhausting the attempts surfaces the conflict
	f.ledger.staleLoads = 10
	other, err := crypto.NewKeypair()
	require.NoError(t, err)
	_, err = f.orch.Fund(context.Background(), &FundRequest{Destination: other.AccountID(), StartingBalance: 50000})
	assert.True(t, errors.Is(err, ErrFunding))
	assert.True(t, errors.Is(err, types.ErrSequenceConflict))
}

func TestTimeoutExpiredNotRetried(t *testing.T) {
	f := newFixture(t, nil)
	f.ledger.failOp = types.OpPayment
	f.ledger.failErr = &types.SubmitError{
		Status: http.StatusBadRequest,
		Codes:  types.ResultCodes{Transaction: types.TxTooLate},
	}

	_, before := f.ledger.calls()
	_, err := f.orch.Transfer(context.Background(), &TransferRequest{
		Asset:  types.NativeAsset(),
		Amount: 10,
		From:   RoleDistribution,
		To:     RoleReceiving,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPayment))
	assert.True(t, errors.Is(err, types.ErrTimeoutExpired))

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, "timeout_expired", stepErr.Code())

	_, after := f.ledger.calls()
	assert.Equal(t, 1, after-before)
}

func TestConcurrentRunsSameAccount(t *testing.T) {
	f := newFixture(t, nil)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		kp, err := crypto.NewKeypair()
		require.NoError(t, err)
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = f.orch.Fund(context.Background(), &FundRequest{Destination: id, StartingBalance: 10000})
		}(i, kp.AccountID())
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Zero(t, f.orch.locks.Len())
}

func TestFundAccountLoadFailure(t *testing.T) {
	f := newFixture(t, nil)
	stranger, err := crypto.NewKeypair()
	require.NoError(t, err)
	f.orch.config.Distribution = stranger

	dst, err := crypto.NewKeypair()
	require.NoError(t, err)
	out, err := f.orch.Fund(context.Background(), &FundRequest{Destination: dst.AccountID(), StartingBalance: 10000})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFunding))
	assert.True(t, errors.Is(err, ErrAccountLoad))
	assert.True(t, errors.Is(err, types.ErrAccountNotFound))
	res, _ := out.Step(StepFund)
	assert.Equal(t, StatusFailed, res.Status)
}

func TestCanceledRun(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := f.orch.EstablishTrust(ctx, &TrustRequest{
		Assets:  []types.Asset{types.NewAsset("demo04", f.config.Issuer.AccountID())},
		Account: RoleReceiving,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StateFailed, out.State)
}
