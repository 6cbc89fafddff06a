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
	"fmt"
	"time"

	"github.com/ultiledger/go-ultimint/build"
	"github.com/ultiledger/go-ultimint/content"
	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/types"
)

const (
	FlowIssue    = "issue"
	FlowTransfer = "transfer"
	FlowTrust    = "trust"
	FlowFund     = "fund"
)

// AssetInput is one asset to mint. Its metadata is either a known
// CID or a payload uploaded to the content store. An asset with
// neither gets no metadata entry.
type AssetInput struct {
	Code        string
	CID         string
	PayloadName string
	Payload     []byte
}

type IssueRequest struct {
	Assets []AssetInput
	// Units paid for every asset.
	Quantity int64
	// Role of the account receiving the assets.
	Destination Role
}

// Issue mints the assets to the destination account: upload the
// payloads, establish the missing trustlines, attach the CIDs as
// data entries of the issuer and pay the quantity of every asset.
// A terminal failure returns the outcome along with its *StepError,
// steps committed before it stay committed.
func (o *Orchestrator) Issue(ctx context.Context, req *IssueRequest) (*Outcome, error) {
	dst, err := o.validateIssue(req)
	if err != nil {
		return nil, err
	}

	r := o.newRun(FlowIssue, StepUpload, StepTrust, StepMetadata, StepPayment)
	r.logger.Infow("issue started", "assets", len(req.Assets), "quantity", req.Quantity, "destination", dst.AccountID())

	cids, err := o.uploadStep(ctx, r, req.Assets)
	if err != nil {
		return o.finish(r)
	}

	assets := make([]types.Asset, len(req.Assets))
	var entries []dataEntry
	for i, a := range req.Assets {
		assets[i] = types.NewAsset(a.Code, o.config.Issuer.AccountID())
		if cids[i] != "" {
			entries = append(entries, dataEntry{name: a.Code, value: cids[i]})
		}
	}
	r.out.Assets = assets
	r.out.CIDs = cids

	runSteps(
		func() error { return o.trustStep(ctx, r, dst, assets) },
		func() error { return o.metadataStep(ctx, r, entries) },
		func() error { return o.paymentStep(ctx, r, o.config.Issuer, dst.AccountID(), assets, req.Quantity) },
	)
	return o.finish(r)
}

// runSteps runs the steps in order and stops at the first failure.
func runSteps(steps ...func() error) {
	for _, step := range steps {
		if err := step(); err != nil {
			return
		}
	}
}

func (o *Orchestrator) validateIssue(req *IssueRequest) (*crypto.Keypair, error) {
	if req == nil || len(req.Assets) == 0 {
		return nil, ErrNoAssets
	}
	if req.Quantity <= 0 {
		return nil, ErrInvalidAmount
	}
	seen := make(map[string]struct{}, len(req.Assets))
	for i, a := range req.Assets {
		if err := types.ValidateAssetCode(a.Code); err != nil {
			return nil, fmt.Errorf("asset %q: %w", a.Code, err)
		}
		if _, ok := seen[a.Code]; ok {
			return nil, fmt.Errorf("duplicate asset %s", a.Code)
		}
		seen[a.Code] = struct{}{}
		if a.CID != "" && len(a.Payload) > 0 {
			return nil, fmt.Errorf("asset %s: %w", a.Code, ErrPayloadConflict)
		}
		if a.CID != "" {
			c, err := content.ValidateCID(a.CID)
			if err != nil {
				return nil, err
			}
			req.Assets[i].CID = c
		}
		if len(a.Payload) > 0 && o.store == nil {
			return nil, errors.New("no content store configured")
		}
	}
	dst, err := o.config.Keypair(req.Destination)
	if err != nil {
		return nil, err
	}
	if dst.AccountID() == o.config.Issuer.AccountID() {
		return nil, ErrSameAccount
	}
	return dst, nil
}

// uploadStep uploads the payloads concurrently and returns one CID
// per asset, empty for assets without metadata.
func (o *Orchestrator) uploadStep(ctx context.Context, r *run, assets []AssetInput) ([]string, error) {
	start := time.Now()
	defer o.observe(r, StepUpload, start)

	cids := make([]string, len(assets))
	var payloads []content.Payload
	var index []int
	for i, a := range assets {
		cids[i] = a.CID
		if len(a.Payload) == 0 {
			continue
		}
		name := a.PayloadName
		if name == "" {
			name = a.Code
		}
		payloads = append(payloads, content.Payload{Name: name, Data: a.Payload})
		index = append(index, i)
	}
	if len(payloads) == 0 {
		r.out.skip(StepUpload)
		return cids, nil
	}

	r.enter(StateUploadingPayload)
	uploaded, err := content.UploadAll(ctx, o.store, payloads)
	if err != nil {
		return nil, r.out.fail(StepUpload, ErrUpload, nil, err)
	}
	for j, i := range index {
		cids[i] = uploaded[j]
	}
	r.out.succeed(StepUpload, nil)
	r.logger.Infow("payloads uploaded", "cids", uploaded)
	return cids, nil
}

type TransferRequest struct {
	Asset  types.Asset
	Amount int64
	From   Role
	To     Role
}

// Transfer moves units of an asset between two configured accounts,
// establishing the trustline of the receiver first.
func (o *Orchestrator) Transfer(ctx context.Context, req *TransferRequest) (*Outcome, error) {
	if req == nil {
		return nil, ErrNoAssets
	}
	if err := req.Asset.Validate(); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	from, err := o.config.Keypair(req.From)
	if err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	to, err := o.config.Keypair(req.To)
	if err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	if from.AccountID() == to.AccountID() {
		return nil, ErrSameAccount
	}

	r := o.newRun(FlowTransfer, StepTrust, StepPayment)
	r.out.Assets = []types.Asset{req.Asset}
	r.logger.Infow("transfer started", "asset", req.Asset, "amount", req.Amount, "from", from.AccountID(), "to", to.AccountID())

	runSteps(
		func() error {
			// the issuer holds its own asset without a trustline
			if to.AccountID() == req.Asset.Issuer {
				r.out.skip(StepTrust)
				return nil
			}
			return o.trustStep(ctx, r, to, r.out.Assets)
		},
		func() error { return o.paymentStep(ctx, r, from, to.AccountID(), r.out.Assets, req.Amount) },
	)
	return o.finish(r)
}

type TrustRequest struct {
	Assets  []types.Asset
	Account Role
}

// EstablishTrust creates the trustlines the account is missing.
// Running it again once the lines exist is a no-op.
func (o *Orchestrator) EstablishTrust(ctx context.Context, req *TrustRequest) (*Outcome, error) {
	if req == nil || len(req.Assets) == 0 {
		return nil, ErrNoAssets
	}
	for _, a := range req.Assets {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("asset %s: %w", a, err)
		}
	}
	kp, err := o.config.Keypair(req.Account)
	if err != nil {
		return nil, err
	}

	r := o.newRun(FlowTrust, StepTrust)
	r.out.Assets = req.Assets
	runSteps(func() error { return o.trustStep(ctx, r, kp, req.Assets) })
	return o.finish(r)
}

type FundRequest struct {
	Destination     string
	StartingBalance int64
}

// Fund creates the destination account with a starting balance
// taken from the distribution account.
func (o *Orchestrator) Fund(ctx context.Context, req *FundRequest) (*Outcome, error) {
	if req == nil || !crypto.IsValidAccountKey(req.Destination) {
		return nil, errors.New("invalid destination account")
	}
	if req.StartingBalance <= 0 {
		return nil, ErrInvalidAmount
	}
	src := o.config.Distribution
	if req.Destination == src.AccountID() {
		return nil, ErrSameAccount
	}

	r := o.newRun(FlowFund, StepFund)
	start := time.Now()
	r.enter(StateFunding)
	hash, err := o.submit(ctx, r, src, func(*types.Account) []build.TxMutator {
		return []build.TxMutator{&build.CreateAccount{Destination: req.Destination, StartingBalance: req.StartingBalance}}
	})
	if err != nil {
		r.out.fail(StepFund, ErrFunding, nil, err)
	} else {
		r.out.succeed(StepFund, []string{hash})
	}
	o.observe(r, StepFund, start)
	return o.finish(r)
}

// LookupCID returns the CID the issuer attached to the asset code.
func (o *Orchestrator) LookupCID(ctx context.Context, code string) (*types.Asset, string, error) {
	if err := types.ValidateAssetCode(code); err != nil {
		return nil, "", err
	}
	issuer := o.config.Issuer.AccountID()
	acc, err := o.ledger.LoadAccount(ctx, issuer)
	if err != nil {
		return nil, "", loadError(issuer, err)
	}
	value, ok := acc.DataValue(code)
	if !ok {
		return nil, "", ErrDataNotFound
	}
	c, err := content.ValidateCID(value)
	if err != nil {
		return nil, "", err
	}
	asset := types.NewAsset(code, issuer)
	return &asset, c, nil
}
