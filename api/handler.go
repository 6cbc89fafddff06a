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


package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	restful "github.com/emicklei/go-restful/v3"

	"github.com/ultiledger/go-ultimint/amount"
	"github.com/ultiledger/go-ultimint/content"
	"github.com/ultiledger/go-ultimint/mint"
	"github.com/ultiledger/go-ultimint/types"
)

// AssetRequest names an asset. An empty issuer means the
// configured issuer, the native asset is code ULT without issuer
// in transfers.
type AssetRequest struct {
	Code   string `json:"code"`
	Issuer string `json:"issuer,omitempty"`
	CID    string `json:"cid,omitempty"`
}

type MintRequest struct {
	Assets []AssetRequest `json:"assets"`
	// decimal amount paid for every asset, 1 by default
	Quantity string `json:"quantity"`
	// distribution (default) or receiving
	Destination string `json:"destination"`
}

type TransferRequest struct {
	Asset  AssetRequest `json:"asset"`
	Amount string       `json:"amount"`
	// distribution by default
	From string `json:"from"`
	// receiving by default
	To string `json:"to"`
}

type TrustRequest struct {
	Assets []AssetRequest `json:"assets"`
	// distribution by default
	Account string `json:"account"`
}

type FundRequest struct {
	Destination     string `json:"destination"`
	StartingBalance string `json:"starting_balance"`
}

type AssetView struct {
	Code   string `json:"code"`
	Issuer string `json:"issuer,omitempty"`
	CID    string `json:"cid,omitempty"`
}

type OutcomeResponse struct {
	RunID  string            `json:"run_id"`
	Flow   string            `json:"flow"`
	State  mint.State        `json:"state"`
	Assets []AssetView       `json:"assets,omitempty"`
	CIDs   []string          `json:"cids,omitempty"`
	Steps  []mint.StepResult `json:"steps"`
}

type CIDResponse struct {
	CID string `json:"cid"`
}

func newOutcomeResponse(out *mint.Outcome) *OutcomeResponse {
	resp := &OutcomeResponse{
		RunID: out.RunID,
		Flow:  out.Flow,
		State: out.State,
		CIDs:  out.CIDs,
		Steps: out.Steps,
	}
	for _, a := range out.Assets {
		code := a.Code
		if a.IsNative() {
			code = types.NativeCode
		}
		resp.Assets = append(resp.Assets, AssetView{Code: code, Issuer: a.Issuer})
	}
	return resp
}

func (s *Server) runContext(request *restful.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(request.Request.Context(), s.config.RequestTimeout)
}

func (s *Server) issue(request *restful.Request, response *restful.Response) {
	var (
		req *mint.IssueRequest
		err error
	)
	if strings.HasPrefix(request.HeaderParameter("Content-Type"), "multipart/") {
		req, err = s.readMultipartIssue(request, response)
	} else {
		body := &MintRequest{}
		if err = request.ReadEntity(body); err == nil {
			req, err = s.toIssueRequest(body)
		}
	}
	if err != nil {
		s.writeBadRequest(response, err)
		return
	}

	ctx, cancel := s.runContext(request)
	defer cancel()
	out, err := s.orch.Issue(ctx, req)
	s.writeOutcome(response, out, err)
}

func (s *Server) toIssueRequest(body *MintRequest) (*mint.IssueRequest, error) {
	quantity, err := parseAmount(body.Quantity, "1")
	if err != nil {
		return nil, err
	}
	req := &mint.IssueRequest{
		Quantity:    quantity,
		Destination: roleOrDefault(body.Destination, mint.RoleDistribution),
	}
	for _, a := range body.Assets {
		req.Assets = append(req.Assets, mint.AssetInput{Code: a.Code, CID: a.CID})
	}
	return req, nil
}

// readMultipartIssue reads one "asset" code field per "file" part,
// in the same order, plus the quantity and destination fields.
func (s *Server) readMultipartIssue(request *restful.Request, response *restful.Response) (*mint.IssueRequest, error) {
	r := request.Request
	r.Body = http.MaxBytesReader(response.ResponseWriter, r.Body, s.config.MaxUploadSize)
	if err := r.ParseMultipartForm(s.config.MaxUploadSize); err != nil {
		return nil, fmt.Errorf("parse multipart form failed: %v", err)
	}
	defer r.MultipartForm.RemoveAll()

	form := r.MultipartForm
	codes := form.Value["asset"]
	files := form.File["file"]
	if len(files) == 0 {
		return nil, errors.New("no file attached")
	}
	if len(codes) != len(files) {
		return nil, fmt.Errorf("%d asset codes for %d files", len(codes), len(files))
	}

	req, err := s.toIssueRequest(&MintRequest{
		Quantity:    r.FormValue("quantity"),
		Destination: r.FormValue("destination"),
	})
	if err != nil {
		return nil, err
	}
	for i, fh := range files {
		data, err := readFile(fh)
		if err != nil {
			return nil, err
		}
		req.Assets = append(req.Assets, mint.AssetInput{
			Code:        codes[i],
			PayloadName: fh.Filename,
			Payload:     data,
		})
	}
	return req, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s failed: %v", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s failed: %v", fh.Filename, err)
	}
	return data, nil
}

func (s *Server) transfer(request *restful.Request, response *restful.Response) {
	body := &TransferRequest{}
	if err := request.ReadEntity(body); err != nil {
		s.writeBadRequest(response, err)
		return
	}
	amt, err := parseAmount(body.Amount, "")
	if err != nil {
		s.writeBadRequest(response, err)
		return
	}
	req := &mint.TransferRequest{
		Asset:  s.toAsset(body.Asset, true),
		Amount: amt,
		From:   roleOrDefault(body.From, mint.RoleDistribution),
		To:     roleOrDefault(body.To, mint.RoleReceiving),
	}

	ctx, cancel := s.runContext(request)
	defer cancel()
	out, err := s.orch.Transfer(ctx, req)
	s.writeOutcome(response, out, err)
}

func (s *Server) trust(request *restful.Request, response *restful.Response) {
	body := &TrustRequest{}
	if err := request.ReadEntity(body); err != nil {
		s.writeBadRequest(response, err)
		return
	}
	req := &mint.TrustRequest{Account: roleOrDefault(body.Account, mint.RoleDistribution)}
	for _, a := range body.Assets {
		req.Assets = append(req.Assets, s.toAsset(a, false))
	}

	ctx, cancel := s.runContext(request)
	defer cancel()
	out, err := s.orch.EstablishTrust(ctx, req)
	s.writeOutcome(response, out, err)
}

func (s *Server) fund(request *restful.Request, response *restful.Response) {
	body := &FundRequest{}
	if err := request.ReadEntity(body); err != nil {
		s.writeBadRequest(response, err)
		return
	}
	balance, err := parseAmount(body.StartingBalance, "")
	if err != nil {
		s.writeBadRequest(response, err)
		return
	}

	ctx, cancel := s.runContext(request)
	defer cancel()
	out, err := s.orch.Fund(ctx, &mint.FundRequest{Destination: body.Destination, StartingBalance: balance})
	s.writeOutcome(response, out, err)
}

func (s *Server) lookup(request *restful.Request, response *restful.Response) {
	asset, cid, err := s.orch.LookupCID(request.Request.Context(), request.PathParameter("code"))
	switch {
	case err == nil:
		response.WriteEntity(&AssetView{Code: asset.Code, Issuer: asset.Issuer, CID: cid})
	case errors.Is(err, types.ErrInvalidAssetCode):
		s.writeBadRequest(response, err)
	case errors.Is(err, mint.ErrDataNotFound):
		s.writeErrorBody(response, http.StatusNotFound, &ErrorDetail{Code: "not_found", Cause: err.Error()})
	default:
		s.logger.Errorw("lookup cid failed", "code", request.PathParameter("code"), "err", err)
		s.writeErrorBody(response, http.StatusInternalServerError, &ErrorDetail{Code: "account_load_error", Cause: err.Error()})
	}
}

// decodeCID decodes the base64 value of a ledger data entry.
func (s *Server) decodeCID(request *restful.Request, response *restful.Response) {
	cid, err := content.DecodeDataValue(request.QueryParameter("hash"))
	if err != nil {
		s.writeBadRequest(response, err)
		return
	}
	response.WriteEntity(&CIDResponse{CID: cid})
}

func (s *Server) toAsset(a AssetRequest, allowNative bool) types.Asset {
	if allowNative && a.Code == types.NativeCode && a.Issuer == "" {
		return types.NativeAsset()
	}
	issuer := a.Issuer
	if issuer == "" {
		issuer = s.orch.Config().Issuer.AccountID()
	}
	return types.NewAsset(a.Code, issuer)
}

func roleOrDefault(role string, def mint.Role) mint.Role {
	if role == "" {
		return def
	}
	return mint.Role(role)
}

func parseAmount(s string, def string) (int64, error) {
	if s == "" {
		if def == "" {
			return 0, errors.New("amount is missing")
		}
		s = def
	}
	return amount.Parse(s)
}
