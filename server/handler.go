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


package server

import (
	"context"
	"errors"
	"net/http"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"

	"github.com/ultiledger/go-ultimint/node"
	"github.com/ultiledger/go-ultimint/types"
)

// Ledger is the ledger served over http.
type Ledger interface {
	LoadAccount(ctx context.Context, accountID string) (*types.Account, error)
	SubmitTx(ctx context.Context, env *types.Envelope) (*types.SubmitResult, error)
	GetTxStatus(txKey string) (*types.TxStatus, error)
	Fund(ctx context.Context, accountID string) (*types.SubmitResult, error)
}

// SubmitTxRequest is the body of a tx submission.
type SubmitTxRequest struct {
	Tx string `json:"tx"`
}

type handler struct {
	ledger Ledger
	logger *zap.SugaredLogger
}

// NewHandler returns the http handler serving the account query,
// tx submission, tx query and friendbot endpoints.
func NewHandler(l Ledger, logger *zap.SugaredLogger) http.Handler {
	h := &handler{ledger: l, logger: logger}

	ws := new(restful.WebService)
	ws.Path("/").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)
	ws.Route(ws.GET("/accounts/{account_id}").To(h.getAccount))
	ws.Route(ws.POST("/transactions").To(h.submitTx))
	ws.Route(ws.GET("/transactions/{hash}").To(h.queryTx))
	ws.Route(ws.GET("/friendbot").To(h.fund))

	container := restful.NewContainer()
	container.Add(ws)

	return container
}

func (h *handler) getAccount(request *restful.Request, response *restful.Response) {
	acc, err := h.ledger.LoadAccount(request.Request.Context(), request.PathParameter("account_id"))
	if err != nil {
		h.writeError(response, err)
		return
	}
	response.WriteEntity(acc)
}

func (h *handler) submitTx(request *restful.Request, response *restful.Response) {
	req := &SubmitTxRequest{}
	if err := request.ReadEntity(req); err != nil {
		h.writeMalformed(response, err)
		return
	}
	env, err := types.DecodeEnvelope(req.Tx)
	if err != nil {
		h.writeMalformed(response, err)
		return
	}

	result, err := h.ledger.SubmitTx(request.Request.Context(), env)
	if err != nil {
		h.writeError(response, err)
		return
	}
	response.WriteEntity(result)
}

func (h *handler) queryTx(request *restful.Request, response *restful.Response) {
	status, err := h.ledger.GetTxStatus(request.PathParameter("hash"))
	if err != nil {
		h.writeError(response, err)
		return
	}
	if status.StatusCode == types.NotExist {
		h.writeError(response, types.ErrAccountNotFound)
		return
	}
	response.WriteEntity(status)
}

func (h *handler) fund(request *restful.Request, response *restful.Response) {
	result, err := h.ledger.Fund(request.Request.Context(), request.QueryParameter("addr"))
	if err != nil {
		h.writeError(response, err)
		return
	}
	response.WriteEntity(result)
}

func (h *handler) writeMalformed(response *restful.Response, err error) {
	h.logger.Debugw("malformed tx", "err", err)
	h.writeError(response, &types.SubmitError{
		Status: http.StatusBadRequest,
		Codes:  types.ResultCodes{Transaction: types.TxMalformed},
	})
}

func (h *handler) writeError(response *restful.Response, err error) {
	var se *types.SubmitError
	switch {
	case errors.As(err, &se):
		response.WriteHeaderAndEntity(http.StatusBadRequest, &types.Problem{
			Title:  "Transaction Failed",
			Status: http.StatusBadRequest,
			Detail: se.Error(),
			Extras: &types.ProblemExtras{Hash: se.Hash, ResultCodes: se.Codes},
		})
	case errors.Is(err, types.ErrAccountNotFound):
		response.WriteHeaderAndEntity(http.StatusNotFound, &types.Problem{
			Title:  "Resource Missing",
			Status: http.StatusNotFound,
		})
	case errors.Is(err, node.ErrInvalidAccount):
		response.WriteHeaderAndEntity(http.StatusBadRequest, &types.Problem{
			Title:  "Bad Request",
			Status: http.StatusBadRequest,
			Detail: err.Error(),
		})
	default:
		h.logger.Errorw("request failed", "err", err)
		response.WriteHeaderAndEntity(http.StatusInternalServerError, &types.Problem{
			Title:  "Internal Server Error",
			Status: http.StatusInternalServerError,
		})
	}
}
