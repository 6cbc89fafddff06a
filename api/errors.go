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
	"net/http"

	restful "github.com/emicklei/go-restful/v3"

	"github.com/ultiledger/go-ultimint/mint"
	"github.com/ultiledger/go-ultimint/types"
)

type ErrorDetail struct {
	Code string `json:"code"`
	// failed step of an orchestration run
	Step  string `json:"step,omitempty"`
	Cause string `json:"cause"`
	// raw ledger result codes of a rejected submission
	Detail *types.ResultCodes `json:"detail,omitempty"`
}

// ErrorResponse reports which step failed and the status of every
// step, so a client can retry only the remaining work.
type ErrorResponse struct {
	Error ErrorDetail       `json:"error"`
	RunID string            `json:"run_id,omitempty"`
	Steps []mint.StepResult `json:"steps,omitempty"`
}

// writeOutcome writes the result of a flow. Errors without an
// outcome were caught by validation before any step ran.
func (s *Server) writeOutcome(response *restful.Response, out *mint.Outcome, err error) {
	if err == nil {
		response.WriteEntity(newOutcomeResponse(out))
		return
	}

	var se *mint.StepError
	if out == nil || !errors.As(err, &se) {
		s.writeBadRequest(response, err)
		return
	}

	body := &ErrorResponse{
		Error: ErrorDetail{
			Code:  se.Code(),
			Step:  string(se.Step),
			Cause: se.Err.Error(),
		},
		RunID: out.RunID,
		Steps: out.Steps,
	}
	if sub, ok := se.SubmitError(); ok {
		codes := sub.Codes
		body.Error.Detail = &codes
	}
	response.WriteHeaderAndEntity(statusOf(se), body)
}

func statusOf(se *mint.StepError) int {
	switch {
	case errors.Is(se, types.ErrTimeoutExpired), errors.Is(se, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(se, mint.ErrUpload):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeBadRequest(response *restful.Response, err error) {
	s.logger.Debugw("invalid request", "err", err)
	s.writeErrorBody(response, http.StatusBadRequest, &ErrorDetail{Code: "invalid_request", Cause: err.Error()})
}

func (s *Server) writeErrorBody(response *restful.Response, status int, detail *ErrorDetail) {
	response.WriteHeaderAndEntity(status, &ErrorResponse{Error: *detail})
}
