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
	"github.com/ultiledger/go-ultimint/types"
)

// State of an orchestration run.
type State string

const (
	StateIdle                 State = "idle"
	StateUploadingPayload     State = "uploading_payload"
	StateReconcilingTrust     State = "reconciling_trust"
	StateSubmittingTrustTx    State = "submitting_trust_tx"
	StateAttachingMetadata    State = "attaching_metadata"
	StateSubmittingMetadataTx State = "submitting_metadata_tx"
	StateIssuingPayment       State = "issuing_payment"
	StateSubmittingPaymentTx  State = "submitting_payment_tx"
	StateFunding              State = "funding"
	StateDone                 State = "done"
	StateFailed               State = "failed"
)

// Step is one ledger visible unit of work of a flow.
type Step string

const (
	StepUpload   Step = "upload"
	StepTrust    Step = "trust"
	StepMetadata Step = "metadata"
	StepPayment  Step = "payment"
	StepFund     Step = "fund"
)

type StepStatus string

const (
	StatusPending StepStatus = "pending"
	StatusSkipped StepStatus = "skipped"
	StatusSuccess StepStatus = "success"
	StatusFailed  StepStatus = "failed"
)

// StepResult records what one step did. TxHashes lists the
// transactions the step committed, one per chunk.
type StepResult struct {
	Step     Step       `json:"step"`
	Status   StepStatus `json:"status"`
	TxHashes []string   `json:"tx_hashes,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Outcome is the aggregate result of one orchestration run.
type Outcome struct {
	RunID  string        `json:"run_id"`
	Flow   string        `json:"flow"`
	State  State         `json:"state"`
	Steps  []StepResult  `json:"steps"`
	Assets []types.Asset `json:"assets,omitempty"`
	CIDs   []string      `json:"cids,omitempty"`
	Err    *StepError    `json:"-"`
}

func newOutcome(runID string, flow string, steps ...Step) *Outcome {
	out := &Outcome{RunID: runID, Flow: flow, State: StateIdle}
	for _, s := range steps {
		out.Steps = append(out.Steps, StepResult{Step: s, Status: StatusPending})
	}
	return out
}

// Succeeded reports whether the run reached Done.
func (o *Outcome) Succeeded() bool {
	return o.State == StateDone
}

// Step returns the result of the step.
func (o *Outcome) Step(s Step) (StepResult, bool) {
	for _, r := range o.Steps {
		if r.Step == s {
			return r, true
		}
	}
	return StepResult{}, false
}

func (o *Outcome) result(s Step) *StepResult {
	for i := range o.Steps {
		if o.Steps[i].Step == s {
			return &o.Steps[i]
		}
	}
	o.Steps = append(o.Steps, StepResult{Step: s, Status: StatusPending})
	return &o.Steps[len(o.Steps)-1]
}

func (o *Outcome) skip(s Step) {
	o.result(s).Status = StatusSkipped
}

func (o *Outcome) succeed(s Step, hashes []string) {
	r := o.result(s)
	r.Status = StatusSuccess
	r.TxHashes = hashes
}

// fail marks the step failed and ends the run. Hashes of chunks
// committed before the failure are kept.
func (o *Outcome) fail(s Step, kind error, hashes []string, err error) *StepError {
	r := o.result(s)
	r.Status = StatusFailed
	r.TxHashes = hashes
	r.Error = err.Error()

	se := &StepError{Step: s, Kind: kind, Err: err}
	o.State = StateFailed
	o.Err = se
	return se
}
