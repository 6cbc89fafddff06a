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


package future

import (
	"context"

	"github.com/ultiledger/go-ultimint/types"
)

// Future is the result of an asynchronously processed request.
type Future interface {
	Error() error
}

type deferError struct {
	err       error
	errChan   chan error
	responded bool
}

func (d *deferError) Init() {
	d.errChan = make(chan error, 1)
}

func (d *deferError) Respond(err error) {
	if d.errChan == nil || d.responded {
		return
	}
	d.errChan <- err
	close(d.errChan)
	d.responded = true
}

func (d *deferError) Error() error {
	if d.err != nil {
		return d.err
	}
	if d.errChan == nil {
		panic("waiting for response on nil channel")
	}
	d.err = <-d.errChan
	return d.err
}

// Wait is like Error but gives up when the context is done.
func (d *deferError) Wait(ctx context.Context) error {
	if d.errChan == nil {
		panic("waiting for response on nil channel")
	}
	select {
	case err := <-d.errChan:
		d.err = err
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tx is a signed envelope waiting to be applied.
type Tx struct {
	deferError
	Env    *types.Envelope
	Result *types.SubmitResult
}
