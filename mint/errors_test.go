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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ultiledger/go-ultimint/types"
)

func TestStepError(t *testing.T) {
	conflict := &types.SubmitError{Status: 400, Codes: types.ResultCodes{Transaction: types.TxBadSeq}}
	err := fmt.Errorf("submit: %w", &StepError{Step: StepMetadata, Kind: ErrMetadata, Err: conflict})

	assert.True(t, errors.Is(err, ErrMetadata))
	assert.False(t, errors.Is(err, ErrPayment))
	assert.True(t, errors.Is(err, types.ErrSequenceConflict))

	var se *StepError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "sequence_conflict", se.Code())
	assert.Contains(t, se.Error(), "metadata step failed")

	tests := []struct {
		kind error
		code string
	}{
		{ErrUpload, "upload_error"},
		{ErrAccountLoad, "account_load_error"},
		{ErrTrustline, "trustline_error"},
		{ErrPayment, "payment_error"},
		{ErrFunding, "funding_error"},
	}
	for _, tt := range tests {
		se := &StepError{Kind: tt.kind, Err: errors.New("boom")}
		assert.Equal(t, tt.code, se.Code())
		_, ok := se.SubmitError()
		assert.False(t, ok)
	}

	wrapped := loadError("GABC", types.ErrAccountNotFound)
	assert.True(t, errors.Is(wrapped, ErrAccountLoad))
	assert.True(t, errors.Is(wrapped, types.ErrAccountNotFound))
}

func TestChunks(t *testing.T) {
	assert.Nil(t, chunks([]int{}, 2))
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, chunks([]int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{{1, 2}}, chunks([]int{1, 2}, 2))
}
