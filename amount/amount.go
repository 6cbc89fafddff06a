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

// Package amount converts between decimal amount strings such as
// "0.01" and the integer units stored on the ledger. One whole unit
// of any asset is 10^7 ledger units.
package amount

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits of an amount.
const Decimals = 7

// One is the number of ledger units in one whole asset unit.
const One = int64(10000000)

var (
	ErrNegative  = errors.New("amount is negative")
	ErrPrecision = errors.New("amount has more than 7 decimal places")
	ErrOverflow  = errors.New("amount overflows")
)

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// Parse converts a decimal string to ledger units.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q failed: %v", s, err)
	}
	if d.IsNegative() {
		return 0, ErrNegative
	}
	units := d.Shift(Decimals)
	if !units.Equal(units.Truncate(0)) {
		return 0, ErrPrecision
	}
	if units.GreaterThan(maxAmount) {
		return 0, ErrOverflow
	}
	return units.IntPart(), nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(s string) int64 {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String formats ledger units as a decimal string with all
// seven fractional digits.
func String(units int64) string {
	return decimal.New(units, -Decimals).StringFixed(Decimals)
}
