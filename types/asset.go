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

package types

import (
	"errors"

	"github.com/ultiledger/go-ultimint/crypto"
)

type AssetType string

const (
	// The native asset of the ledger.
	AssetNative AssetType = "native"
	// Assets issued by accounts.
	AssetCustom AssetType = "custom"
)

// NativeCode is the display code of the native asset.
const NativeCode = "ULT"

const maxAssetCodeLen = 12

var (
	ErrInvalidAssetCode   = errors.New("invalid asset code")
	ErrInvalidAssetIssuer = errors.New("invalid asset issuer")
)

// Asset identifies an asset by its code and issuer. Two assets
// are the same asset iff their code and issuer are equal.
type Asset struct {
	Type   AssetType `json:"asset_type"`
	Code   string    `json:"asset_code,omitempty"`
	Issuer string    `json:"asset_issuer,omitempty"`
}

// NativeAsset returns the native asset.
func NativeAsset() Asset {
	return Asset{Type: AssetNative}
}

// NewAsset creates a custom asset issued by issuer.
func NewAsset(code string, issuer string) Asset {
	return Asset{Type: AssetCustom, Code: code, Issuer: issuer}
}

// IsNative reports whether the asset is the native asset.
func (a Asset) IsNative() bool {
	return a.Type == AssetNative
}

// Equal compares two assets structurally.
func (a Asset) Equal(b Asset) bool {
	if a.IsNative() || b.IsNative() {
		return a.IsNative() == b.IsNative()
	}
	return a.Code == b.Code && a.Issuer == b.Issuer
}

// Key returns a stable string form of the asset.
func (a Asset) Key() string {
	if a.IsNative() {
		return string(AssetNative)
	}
	return a.Code + ":" + a.Issuer
}

func (a Asset) String() string {
	if a.IsNative() {
		return NativeCode
	}
	return a.Key()
}

// Validate checks the asset code and issuer.
func (a Asset) Validate() error {
	switch a.Type {
	case AssetNative:
		return nil
	case AssetCustom:
	default:
		return errors.New("invalid asset type")
	}
	if err := ValidateAssetCode(a.Code); err != nil {
		return err
	}
	if !crypto.IsValidAccountKey(a.Issuer) {
		return ErrInvalidAssetIssuer
	}
	return nil
}

// ValidateAssetCode checks that code is 1 to 12 ASCII letters or digits.
func ValidateAssetCode(code string) error {
	if len(code) == 0 || len(code) > maxAssetCodeLen {
		return ErrInvalidAssetCode
	}
	for _, c := range code {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		default:
			return ErrInvalidAssetCode
		}
	}
	return nil
}
