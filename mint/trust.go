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
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/ultiledger/go-ultimint/types"
)

// MissingTrustlines returns the assets the account cannot hold
// yet, in input order. Native assets never need a trustline and
// duplicates are reported once.
func MissingTrustlines(acc *types.Account, assets []types.Asset) []types.Asset {
	trusted := mapset.NewThreadUnsafeSet[string]()
	if acc != nil {
		for _, b := range acc.Balances {
			if !b.IsNative() {
				trusted.Add(b.Asset.Key())
			}
		}
	}

	var missing []types.Asset
	for _, asset := range assets {
		if asset.IsNative() {
			continue
		}
		// Add reports false for keys already present
		if !trusted.Add(asset.Key()) {
			continue
		}
		missing = append(missing, asset)
	}
	return missing
}
