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


package content

import (
	"context"
	"sync"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

func init() {
	Register("memory", func(*Config) (Store, error) {
		return NewMemory(), nil
	})
}

var rawPrefix = cid.Prefix{
	Version:  1,
	Codec:    cid.Raw,
	MhType:   multihash.SHA2_256,
	MhLength: -1,
}

// Memory keeps the uploaded bytes in memory and identifies them
// with the same CIDv1 an ipfs node assigns to a raw block.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// ComputeCID returns the raw sha2-256 CIDv1 of the data.
func ComputeCID(data []byte) (string, error) {
	c, err := rawPrefix.Sum(data)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

func (m *Memory) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPayload
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c, err := ComputeCID(data)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.blobs[c] = append([]byte(nil), data...)
	m.mu.Unlock()

	return c, nil
}

// Get returns the bytes stored under the cid.
func (m *Memory) Get(c string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[c]
	return b, ok
}
