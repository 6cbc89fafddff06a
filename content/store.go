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
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ipfs/go-cid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyPayload = errors.New("empty payload")
	ErrInvalidCID   = errors.New("invalid cid")
)

// Store uploads opaque bytes to a content addressed storage and
// returns the content identifier of the bytes.
type Store interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// Config configures a content store backend.
type Config struct {
	// Name of the backend: pinata, ipfs or memory.
	Backend string
	// Base url of the backend api.
	Endpoint string
	// Pinata credentials, either the key pair or a JWT.
	APIKey    string
	APISecret string
	JWT       string
	// Timeout of a single upload.
	Timeout time.Duration
}

// Ctor creates a store from the config.
type Ctor func(cfg *Config) (Store, error)

var (
	mu           sync.RWMutex
	constructors = make(map[string]Ctor)
)

// Register is called by store backends to make themselves
// available by name.
func Register(name string, ctor Ctor) {
	mu.Lock()
	defer mu.Unlock()
	constructors[name] = ctor
}

// New creates the store of the configured backend.
func New(cfg *Config) (Store, error) {
	mu.RLock()
	ctor, ok := constructors[cfg.Backend]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("content store %s not registered", cfg.Backend)
	}
	return ctor(cfg)
}

// Backends returns the names of the registered backends.
func Backends() []string {
	mu.RLock()
	defer mu.RUnlock()
	var names []string
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateCID parses the identifier returned by a backend and
// returns its canonical string form.
func ValidateCID(s string) (string, error) {
	c, err := cid.Decode(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidCID, s, err)
	}
	return c.String(), nil
}

// DecodeDataValue decodes a base64 encoded ledger data value
// holding a cid.
func DecodeDataValue(value string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", fmt.Errorf("decode data value failed: %v", err)
	}
	return ValidateCID(string(b))
}

// Payload is one named blob to upload.
type Payload struct {
	Name string
	Data []byte
}

// UploadAll uploads the payloads concurrently and returns their
// cids in the order of the payloads. The first failure cancels
// the remaining uploads.
func UploadAll(ctx context.Context, s Store, payloads []Payload) ([]string, error) {
	cids := make([]string, len(payloads))
	g, ctx := errgroup.WithContext(ctx)
	for i := range payloads {
		i := i
		g.Go(func() error {
			if len(payloads[i].Data) == 0 {
				return fmt.Errorf("upload %s failed: %w", payloads[i].Name, ErrEmptyPayload)
			}
			c, err := s.Upload(ctx, payloads[i].Name, payloads[i].Data)
			if err != nil {
				return fmt.Errorf("upload %s failed: %w", payloads[i].Name, err)
			}
			cids[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cids, nil
}
