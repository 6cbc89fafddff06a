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
	"errors"
	"net/http"
	"strings"
)

func init() {
	Register("ipfs", NewIPFS)
}

type ipfs struct {
	url string
	hc  *http.Client
}

// NewIPFS creates a store adding files through the rpc api of an
// ipfs node.
func NewIPFS(cfg *Config) (Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("ipfs endpoint is missing")
	}
	s := &ipfs{
		url: strings.TrimRight(cfg.Endpoint, "/") + "/api/v0/add?cid-version=1&pin=true",
		hc:  newHTTPClient(cfg.Timeout),
	}
	return s, nil
}

type ipfsResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

func (s *ipfs) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPayload
	}
	resp := &ipfsResponse{}
	if err := postFile(ctx, s.hc, s.url, nil, name, data, resp); err != nil {
		return "", err
	}
	return ValidateCID(resp.Hash)
}
