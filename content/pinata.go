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

const pinataEndpoint = "https://api.pinata.cloud"

func init() {
	Register("pinata", NewPinata)
}

type pinata struct {
	url    string
	header http.Header
	hc     *http.Client
}

// NewPinata creates a store pinning files with the pinata api.
func NewPinata(cfg *Config) (Store, error) {
	header := http.Header{}
	switch {
	case cfg.JWT != "":
		header.Set("Authorization", "Bearer "+cfg.JWT)
	case cfg.APIKey != "" && cfg.APISecret != "":
		header.Set("pinata_api_key", cfg.APIKey)
		header.Set("pinata_secret_api_key", cfg.APISecret)
	default:
		return nil, errors.New("pinata credentials are missing")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = pinataEndpoint
	}
	p := &pinata{
		url:    strings.TrimRight(endpoint, "/") + "/pinning/pinFileToIPFS",
		header: header,
		hc:     newHTTPClient(cfg.Timeout),
	}
	return p, nil
}

type pinataResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

func (p *pinata) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPayload
	}
	resp := &pinataResponse{}
	if err := postFile(ctx, p.hc, p.url, p.header, name, data, resp); err != nil {
		return "", err
	}
	return ValidateCID(resp.IpfsHash)
}
