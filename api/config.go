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


package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/ultiledger/go-ultimint/content"
	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/mint"
)

const (
	defaultAddr           = ":8080"
	defaultBaseFee        = 100
	defaultMaxUploadSize  = 32 << 20
	defaultRequestTimeout = 5 * time.Minute
)

type Config struct {
	// network address of the http server
	Addr string
	// base url of the ledger query and submission endpoint
	LedgerEndpoint string
	// submissions per second sent to the ledger, 0 for no limit
	LedgerSubmitRPS float64

	// orchestrator configuration with the parsed keypairs
	Mint mint.Config
	// content store backend
	Content content.Config

	// directory served under /static/, empty to disable
	StaticDir string
	// origins allowed by CORS, empty to disable
	CORSOrigins []string
	// requests per second of one client, 0 for no limit
	RateLimit float64
	RateBurst int
	// size limit of a multipart mint request
	MaxUploadSize int64
	// deadline of one orchestration run
	RequestTimeout time.Duration
}

// NewConfig reads the configuration from v. The seeds of the
// issuer and distribution accounts are required, the receiving
// account is optional.
func NewConfig(v *viper.Viper) (*Config, error) {
	if v.GetString("network_id") == "" {
		return nil, errors.New("network ID is missing")
	}
	if v.GetString("ledger_endpoint") == "" {
		return nil, errors.New("ledger endpoint is missing")
	}

	issuer, err := parseSeed(v, "issuer_seed", true)
	if err != nil {
		return nil, err
	}
	distribution, err := parseSeed(v, "distribution_seed", true)
	if err != nil {
		return nil, err
	}
	receiving, err := parseSeed(v, "receiving_seed", false)
	if err != nil {
		return nil, err
	}
	if issuer.AccountID() == distribution.AccountID() {
		return nil, errors.New("issuer and distribution accounts are the same")
	}

	c := &Config{
		Addr:            v.GetString("addr"),
		LedgerEndpoint:  v.GetString("ledger_endpoint"),
		LedgerSubmitRPS: v.GetFloat64("ledger_submit_rps"),
		Mint: mint.Config{
			NetworkID:     crypto.NetworkID(v.GetString("network_id")),
			BaseFee:       v.GetInt64("base_fee"),
			TxTimeout:     v.GetDuration("tx_timeout"),
			MaxOpsPerTx:   v.GetInt("max_ops_per_tx"),
			RetryAttempts: v.GetUint("retry_attempts"),
			RetryDelay:    v.GetDuration("retry_delay"),
			Issuer:        issuer,
			Distribution:  distribution,
			Receiving:     receiving,
		},
		Content: content.Config{
			Backend:   v.GetString("content.backend"),
			Endpoint:  v.GetString("content.endpoint"),
			APIKey:    v.GetString("content.api_key"),
			APISecret: v.GetString("content.api_secret"),
			JWT:       v.GetString("content.jwt"),
			Timeout:   v.GetDuration("content.timeout"),
		},
		StaticDir:      v.GetString("static_dir"),
		CORSOrigins:    v.GetStringSlice("cors_origins"),
		RateLimit:      v.GetFloat64("rate_limit"),
		RateBurst:      v.GetInt("rate_burst"),
		MaxUploadSize:  v.GetInt64("max_upload_size"),
		RequestTimeout: v.GetDuration("request_timeout"),
	}
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if c.Mint.BaseFee <= 0 {
		c.Mint.BaseFee = defaultBaseFee
	}
	if c.Content.Backend == "" {
		c.Content.Backend = "memory"
	}
	if c.RateLimit < 0 {
		return nil, errors.New("rate limit is negative")
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	if c.MaxUploadSize <= 0 {
		c.MaxUploadSize = defaultMaxUploadSize
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	return c, nil
}

func parseSeed(v *viper.Viper, key string, required bool) (*crypto.Keypair, error) {
	seed := v.GetString(key)
	if seed == "" {
		if required {
			return nil, fmt.Errorf("%s is missing", key)
		}
		return nil, nil
	}
	kp, err := crypto.ParseKeypair(seed)
	if err != nil {
		return nil, fmt.Errorf("parse %s failed: %v", key, err)
	}
	return kp, nil
}
