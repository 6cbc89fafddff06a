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


package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ultiledger/go-ultimint/types"
)

var (
	ErrEmptyEndpoint = errors.New("empty ledger endpoint")
	ErrTxNotFound    = errors.New("tx not found")
)

// Config configures the ledger gateway client.
type Config struct {
	// Base url of the ledger http endpoint.
	Endpoint string
	// Timeout of a single http round trip.
	Timeout time.Duration
	// Submissions per second, zero means unlimited.
	SubmitRPS   float64
	SubmitBurst int
}

// Client is the gateway to the ledger http endpoint. It never
// caches account state and never retries on its own.
type Client struct {
	endpoint string
	hc       *http.Client
	limiter  *rate.Limiter
	logger   *zap.SugaredLogger
}

// New creates a Client with the given config.
func New(cfg *Config, logger *zap.SugaredLogger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, ErrEmptyEndpoint
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("parse ledger endpoint failed: %v", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.SubmitRPS > 0 {
		limit = rate.Limit(cfg.SubmitRPS)
	}
	burst := cfg.SubmitBurst
	if burst <= 0 {
		burst = 1
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	c := &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		hc:       &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(limit, burst),
		logger:   logger,
	}
	return c, nil
}

// LoadAccount fetches the current state of the account.
func (c *Client) LoadAccount(ctx context.Context, accountID string) (*types.Account, error) {
	acc := &types.Account{}
	err := c.get(ctx, "/accounts/"+url.PathEscape(accountID), acc)
	if err != nil {
		if isNotFound(err) {
			return nil, types.ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account %s failed: %w", accountID, err)
	}
	return acc, nil
}

// SubmitTx submits the signed envelope and waits for its result.
// A rejection is returned as *types.SubmitError.
func (c *Client) SubmitTx(ctx context.Context, env *types.Envelope) (*types.SubmitResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	b64, err := types.EncodeEnvelope(env)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(map[string]string{"tx": b64})
	if err != nil {
		return nil, fmt.Errorf("encode submit request failed: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	result := &types.SubmitResult{}
	if err := c.do(req, result); err != nil {
		var se *types.SubmitError
		if errors.As(err, &se) {
			c.logger.Infow("tx rejected", "source", env.Tx.SourceAccount, "seq", env.Tx.SeqNum, "codes", se.Codes)
		}
		return nil, err
	}
	c.logger.Debugw("tx applied", "hash", result.Hash, "ledger", result.Ledger)
	return result, nil
}

// QueryTx queries the status of the tx by its hash.
func (c *Client) QueryTx(ctx context.Context, hash string) (*types.TxStatus, error) {
	status := &types.TxStatus{}
	err := c.get(ctx, "/transactions/"+url.PathEscape(hash), status)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTxNotFound
		}
		return nil, fmt.Errorf("query tx %s failed: %w", hash, err)
	}
	return status, nil
}

// Fund asks the friendbot of a test ledger to create and fund the account.
func (c *Client) Fund(ctx context.Context, accountID string) (*types.SubmitResult, error) {
	result := &types.SubmitResult{}
	if err := c.get(ctx, "/friendbot?addr="+url.QueryEscape(accountID), result); err != nil {
		return nil, fmt.Errorf("fund account %s failed: %w", accountID, err)
	}
	return result, nil
}

type notFoundError struct {
	path string
}

func (e *notFoundError) Error() string {
	return "resource not found: " + e.path
}

func isNotFound(err error) bool {
	var nf *notFoundError
	return errors.As(err, &nf)
}

func (c *Client) get(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v interface{}) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response body failed: %v", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &notFoundError{path: req.URL.Path}
	case resp.StatusCode >= 400:
		p := &types.Problem{Status: resp.StatusCode}
		if err := json.Unmarshal(body, p); err != nil || p.Extras == nil {
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		p.Status = resp.StatusCode
		return p.SubmitError()
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response failed: %v", err)
	}
	return nil
}
