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
	"time"

	"github.com/ultiledger/go-ultimint/crypto"
)

// Role names an account the orchestrator signs for.
type Role string

const (
	RoleIssuer       Role = "issuer"
	RoleDistribution Role = "distribution"
	RoleReceiving    Role = "receiving"
)

const (
	DefaultTxTimeout     = 180 * time.Second
	DefaultMaxOpsPerTx   = 100
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 500 * time.Millisecond
)

// Config holds the static configuration of the orchestrator. The
// keypairs are parsed from externally supplied seeds.
type Config struct {
	NetworkID [32]byte
	// Fee per operation.
	BaseFee int64
	// Validity window of every built transaction.
	TxTimeout time.Duration
	// Operations of one step beyond this are split into
	// consecutive transactions.
	MaxOpsPerTx int
	// Bounded attempts of one build-sign-submit cycle when the
	// ledger reports a sequence conflict.
	RetryAttempts uint
	RetryDelay    time.Duration

	Issuer       *crypto.Keypair
	Distribution *crypto.Keypair
	// Optional.
	Receiving *crypto.Keypair

	// Clock of the validity window, time.Now if nil.
	Clock func() time.Time
}

func (c *Config) setDefaults() {
	if c.TxTimeout <= 0 {
		c.TxTimeout = DefaultTxTimeout
	}
	if c.MaxOpsPerTx <= 0 {
		c.MaxOpsPerTx = DefaultMaxOpsPerTx
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

func (c *Config) validate() error {
	if c.Issuer == nil {
		return errors.New("issuer keypair is missing")
	}
	if c.Distribution == nil {
		return errors.New("distribution keypair is missing")
	}
	if c.BaseFee <= 0 {
		return errors.New("base fee is not positive")
	}
	if c.TxTimeout < time.Second {
		return errors.New("tx timeout is shorter than one second")
	}
	return nil
}

// Keypair returns the keypair of the role.
func (c *Config) Keypair(role Role) (*crypto.Keypair, error) {
	var kp *crypto.Keypair
	switch role {
	case RoleIssuer:
		kp = c.Issuer
	case RoleDistribution:
		kp = c.Distribution
	case RoleReceiving:
		kp = c.Receiving
	}
	if kp == nil {
		return nil, ErrUnknownRole
	}
	return kp, nil
}
