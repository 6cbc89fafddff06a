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

package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	b58 "github.com/mr-tron/base58/base58"
	"golang.org/x/crypto/ed25519"
)

// Keypair holds the signing material of one account. Since we can
// always reconstruct the true private key using the same seed, the
// seed is used as an equivalent private key.
type Keypair struct {
	accountID  string
	seed       string
	privateKey ed25519.PrivateKey
}

// NewKeypair randomly generates a keypair for an account.
func NewKeypair() (*Keypair, error) {
	var seed [32]byte
	_, err := io.ReadFull(rand.Reader, seed[:])
	if err != nil {
		return nil, err
	}
	return KeypairFromRawSeed(seed[:])
}

// KeypairFromRawSeed constructs the keypair from 32 raw seed bytes.
func KeypairFromRawSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.New("invalid seed, byte length is not 32")
	}
	privateKey := ed25519.NewKeyFromSeed(seed)
	publicKey := privateKey.Public().(ed25519.PublicKey)

	acc := &ULTKey{Code: KeyTypeAccountID}
	copy(acc.Hash[:], publicKey)
	sd := &ULTKey{Code: KeyTypeSeed}
	copy(sd.Hash[:], seed)

	kp := &Keypair{
		accountID:  EncodeKey(acc),
		seed:       EncodeKey(sd),
		privateKey: privateKey,
	}
	return kp, nil
}

// ParseKeypair reconstructs the keypair from an encoded seed.
func ParseKeypair(seed string) (*Keypair, error) {
	k, err := DecodeKey(seed)
	if err != nil {
		return nil, err
	}
	if k.Code != KeyTypeSeed {
		return nil, errors.New("incorrect seed key type")
	}
	return KeypairFromRawSeed(k.Hash[:])
}

// AccountID returns the encoded public key of the account.
func (kp *Keypair) AccountID() string {
	return kp.accountID
}

// Seed returns the encoded secret seed.
func (kp *Keypair) Seed() string {
	return kp.seed
}

// Sign signs the data and returns the base58 encoded signature.
func (kp *Keypair) Sign(data []byte) string {
	return b58.Encode(ed25519.Sign(kp.privateKey, data))
}

// String never reveals the seed.
func (kp *Keypair) String() string {
	return kp.accountID
}

// Randomly generate a pair of account public key and seed.
func GetAccountKeypair() (string, string, error) {
	kp, err := NewKeypair()
	if err != nil {
		return "", "", err
	}
	return kp.AccountID(), kp.Seed(), nil
}

// Generate account keypair from provided seed.
func GetAccountKeypairFromSeed(seed []byte) (string, string, error) {
	kp, err := KeypairFromRawSeed(seed)
	if err != nil {
		return "", "", err
	}
	return kp.AccountID(), kp.Seed(), nil
}

// Sign the data with provided seed (equivalent private key).
func Sign(seed string, data []byte) (string, error) {
	kp, err := ParseKeypair(seed)
	if err != nil {
		return "", fmt.Errorf("decode seed failed: %v", err)
	}
	return kp.Sign(data), nil
}

// Verify the data signature with encoded string representation
// of the public key.
func Verify(publicKey, signature string, data []byte) bool {
	pk, err := DecodeKey(publicKey)
	if err != nil || pk.Code != KeyTypeAccountID {
		return false
	}
	return VerifyByKey(pk, signature, data)
}

// Verify the data signature using ULTKey.
func VerifyByKey(pk *ULTKey, signature string, data []byte) bool {
	sn, err := b58.Decode(signature)
	if err != nil || len(sn) != ed25519.SignatureSize {
		return false
	}
	pub := ed25519.PublicKey(pk.Hash[:])
	return ed25519.Verify(pub, data, sn)
}
