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


package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/log"
)

var genaccountidCmd = &cobra.Command{
	Use:   "genaccountid",
	Short: "Generate a random keypair for an account",
	Long: `Generate a random keypair for an account, the keypair contains the crypto
seed and the public key. The public key is the ID for the account.
The seed signs the transactions of the account and belongs in the
config or the environment of the service using it.`,
	Run: func(cmd *cobra.Command, args []string) {
		pub, seed, err := crypto.GetAccountKeypair()
		if err != nil {
			log.Fatalf("generate random account ID failed: %v", err)
		}
		fmt.Printf("AccountID: %s, Seed: %s\n", pub, seed)
	},
}

var accountidCmd = &cobra.Command{
	Use:   "accountid <seed>",
	Short: "Print the account ID of a seed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		kp, err := crypto.ParseKeypair(args[0])
		if err != nil {
			log.Fatalf("parse seed failed: %v", err)
		}
		fmt.Printf("AccountID: %s\n", kp.AccountID())
	},
}

func init() {
	rootCmd.AddCommand(genaccountidCmd)
	rootCmd.AddCommand(accountidCmd)
}
