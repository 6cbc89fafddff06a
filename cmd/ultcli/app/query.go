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
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ultiledger/go-ultimint/content"
	"github.com/ultiledger/go-ultimint/log"
)

var accountCmd = &cobra.Command{
	Use:   "account <account id>",
	Short: "Show the state of an account",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		acc, err := newClient().LoadAccount(context.Background(), args[0])
		if err != nil {
			log.Fatalf("load account failed: %v", err)
		}
		printJSON(acc)
	},
}

var fundCmd = &cobra.Command{
	Use:   "fund <account id>",
	Short: "Create and fund an account with the friendbot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		result, err := newClient().Fund(context.Background(), args[0])
		if err != nil {
			log.Fatalf("fund account failed: %v", err)
		}
		printJSON(result)
	},
}

var txCmd = &cobra.Command{
	Use:   "tx <hash>",
	Short: "Show the status of a transaction",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		status, err := newClient().QueryTx(context.Background(), args[0])
		if err != nil {
			log.Fatalf("query tx failed: %v", err)
		}
		printJSON(status)
	},
}

var cidCmd = &cobra.Command{
	Use:   "cid <base64 value>",
	Short: "Decode the CID stored in a data entry",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := content.DecodeDataValue(args[0])
		if err != nil {
			log.Fatalf("decode data value failed: %v", err)
		}
		fmt.Println(c)
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(fundCmd)
	rootCmd.AddCommand(txCmd)
	rootCmd.AddCommand(cidCmd)
}
