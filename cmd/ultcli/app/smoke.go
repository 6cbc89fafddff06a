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
	"go.uber.org/multierr"

	"github.com/ultiledger/go-ultimint/crypto"
	"github.com/ultiledger/go-ultimint/log"
	"github.com/ultiledger/go-ultimint/test"
)

var (
	smokeNetworkID string
	smokeBaseFee   int64
)

var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Run the series of test cases against the ledger endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		env := &test.Env{
			Client:    newClient(),
			NetworkID: crypto.NetworkID(smokeNetworkID),
			BaseFee:   smokeBaseFee,
		}

		var errs error
		cases := test.GetAll()
		for _, c := range cases {
			log.Infow("run the test case", "desc", c.Desc())
			if err := c.Run(cmd.Context(), env); err != nil {
				log.Errorw("testcase failed", "desc", c.Desc(), "err", err.Error())
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", c.Desc(), err))
			}
		}
		log.Infof("finished all the %d testcases", len(cases))
		return errs
	},
}

func init() {
	smokeCmd.Flags().StringVar(&smokeNetworkID, "network_id", "", "network passphrase of the ledger")
	smokeCmd.Flags().Int64Var(&smokeBaseFee, "base_fee", 100, "fee per operation")
	smokeCmd.MarkFlagRequired("network_id")
	rootCmd.AddCommand(smokeCmd)
}
