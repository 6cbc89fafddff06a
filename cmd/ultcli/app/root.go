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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ultiledger/go-ultimint/client"
	"github.com/ultiledger/go-ultimint/log"
)

var rootCmd = &cobra.Command{
	Use:   "ultcli",
	Short: "Command line client of the ledger endpoint",
	Long: `ultcli generates account keypairs and queries or funds accounts
through the ledger http endpoint.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		viper.SetEnvPrefix("ULTCLI")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()
		return log.Initialize(viper.GetString("log_level"), "console")
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("endpoint", "http://127.0.0.1:8000", "ledger http endpoint")
	rootCmd.PersistentFlags().Duration("timeout", 0, "timeout of one request")
	rootCmd.PersistentFlags().String("log_level", "warn", "log level")
	viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log_level"))
}

func newClient() *client.Client {
	c, err := client.New(&client.Config{
		Endpoint: viper.GetString("endpoint"),
		Timeout:  viper.GetDuration("timeout"),
	}, log.Named("client"))
	if err != nil {
		log.Fatalf("create ledger client failed: %v", err)
	}
	return c
}

func printJSON(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("encode output failed: %v", err)
	}
	fmt.Println(string(b))
}
