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
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ultiledger/go-ultimint/log"
)

var rootCmd = &cobra.Command{
	Use:   "ultsandbox",
	Short: "Run a single process development ledger",
	Long: `ultsandbox runs a ledger without consensus which applies submitted
transactions one at a time and serves the account query, submission and
friendbot endpoints. Settings are read from the config file or from
ULTSANDBOX_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

var cfgFile string

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file")
	rootCmd.PersistentFlags().String("log_level", "info", "log level")
	rootCmd.PersistentFlags().String("log_encoding", "json", "log encoding (json or console)")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log_level"))
	viper.BindPFlag("log_encoding", rootCmd.PersistentFlags().Lookup("log_encoding"))
}

func initConfig() error {
	viper.SetEnvPrefix("ULTSANDBOX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return err
		}
	}
	return log.Initialize(viper.GetString("log_level"), viper.GetString("log_encoding"))
}
