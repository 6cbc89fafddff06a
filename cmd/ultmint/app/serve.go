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
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ultiledger/go-ultimint/api"
	"github.com/ultiledger/go-ultimint/client"
	"github.com/ultiledger/go-ultimint/content"
	"github.com/ultiledger/go-ultimint/log"
	"github.com/ultiledger/go-ultimint/mint"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the mint http api",
	Long:  `Serve the mint http api in front of the ledger endpoint.`,
	Run: func(cmd *cobra.Command, args []string) {
		defer log.Sync()

		c, err := api.NewConfig(viper.GetViper())
		if err != nil {
			log.Fatalf("load config failed: %v", err)
		}

		lc, err := client.New(&client.Config{
			Endpoint:  c.LedgerEndpoint,
			SubmitRPS: c.LedgerSubmitRPS,
		}, log.Named("client"))
		if err != nil {
			log.Fatalf("create ledger client failed: %v", err)
		}
		store, err := content.New(&c.Content)
		if err != nil {
			log.Fatalf("create content store failed: %v", err)
		}

		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		orch, err := mint.NewOrchestrator(&c.Mint, lc, store, mint.NewMetrics(registry), log.Named("mint"))
		if err != nil {
			log.Fatalf("create orchestrator failed: %v", err)
		}
		log.Infow("accounts loaded",
			"issuer", c.Mint.Issuer.AccountID(),
			"distribution", c.Mint.Distribution.AccountID(),
			"content", c.Content.Backend)

		s := api.NewServer(c, orch, registry, log.Named("api"))
		defer s.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := s.Serve(ctx); err != nil {
			log.Errorf("serve http failed: %v", err)
		}
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "network address")
	serveCmd.Flags().String("ledger_endpoint", "", "ledger http endpoint")
	serveCmd.Flags().String("network_id", "", "network passphrase")
	serveCmd.Flags().String("static_dir", "", "directory served under /static/")
	serveCmd.Flags().StringSlice("cors_origins", nil, "origins allowed by CORS")
	for _, name := range []string{"addr", "ledger_endpoint", "network_id", "static_dir", "cors_origins"} {
		viper.BindPFlag(name, serveCmd.Flags().Lookup(name))
	}

	rootCmd.AddCommand(serveCmd)
}
